package services_test

import (
	"testing"
	"time"

	"ordertrack/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCalculator_Estimate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := services.NewEstimateCalculator()

	t.Run("literal case from the formula", func(t *testing.T) {
		// max(25, 10) + 5 buffer + 2*3 queue = 36 minutes
		readyAt, err := calc.Estimate(now, []int{25, 10}, 2)

		require.NoError(t, err)
		assert.Equal(t, now.Add(36*time.Minute), readyAt)
	})

	t.Run("empty queue adds only the buffer", func(t *testing.T) {
		readyAt, err := calc.Estimate(now, []int{12}, 0)

		require.NoError(t, err)
		assert.Equal(t, now.Add(17*time.Minute), readyAt)
	})

	t.Run("slowest item dominates", func(t *testing.T) {
		readyAt, err := calc.Estimate(now, []int{5, 30, 10, 30}, 0)

		require.NoError(t, err)
		assert.Equal(t, now.Add(35*time.Minute), readyAt)
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		first, err := calc.Estimate(now, []int{25, 10}, 2)
		require.NoError(t, err)
		second, err := calc.Estimate(now, []int{25, 10}, 2)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("should reject empty prep time list", func(t *testing.T) {
		_, err := calc.Estimate(now, nil, 0)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "item prep minutes")
	})

	t.Run("should reject non-positive prep time", func(t *testing.T) {
		_, err := calc.Estimate(now, []int{10, 0}, 0)

		require.Error(t, err)
	})

	t.Run("should reject negative queue depth", func(t *testing.T) {
		_, err := calc.Estimate(now, []int{10}, -1)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "queue depth")
	})
}

func TestEstimateCalculator_IsDelay(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calc := services.NewEstimateCalculator()

	t.Run("one minute slip is within tolerance", func(t *testing.T) {
		assert.False(t, calc.IsDelay(now, now.Add(time.Minute)))
	})

	t.Run("exactly the tolerance is not a delay", func(t *testing.T) {
		assert.False(t, calc.IsDelay(now, now.Add(2*time.Minute)))
	})

	t.Run("five minute slip is a delay", func(t *testing.T) {
		assert.True(t, calc.IsDelay(now, now.Add(5*time.Minute)))
	})

	t.Run("earlier revision is never a delay", func(t *testing.T) {
		assert.False(t, calc.IsDelay(now, now.Add(-10*time.Minute)))
	})

	t.Run("no previous estimate is never a delay", func(t *testing.T) {
		assert.False(t, calc.IsDelay(time.Time{}, now.Add(time.Hour)))
	})
}

func TestNewEstimateCalculatorWith(t *testing.T) {
	t.Run("should accept custom parameters", func(t *testing.T) {
		calc, err := services.NewEstimateCalculatorWith(10*time.Minute, time.Minute, 30*time.Second)
		require.NoError(t, err)

		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		readyAt, err := calc.Estimate(now, []int{20}, 3)

		require.NoError(t, err)
		assert.Equal(t, now.Add(33*time.Minute), readyAt)
		assert.True(t, calc.IsDelay(now, now.Add(time.Minute)))
	})

	t.Run("should reject negative durations", func(t *testing.T) {
		_, err := services.NewEstimateCalculatorWith(-time.Minute, time.Minute, time.Minute)
		require.Error(t, err)

		_, err = services.NewEstimateCalculatorWith(time.Minute, -time.Minute, time.Minute)
		require.Error(t, err)

		_, err = services.NewEstimateCalculatorWith(time.Minute, time.Minute, -time.Minute)
		require.Error(t, err)
	})
}
