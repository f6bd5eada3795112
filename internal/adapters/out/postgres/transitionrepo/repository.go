package transitionrepo

import (
	"context"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"

	"gorm.io/gorm"
)

// GormTransitionRepository implements TransitionRepository using GORM.
type GormTransitionRepository struct {
	db *gorm.DB
}

// NewGormTransitionRepository creates a new GORM transition repository.
func NewGormTransitionRepository(db *gorm.DB) *GormTransitionRepository {
	return &GormTransitionRepository{db: db}
}

// Add appends one transition record to the audit log.
func (r *GormTransitionRepository) Add(ctx context.Context, record order.StatusTransition) error {
	if err := record.Validate(); err != nil {
		return err
	}

	dto := fromDomain(record)
	return r.db.WithContext(ctx).Create(&dto).Error
}

// ListByOrder retrieves the transition history of one order in chronological order.
func (r *GormTransitionRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]order.StatusTransition, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dtos []TransitionDTO
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("occurred_at, id").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	records := make([]order.StatusTransition, 0, len(dtos))
	for _, dto := range dtos {
		record, mapErr := toDomain(dto)
		if mapErr != nil {
			return nil, mapErr
		}
		records = append(records, record)
	}

	return records, nil
}
