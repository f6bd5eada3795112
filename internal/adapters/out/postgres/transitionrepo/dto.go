// Package transitionrepo persists the append-only status transition audit log.
package transitionrepo

import (
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// TransitionDTO represents one row of the status transition audit log.
// Rows are append-only; the surrogate key only fixes insertion order for
// transitions sharing a timestamp.
type TransitionDTO struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	OrderID    uuid.UUID `gorm:"type:uuid;index"`
	FromStatus string    `gorm:"type:varchar(16)"`
	ToStatus   string    `gorm:"type:varchar(16)"`
	OccurredAt time.Time
	Reason     string `gorm:"type:varchar(255)"`
}

// TableName specifies the database table name for transition records.
func (TransitionDTO) TableName() string {
	return "status_transitions"
}

func fromDomain(record order.StatusTransition) TransitionDTO {
	return TransitionDTO{
		OrderID:    record.OrderID().Bytes(),
		FromStatus: record.From().String(),
		ToStatus:   record.To().String(),
		OccurredAt: record.OccurredAt(),
		Reason:     record.Reason(),
	}
}

func toDomain(dto TransitionDTO) (order.StatusTransition, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return order.StatusTransition{}, err
	}

	fromStatus, err := order.StatusFromString(dto.FromStatus)
	if err != nil {
		return order.StatusTransition{}, err
	}

	toStatus, err := order.StatusFromString(dto.ToStatus)
	if err != nil {
		return order.StatusTransition{}, err
	}

	return order.RestoreStatusTransition(orderID, fromStatus, toStatus, dto.OccurredAt, dto.Reason), nil
}
