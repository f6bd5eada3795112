// Package orderrepo provides data transfer objects and mapping functions for
// order persistence. It implements the repository pattern for the order
// aggregate, converting between domain entities and database rows.
package orderrepo

import (
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Status and the ready-time estimate are indexed: the active-order board
// filters on status and the overdue sweep scans estimates.
type OrderDTO struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Number           string     `gorm:"type:varchar(32)"`
	Mode             string     `gorm:"type:varchar(16)"`
	Phone            string     `gorm:"type:varchar(32)"`
	Items            []ItemDTO  `gorm:"serializer:json;type:jsonb"`
	Status           string     `gorm:"type:varchar(16);index"`
	EstimatedReadyAt *time.Time `gorm:"index"`
	ActualReadyAt    *time.Time
	CreatedAt        time.Time
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// ItemDTO is one ordered line item, stored inline as JSON.
type ItemDTO struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	PrepMinutes int    `json:"prepMinutes"`
}

// fromDomain converts an order aggregate to its database representation.
func fromDomain(aggregate *order.Order) OrderDTO {
	items := make([]ItemDTO, 0, len(aggregate.Items()))
	for _, item := range aggregate.Items() {
		items = append(items, ItemDTO{
			Name:        item.Name,
			Quantity:    item.Quantity,
			PrepMinutes: item.PrepMinutes,
		})
	}

	return OrderDTO{
		ID:               aggregate.ID().Bytes(),
		Number:           aggregate.Number(),
		Mode:             aggregate.OrderMode().String(),
		Phone:            aggregate.Phone(),
		Items:            items,
		Status:           aggregate.Status().String(),
		EstimatedReadyAt: aggregate.EstimatedReadyAt(),
		ActualReadyAt:    aggregate.ActualReadyAt(),
		CreatedAt:        aggregate.CreatedAt(),
	}
}

// toDomain converts a database row back into an order aggregate using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	mode, err := order.ModeFromString(dto.Mode)
	if err != nil {
		return nil, err
	}

	status, err := order.StatusFromString(dto.Status)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, item := range dto.Items {
		items = append(items, order.Item{
			Name:        item.Name,
			Quantity:    item.Quantity,
			PrepMinutes: item.PrepMinutes,
		})
	}

	return order.RestoreOrder(
		id,
		dto.Number,
		mode,
		dto.Phone,
		items,
		status,
		dto.EstimatedReadyAt,
		dto.ActualReadyAt,
		dto.CreatedAt,
	)
}
