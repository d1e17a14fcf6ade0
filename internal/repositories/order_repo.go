package repositories

import (
	"articonnect/internal/models"
)

// OrderRepository defines the interface for order data access. Orders are
// append-only snapshots; only their status may change after creation.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Append(order *models.Order) error
	UpdateStatus(id string, status string) error
}
