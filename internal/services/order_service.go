package services

import (
	"fmt"
	"sort"

	"articonnect/internal/models"
	"articonnect/internal/repositories"
)

// OrderService handles retrieval and status transitions for orders.
type OrderService struct {
	orderRepo repositories.OrderRepository
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
	}
}

// ListForUser returns the orders belonging to the given email, newest first.
func (s *OrderService) ListForUser(email string) ([]models.Order, error) {
	all, err := s.orderRepo.GetAll()
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0)
	for _, order := range all {
		if order.User.Email == email {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].Date.After(orders[j].Date) })
	return orders, nil
}

// GetForUser returns one order by ID. An order owned by a different email is
// reported as not found, not as a permission fault.
func (s *OrderService) GetForUser(id, email string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order.User.Email != email {
		return nil, fmt.Errorf("order with ID %s not found", id)
	}
	return order, nil
}

// CountByStatus tallies the user's orders per status, for the history tabs.
func (s *OrderService) CountByStatus(email string) (map[string]int, error) {
	orders, err := s.ListForUser(email)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, order := range orders {
		counts[order.Status]++
	}
	return counts, nil
}

// UpdateStatus updates the status of an existing order.
func (s *OrderService) UpdateStatus(id string, status string) error {
	validStatuses := map[string]bool{
		models.OrderStatusCompleted:  true,
		models.OrderStatusProcessing: true,
		models.OrderStatusCancelled:  true,
	}
	if _, ok := validStatuses[status]; !ok {
		return fmt.Errorf("invalid order status: %s", status)
	}

	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	return nil
}
