package repositories

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"articonnect/internal/models"
	"articonnect/internal/store"
)

// storedOrders is the JSON envelope persisted under the orders key.
type storedOrders struct {
	Version int            `json:"version"`
	Orders  []models.Order `json:"orders"`
}

const ordersSchemaVersion = 1

// StoreOrderRepository keeps the global order list as one JSON blob in the
// key-value store, mirroring how the rest of the session state is persisted.
type StoreOrderRepository struct {
	store store.Store
	mu    sync.Mutex // serializes read-modify-write cycles on the blob
}

// NewStoreOrderRepository creates a new instance of StoreOrderRepository.
func NewStoreOrderRepository(st store.Store) *StoreOrderRepository {
	return &StoreOrderRepository{
		store: st,
	}
}

// load reads and decodes the order list. An absent key yields an empty list;
// a corrupt blob is deleted and also yields an empty list so the corruption
// is not retried.
func (r *StoreOrderRepository) load() ([]models.Order, error) {
	raw, err := r.store.Get(store.OrdersKey)
	if err != nil {
		if err == store.ErrNotFound {
			return []models.Order{}, nil
		}
		return nil, fmt.Errorf("failed to read order list: %w", err)
	}

	var envelope storedOrders
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Printf("Discarding corrupt order list: %v", err)
		if delErr := r.store.Delete(store.OrdersKey); delErr != nil {
			return nil, fmt.Errorf("failed to delete corrupt order list: %w", delErr)
		}
		return []models.Order{}, nil
	}
	return envelope.Orders, nil
}

// save encodes and persists the order list.
func (r *StoreOrderRepository) save(orders []models.Order) error {
	raw, err := json.Marshal(storedOrders{Version: ordersSchemaVersion, Orders: orders})
	if err != nil {
		return fmt.Errorf("failed to encode order list: %w", err)
	}
	if err := r.store.Set(store.OrdersKey, raw); err != nil {
		return fmt.Errorf("failed to write order list: %w", err)
	}
	return nil
}

// GetAll returns every order in the global list.
func (r *StoreOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

// GetByID returns an order by its ID.
func (r *StoreOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, fmt.Errorf("order with ID %s not found", id)
}

// Append adds a new order to the end of the global list.
func (r *StoreOrderRepository) Append(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return err
	}
	orders = append(orders, *order)
	return r.save(orders)
}

// UpdateStatus updates the status of an order. Status is the only mutable
// field of an order snapshot.
func (r *StoreOrderRepository) UpdateStatus(id string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load()
	if err != nil {
		return err
	}
	for i := range orders {
		if orders[i].ID == id {
			orders[i].Status = status
			return r.save(orders)
		}
	}
	return fmt.Errorf("order with ID %s not found for status update", id)
}
