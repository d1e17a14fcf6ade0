package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"articonnect/internal/models"
	"articonnect/internal/store"
)

// storedCart is the JSON envelope persisted under a cart key.
type storedCart struct {
	Version int               `json:"version"`
	Items   []models.CartLine `json:"items"`
}

const cartSchemaVersion = 1

// CartService maintains one cart ledger per owner in the key-value store.
// Counts and totals are recomputed from the store on each call rather than
// cached. Mutations fire the registered change callbacks, which the header
// cart count subscribes to.
type CartService struct {
	store    store.Store
	mu       sync.Mutex // serializes read-modify-write cycles per service
	onChange []func(owner string)
}

// NewCartService creates a new CartService.
func NewCartService(st store.Store) *CartService {
	return &CartService{
		store: st,
	}
}

// OnChange registers a callback invoked after every cart mutation with the
// owner whose cart changed.
func (s *CartService) OnChange(fn func(owner string)) {
	s.onChange = append(s.onChange, fn)
}

func (s *CartService) notify(owner string) {
	for _, fn := range s.onChange {
		fn(owner)
	}
}

func cartKey(owner string) string {
	return store.CartKeyPrefix + ":" + owner
}

// Get returns the owner's cart. An absent entry yields an empty cart; a
// corrupt entry is deleted and yields an empty cart so the corruption is not
// retried.
func (s *CartService) Get(owner string) (models.Cart, error) {
	raw, err := s.store.Get(cartKey(owner))
	if err != nil {
		if err == store.ErrNotFound {
			return models.Cart{Items: []models.CartLine{}}, nil
		}
		return models.Cart{}, fmt.Errorf("failed to read cart for %s: %w", owner, err)
	}

	var envelope storedCart
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Printf("Discarding corrupt cart for %s: %v", owner, err)
		if delErr := s.store.Delete(cartKey(owner)); delErr != nil {
			return models.Cart{}, fmt.Errorf("failed to delete corrupt cart for %s: %w", owner, delErr)
		}
		return models.Cart{Items: []models.CartLine{}}, nil
	}
	if envelope.Items == nil {
		envelope.Items = []models.CartLine{}
	}
	return models.Cart{Items: envelope.Items}, nil
}

// save persists the cart and fires change notifications.
func (s *CartService) save(owner string, cart models.Cart) error {
	raw, err := json.Marshal(storedCart{Version: cartSchemaVersion, Items: cart.Items})
	if err != nil {
		return fmt.Errorf("failed to encode cart for %s: %w", owner, err)
	}
	if err := s.store.Set(cartKey(owner), raw); err != nil {
		return fmt.Errorf("failed to write cart for %s: %w", owner, err)
	}
	s.notify(owner)
	return nil
}

// AddLine adds a line to the owner's cart. If a line with the same
// (product, variant) identity exists, its quantity is incremented by the
// added quantity; otherwise the line is appended. Stock caps are the
// caller's concern, not enforced here.
func (s *CartService) AddLine(owner string, line models.CartLine) error {
	if line.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", line.Quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.Get(owner)
	if err != nil {
		return err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].SameIdentity(line.ProductID, line.Variant) {
			cart.Items[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, line)
	}
	return s.save(owner, cart)
}

// RemoveLine deletes the line matching (productID, variant) from the owner's
// cart. Removing an absent line is a no-op that still persists and notifies.
func (s *CartService) RemoveLine(owner string, productID int, variant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.Get(owner)
	if err != nil {
		return err
	}

	kept := cart.Items[:0]
	for _, line := range cart.Items {
		if !line.SameIdentity(productID, variant) {
			kept = append(kept, line)
		}
	}
	cart.Items = kept
	return s.save(owner, cart)
}

// SetQuantity overwrites the quantity of the matching line. A quantity of
// zero or less behaves as RemoveLine.
func (s *CartService) SetQuantity(owner string, productID int, variant string, qty int) error {
	if qty <= 0 {
		return s.RemoveLine(owner, productID, variant)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, err := s.Get(owner)
	if err != nil {
		return err
	}

	for i := range cart.Items {
		if cart.Items[i].SameIdentity(productID, variant) {
			cart.Items[i].Quantity = qty
			return s.save(owner, cart)
		}
	}
	// No matching line: nothing to update.
	return nil
}

// ItemCount returns the sum of quantities in the owner's cart. Absent or
// corrupt data yields zero, never an error.
func (s *CartService) ItemCount(owner string) int {
	cart, err := s.Get(owner)
	if err != nil {
		log.Printf("Failed to read cart for item count: %v", err)
		return 0
	}
	return cart.ItemCount()
}

// Subtotal returns the sum of price*quantity in the owner's cart. Absent or
// corrupt data yields zero, never an error.
func (s *CartService) Subtotal(owner string) float64 {
	cart, err := s.Get(owner)
	if err != nil {
		log.Printf("Failed to read cart for subtotal: %v", err)
		return 0
	}
	return cart.Subtotal()
}

// Clear persists an empty cart for the owner and notifies.
func (s *CartService) Clear(owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(owner, models.Cart{Items: []models.CartLine{}})
}
