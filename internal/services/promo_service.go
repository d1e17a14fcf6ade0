package services

import (
	"fmt"
	"strings"
	"sync"

	"articonnect/internal/models"
)

// PromoService resolves promo codes against an in-memory registry. Discounts
// are ephemeral: they are applied at totals-computation time and never
// persisted. No stacking, no expiry.
type PromoService struct {
	codes map[string]models.Discount
	mu    sync.RWMutex
}

// NewPromoService creates a PromoService seeded with the launch promo code.
func NewPromoService() *PromoService {
	s := &PromoService{
		codes: make(map[string]models.Discount),
	}
	// The single accepted launch code: 10% off.
	s.Register("WELCOME10", models.Discount{Type: models.DiscountPercent, Value: 10})
	return s
}

// Register adds or replaces a promo code. Codes are case-insensitive.
func (s *PromoService) Register(code string, discount models.Discount) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[strings.ToUpper(strings.TrimSpace(code))] = discount
}

// Resolve returns the discount for a code, or an error for unknown codes.
func (s *PromoService) Resolve(code string) (models.Discount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	discount, ok := s.codes[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return models.Discount{}, fmt.Errorf("invalid promo code: %s", code)
	}
	return discount, nil
}
