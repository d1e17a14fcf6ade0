package store

import "errors"

// ErrNotFound is returned by Get when a key has no value. Readers are
// expected to tolerate it and fall back to an empty default.
var ErrNotFound = errors.New("key not found")

// Store is a string-keyed blob store holding JSON-encoded values. It is the
// persistence boundary for carts, orders and user preferences. Writes are
// last-write-wins; there is no version check.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// Keys for the well-known blobs. Per-owner keys append ":<owner>".
const (
	CartKeyPrefix     = "articonnect_cart"
	OrdersKey         = "articonnect_orders"
	UserKeyPrefix     = "articonnect_user"
	UserTypeKeyPrefix = "articonnect_user_type"
	ViewPrefKeyPrefix = "articonnect_view_pref"
)
