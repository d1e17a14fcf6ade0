package services

import (
	"encoding/json"
	"fmt"
	"log"

	"articonnect/internal/models"
	"articonnect/internal/store"
)

// Catalog view preferences.
const (
	ViewGrid = "grid"
	ViewList = "list"
)

// storedPref is the JSON envelope persisted under a preference key.
type storedPref struct {
	Version int    `json:"version"`
	Value   string `json:"value"`
}

// storedSessionUser is the JSON envelope for the session user record.
type storedSessionUser struct {
	Version int              `json:"version"`
	User    models.OrderUser `json:"user"`
}

const prefsSchemaVersion = 1

// PrefsService keeps per-user presentation state in the key-value store: the
// session user record, the client/artisan user-type preference and the
// catalog view preference. Readers tolerate absence and discard corrupt
// entries, falling back to defaults.
type PrefsService struct {
	store store.Store
}

// NewPrefsService creates a new PrefsService.
func NewPrefsService(st store.Store) *PrefsService {
	return &PrefsService{
		store: st,
	}
}

// readPref returns the stored value under key, or fallback when the entry is
// absent or corrupt. Corrupt entries are deleted so they are not retried.
func (s *PrefsService) readPref(key, fallback string) string {
	raw, err := s.store.Get(key)
	if err != nil {
		if err != store.ErrNotFound {
			log.Printf("Failed to read preference %s: %v", key, err)
		}
		return fallback
	}

	var envelope storedPref
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Printf("Discarding corrupt preference %s: %v", key, err)
		if delErr := s.store.Delete(key); delErr != nil {
			log.Printf("Failed to delete corrupt preference %s: %v", key, delErr)
		}
		return fallback
	}
	return envelope.Value
}

func (s *PrefsService) writePref(key, value string) error {
	raw, err := json.Marshal(storedPref{Version: prefsSchemaVersion, Value: value})
	if err != nil {
		return fmt.Errorf("failed to encode preference %s: %w", key, err)
	}
	if err := s.store.Set(key, raw); err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}
	return nil
}

// UserType returns the owner's client/artisan preference, defaulting to client.
func (s *PrefsService) UserType(owner string) string {
	return s.readPref(store.UserTypeKeyPrefix+":"+owner, models.RoleClient)
}

// SetUserType stores the owner's client/artisan preference.
func (s *PrefsService) SetUserType(owner, userType string) error {
	if userType != models.RoleClient && userType != models.RoleArtisan {
		return fmt.Errorf("invalid user type: %s", userType)
	}
	return s.writePref(store.UserTypeKeyPrefix+":"+owner, userType)
}

// ViewPref returns the owner's catalog view preference, defaulting to grid.
func (s *PrefsService) ViewPref(owner string) string {
	return s.readPref(store.ViewPrefKeyPrefix+":"+owner, ViewGrid)
}

// SetViewPref stores the owner's catalog view preference.
func (s *PrefsService) SetViewPref(owner, view string) error {
	if view != ViewGrid && view != ViewList {
		return fmt.Errorf("invalid view preference: %s", view)
	}
	return s.writePref(store.ViewPrefKeyPrefix+":"+owner, view)
}

// SessionUser returns the stored session user record for the owner. Absent
// or corrupt data yields a zero record.
func (s *PrefsService) SessionUser(owner string) models.OrderUser {
	key := store.UserKeyPrefix + ":" + owner
	raw, err := s.store.Get(key)
	if err != nil {
		return models.OrderUser{}
	}

	var envelope storedSessionUser
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Printf("Discarding corrupt session user record for %s: %v", owner, err)
		if delErr := s.store.Delete(key); delErr != nil {
			log.Printf("Failed to delete corrupt session user record for %s: %v", owner, delErr)
		}
		return models.OrderUser{}
	}
	return envelope.User
}

// SetSessionUser stores the session user record for the owner.
func (s *PrefsService) SetSessionUser(owner string, user models.OrderUser) error {
	raw, err := json.Marshal(storedSessionUser{Version: prefsSchemaVersion, User: user})
	if err != nil {
		return fmt.Errorf("failed to encode session user record: %w", err)
	}
	if err := s.store.Set(store.UserKeyPrefix+":"+owner, raw); err != nil {
		return fmt.Errorf("failed to write session user record: %w", err)
	}
	return nil
}
