package models

import "gorm.io/gorm"

// User roles. Clients shop; artisans sell through the dashboard.
const (
	RoleClient  = "client"
	RoleArtisan = "artisan"
)

// User represents a registered user of the marketplace.
type User struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Email      string `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role       string `json:"role" gorm:"type:varchar(20)" validate:"required,oneof=client artisan"`
	gorm.Model `json:"-"` // CreatedAt, UpdatedAt, DeletedAt
}
