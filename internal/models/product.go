package models

import "gorm.io/gorm"

// Product represents an artisan product in the catalog.
type Product struct {
	ID          int     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Category    string  `json:"category" validate:"omitempty,max=100"`
	Artisan     string  `json:"artisan" validate:"omitempty,max=100"`
	ImageURL    string  `json:"imageUrl" validate:"omitempty,max=500"`
	gorm.Model  `json:"-"` // CreatedAt, UpdatedAt, DeletedAt
}
