package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type BusinessType string

const (
	BusinessTypeMenu    BusinessType = "menu"
	BusinessTypeShop    BusinessType = "shop"
	BusinessTypeBooking BusinessType = "booking"
)

// Business is a tenant: one owner's storefront
type Business struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	OwnerID      uuid.UUID    `json:"owner_id" db:"owner_id"`
	Name         string       `json:"name" db:"name"`
	Slug         string       `json:"slug" db:"slug"`
	BusinessType BusinessType `json:"business_type" db:"business_type"`
	IsActive     bool         `json:"is_active" db:"is_active"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

var ErrBusinessNotFound = errors.New("business not found")

// BusinessRepository is the read side of the tenant directory
type BusinessRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Business, error)
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}
