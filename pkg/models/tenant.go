package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a farm or organization. Every other entity belongs to a tenant.
type Tenant struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Name      string    `db:"name"       json:"name"`
	SiteCode  string    `db:"site_code"  json:"site_code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
