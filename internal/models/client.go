package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a customer record owned by a company. Business records like this
// one are conventional tenant-scoped rows; they carry no auth semantics
// beyond being keyed on the owning company.
type Client struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
