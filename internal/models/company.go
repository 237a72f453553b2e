package models

import (
	"time"

	"github.com/google/uuid"
)

// CompanyType classifies a tenant. Exactly one company carries the reserved
// platform type; it represents the operator of the service itself.
type CompanyType string

const (
	CompanyTypePlatform          CompanyType = "platform"
	CompanyTypeGeneralContractor CompanyType = "general_contractor"
	CompanyTypeSubcontractor     CompanyType = "subcontractor"
	CompanyTypeSupplier          CompanyType = "supplier"
	CompanyTypeConsultant        CompanyType = "consultant"
)

// Valid reports whether t is a known company type.
func (t CompanyType) Valid() bool {
	switch t {
	case CompanyTypePlatform, CompanyTypeGeneralContractor, CompanyTypeSubcontractor,
		CompanyTypeSupplier, CompanyTypeConsultant:
		return true
	}
	return false
}

// CompanyStatus is the lifecycle status of a tenant.
type CompanyStatus string

const (
	CompanyStatusActive    CompanyStatus = "active"
	CompanyStatusSuspended CompanyStatus = "suspended"
	CompanyStatusClosed    CompanyStatus = "closed"
)

// Plan is the subscription plan of a tenant.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanStandard Plan = "standard"
	PlanPro      Plan = "pro"
)

// Company represents a tenant.
type Company struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Type         CompanyType   `json:"type"`
	Status       CompanyStatus `json:"status"`
	Plan         Plan          `json:"plan"`
	ContactEmail string        `json:"contact_email,omitempty"`
	ContactPhone string        `json:"contact_phone,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
