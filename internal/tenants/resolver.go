package tenants

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sitebooks/backend/internal/models"
)

// Resolver computes the accessible-company set for a principal and validates
// switch requests. The set is a pure function of (privilege, catalog) and is
// recomputed on every session-bearing response; nothing here is cached, so a
// newly created tenant shows up for platform staff immediately.
type Resolver struct {
	catalog Catalog
}

// NewResolver creates a tenant resolver over the company catalog.
func NewResolver(catalog Catalog) *Resolver {
	return &Resolver{catalog: catalog}
}

// AvailableCompanies returns the companies the user may act as: the whole
// catalog for a platform-privileged principal, the home company otherwise.
func (r *Resolver) AvailableCompanies(ctx context.Context, user *models.User) ([]models.Company, error) {
	if user.IsPlatformPrivileged() {
		return r.catalog.ListCompanies(ctx)
	}
	home, err := r.catalog.FindCompanyByID(ctx, user.CompanyID)
	if err != nil {
		return nil, err
	}
	if home == nil {
		return nil, fmt.Errorf("user %s references missing company %s", user.ID, user.CompanyID)
	}
	return []models.Company{*home}, nil
}

// AuthorizeSwitch validates that the user may switch their session to the
// target company and returns it. Regular users get ErrForbidden for any
// company but their own; platform-privileged principals get ErrCompanyNotFound
// for targets that do not exist.
func (r *Resolver) AuthorizeSwitch(ctx context.Context, user *models.User, target uuid.UUID) (*models.Company, error) {
	if !user.IsPlatformPrivileged() && target != user.CompanyID {
		return nil, ErrForbidden
	}
	company, err := r.catalog.FindCompanyByID(ctx, target)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, ErrCompanyNotFound
	}
	return company, nil
}
