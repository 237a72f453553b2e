// Package tenants owns the company catalog and the rules deciding which
// companies a principal may act as.
package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitebooks/backend/internal/models"
)

var (
	// ErrForbidden means the principal may not act as the target company.
	ErrForbidden = errors.New("company not available to this user")
	// ErrCompanyNotFound means the target company does not exist.
	ErrCompanyNotFound = errors.New("company not found")
)

// Catalog is the read side of the company store consumed by the resolver.
type Catalog interface {
	// ListCompanies returns every company, newest first.
	ListCompanies(ctx context.Context) ([]models.Company, error)
	// FindCompanyByID returns (nil, nil) when the company does not exist.
	FindCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

const companyColumns = `id, name, type, status, plan,
		COALESCE(contact_email,''), COALESCE(contact_phone,''), created_at, updated_at`

// Repository reads companies from postgres.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Catalog = (*Repository)(nil)

// NewRepository creates a tenants repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCompanies returns every company, newest first.
func (r *Repository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()
	var list []models.Company
	for rows.Next() {
		var c models.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Status, &c.Plan,
			&c.ContactEmail, &c.ContactPhone, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// FindCompanyByID returns (nil, nil) when the company does not exist.
func (r *Repository) FindCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	const q = `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	var c models.Company
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Type, &c.Status, &c.Plan,
		&c.ContactEmail, &c.ContactPhone, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find company: %w", err)
	}
	return &c, nil
}
