// Package clients stores customer records. Every query is scoped to the
// owning company; the company id always comes from the caller's session, so
// a platform admin who switched tenants works against that tenant's records.
package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitebooks/backend/internal/models"
)

const clientColumns = `id, company_id, name, COALESCE(contact_name,''), COALESCE(email,''),
		COALESCE(phone,''), COALESCE(address,''), COALESCE(notes,''), created_at, updated_at`

// Repository handles client persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a clients repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanClient(row pgx.Row) (*models.Client, error) {
	var cl models.Client
	err := row.Scan(&cl.ID, &cl.CompanyID, &cl.Name, &cl.ContactName, &cl.Email,
		&cl.Phone, &cl.Address, &cl.Notes, &cl.CreatedAt, &cl.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

// ListByCompany returns the company's clients, alphabetically.
func (r *Repository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Client, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE company_id = $1 ORDER BY name`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()
	var list []models.Client
	for rows.Next() {
		cl, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *cl)
	}
	return list, rows.Err()
}

// GetByID returns (nil, nil) when no client with the id belongs to the company.
func (r *Repository) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Client, error) {
	const q = `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND company_id = $2`
	cl, err := scanClient(r.pool.QueryRow(ctx, q, id, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return cl, nil
}

// Create inserts a new client for the company.
func (r *Repository) Create(ctx context.Context, cl *models.Client) error {
	const q = `INSERT INTO clients (company_id, name, contact_name, email, phone, address, notes)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''))
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, cl.CompanyID, cl.Name, cl.ContactName, cl.Email,
		cl.Phone, cl.Address, cl.Notes).Scan(&cl.ID, &cl.CreatedAt, &cl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// Update overwrites the client's mutable fields. Returns (nil, nil) when the
// client does not belong to the company.
func (r *Repository) Update(ctx context.Context, cl *models.Client) (*models.Client, error) {
	const q = `UPDATE clients SET name = $3, contact_name = NULLIF($4,''), email = NULLIF($5,''),
			phone = NULLIF($6,''), address = NULLIF($7,''), notes = NULLIF($8,''), updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING ` + clientColumns
	updated, err := scanClient(r.pool.QueryRow(ctx, q, cl.ID, cl.CompanyID, cl.Name,
		cl.ContactName, cl.Email, cl.Phone, cl.Address, cl.Notes))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return updated, nil
}

// Delete removes the client. Returns false when nothing matched.
func (r *Repository) Delete(ctx context.Context, companyID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return false, fmt.Errorf("delete client: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
