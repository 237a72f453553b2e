package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// EnsurePlatform idempotently creates the reserved platform company and its
// principal admin. Safe to run on every startup and across concurrent
// replicas: the partial unique index on the platform type and the email
// unique constraint make both inserts first-writer-wins.
func (r *Repository) EnsurePlatform(ctx context.Context, companyName, adminEmail, adminPasswordHash, firstName, lastName string) error {
	if adminEmail == "" {
		return nil // bootstrap not configured
	}

	const cq = `INSERT INTO companies (name, type, status, plan)
		VALUES ($1, 'platform', 'active', 'pro')
		ON CONFLICT (type) WHERE type = 'platform' DO NOTHING`
	if _, err := r.pool.Exec(ctx, cq, companyName); err != nil {
		return fmt.Errorf("ensure platform company: %w", err)
	}

	var platformID uuid.UUID
	if err := r.pool.QueryRow(ctx, `SELECT id FROM companies WHERE type = 'platform'`).Scan(&platformID); err != nil {
		return fmt.Errorf("lookup platform company: %w", err)
	}

	const uq = `INSERT INTO users (company_id, first_name, last_name, email, password_hash,
			auth_provider, is_platform_owner, role)
		VALUES ($1, $2, $3, $4, $5, 'local', TRUE, 'principal_admin')
		ON CONFLICT (email) DO NOTHING`
	if _, err := r.pool.Exec(ctx, uq, platformID, firstName, lastName, adminEmail, adminPasswordHash); err != nil {
		return fmt.Errorf("ensure platform admin: %w", err)
	}
	return nil
}
