package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sitebooks/backend/internal/models"
	"github.com/sitebooks/backend/pkg/redis"
)

const sessionColumns = "id, user_id, active_company_id, refresh_generation, issued_at, revoked_at"

var _ Store = (*Registry)(nil)

// Registry is the postgres-backed session store. Postgres is the authority;
// redis holds revocation markers so per-request liveness checks skip the
// database on the hot path. A marker miss always falls through to postgres,
// so a flushed or unavailable cache degrades to correct-but-slower.
type Registry struct {
	pool   *pgxpool.Pool
	cache  *redis.Client
	marker time.Duration // revocation marker TTL; at least the refresh TTL
	logger *zap.Logger
}

// NewRegistry creates a session registry. markerTTL must cover the refresh
// token lifetime: once a marker expires the session's tokens have too.
func NewRegistry(pool *pgxpool.Pool, cache *redis.Client, markerTTL time.Duration, logger *zap.Logger) *Registry {
	return &Registry{pool: pool, cache: cache, marker: markerTTL, logger: logger}
}

func revokedKey(id uuid.UUID) string {
	return "session:revoked:" + id.String()
}

// Create opens a new session at generation 0.
func (r *Registry) Create(ctx context.Context, userID, activeCompanyID uuid.UUID) (*models.Session, error) {
	const q = `INSERT INTO sessions (user_id, active_company_id)
		VALUES ($1, $2)
		RETURNING ` + sessionColumns
	var s models.Session
	err := r.pool.QueryRow(ctx, q, userID, activeCompanyID).
		Scan(&s.ID, &s.UserID, &s.ActiveCompanyID, &s.RefreshGeneration, &s.IssuedAt, &s.RevokedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return &s, nil
}

// GetActive returns the session if it exists and is not revoked.
func (r *Registry) GetActive(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	if r.cache != nil {
		n, err := r.cache.Exists(ctx, revokedKey(id)).Result()
		if err != nil && r.logger != nil {
			r.logger.Warn("revocation cache lookup failed", zap.Error(err))
		}
		if err == nil && n > 0 {
			return nil, ErrRevoked
		}
	}

	const q = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	var s models.Session
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&s.ID, &s.UserID, &s.ActiveCompanyID, &s.RefreshGeneration, &s.IssuedAt, &s.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select session: %w", err)
	}
	if s.Revoked() {
		r.mark(ctx, id)
		return nil, ErrRevoked
	}
	return &s, nil
}

// Revoke marks the session revoked. Idempotent.
func (r *Registry) Revoke(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`
	if _, err := r.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	r.mark(ctx, id)
	return nil
}

// SetActiveCompany updates the session's active company.
func (r *Registry) SetActiveCompany(ctx context.Context, id, companyID uuid.UUID) error {
	const q = `UPDATE sessions SET active_company_id = $2 WHERE id = $1 AND revoked_at IS NULL`
	tag, err := r.pool.Exec(ctx, q, id, companyID)
	if err != nil {
		return fmt.Errorf("set active company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdvanceGeneration atomically bumps the refresh generation via a single
// compare-and-set update. Of two concurrent refreshes only one row-matches;
// the loser is reported as stale so the caller can revoke the session.
func (r *Registry) AdvanceGeneration(ctx context.Context, id uuid.UUID, expected int) (*models.Session, error) {
	const q = `UPDATE sessions
		SET refresh_generation = refresh_generation + 1
		WHERE id = $1 AND revoked_at IS NULL AND refresh_generation = $2
		RETURNING ` + sessionColumns
	var s models.Session
	err := r.pool.QueryRow(ctx, q, id, expected).
		Scan(&s.ID, &s.UserID, &s.ActiveCompanyID, &s.RefreshGeneration, &s.IssuedAt, &s.RevokedAt)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("advance generation: %w", err)
	}

	// CAS missed: distinguish unknown, revoked, and stale.
	cur, err := r.GetActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.RefreshGeneration != expected {
		return nil, ErrStaleGeneration
	}
	// Generation matched on re-read; the update raced with a revoke.
	return nil, ErrRevoked
}

// PurgeRevokedBefore hard-deletes sessions revoked before cutoff.
func (r *Registry) PurgeRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM sessions WHERE revoked_at IS NOT NULL AND revoked_at < $1`
	tag, err := r.pool.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Registry) mark(ctx context.Context, id uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, revokedKey(id), "1", r.marker).Err(); err != nil && r.logger != nil {
		r.logger.Warn("revocation cache write failed", zap.Error(err))
	}
}
