// Package sessions tracks logical logins: creation, revocation,
// active-company state, and the refresh-token generation counter.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sitebooks/backend/internal/models"
)

var (
	// ErrNotFound means no session row exists for the id.
	ErrNotFound = errors.New("session not found")
	// ErrRevoked means the session exists but has been revoked.
	ErrRevoked = errors.New("session revoked")
	// ErrStaleGeneration means a generation compare-and-set lost: the
	// presented refresh generation is no longer the session's current one.
	ErrStaleGeneration = errors.New("stale refresh generation")
)

// Store is the session registry contract. The pg/redis Registry implements
// it in production; tests substitute an in-memory fake.
type Store interface {
	// Create opens a new session at generation 0.
	Create(ctx context.Context, userID, activeCompanyID uuid.UUID) (*models.Session, error)

	// GetActive returns the session if it exists and is not revoked.
	// Returns ErrRevoked or ErrNotFound otherwise.
	GetActive(ctx context.Context, id uuid.UUID) (*models.Session, error)

	// Revoke marks the session revoked. Idempotent; revoking an already
	// revoked or unknown session is not an error.
	Revoke(ctx context.Context, id uuid.UUID) error

	// SetActiveCompany updates the session's active company. Authorization
	// must happen before this is called.
	SetActiveCompany(ctx context.Context, id, companyID uuid.UUID) error

	// AdvanceGeneration atomically bumps the refresh generation if and only
	// if the session is live and its current generation equals expected.
	// Returns the updated session, or ErrStaleGeneration when another
	// refresh already advanced past expected (the caller treats that as
	// token reuse), ErrRevoked, or ErrNotFound.
	AdvanceGeneration(ctx context.Context, id uuid.UUID, expected int) (*models.Session, error)

	// PurgeRevokedBefore hard-deletes sessions revoked before cutoff and
	// returns the number of rows removed. Used only by the retention worker.
	PurgeRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
