package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one logical login. It is the unit of revocation and carries the
// active-company state; registration, login, and social login each create
// exactly one session row. Rows are never hard-deleted during normal
// operation (the retention worker purges old revoked rows).
type Session struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	ActiveCompanyID   uuid.UUID  `json:"active_company_id"`
	RefreshGeneration int        `json:"refresh_generation"`
	IssuedAt          time.Time  `json:"issued_at"`
	RevokedAt         *time.Time `json:"revoked_at,omitempty"`
}

// Revoked reports whether the session has been revoked.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}
