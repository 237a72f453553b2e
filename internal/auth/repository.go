package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sitebooks/backend/internal/models"
)

// Store is the credential store contract consumed by the auth service.
// Lookups return (nil, nil) when no row exists; absence is an expected
// outcome, not an error.
type Store interface {
	// CreateAccount inserts company (when non-nil), user, and initial
	// session as one transaction, filling in generated ids and timestamps.
	// Returns ErrEmailTaken when the email unique constraint fires.
	CreateAccount(ctx context.Context, company *models.Company, user *models.User, session *models.Session) error

	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// LinkProvider attaches a social identity to an existing user. Not
	// called implicitly on email collisions; reserved for an explicit
	// account-linking flow.
	LinkProvider(ctx context.Context, id uuid.UUID, provider models.AuthProvider, externalRef string) error
}

const userColumns = `id, company_id, first_name, last_name, email, COALESCE(username,''),
		COALESCE(password_hash,''), auth_provider, COALESCE(provider_external_id,''),
		is_platform_owner, role, created_at, updated_at`

// Repository is the postgres credential store.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CompanyID, &u.FirstName, &u.LastName, &u.Email, &u.Username,
		&u.PasswordHash, &u.AuthProvider, &u.ProviderExternalID,
		&u.IsPlatformOwner, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindUserByEmail returns (nil, nil) when no account uses the email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindUserByID returns (nil, nil) when the user does not exist.
func (r *Repository) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// LinkProvider attaches a social identity to an existing user.
func (r *Repository) LinkProvider(ctx context.Context, id uuid.UUID, provider models.AuthProvider, externalRef string) error {
	const q = `UPDATE users SET auth_provider = $2, provider_external_id = NULLIF($3,''), updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, string(provider), externalRef)
	if err != nil {
		return fmt.Errorf("link provider: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("link provider: user %s not found", id)
	}
	return nil
}

// CreateAccount inserts company (when non-nil), user, and initial session in
// one transaction, so a failed registration leaves no partial rows. Email
// uniqueness comes from the database constraint; two concurrent registrations
// with the same email get exactly one success and one ErrEmailTaken.
func (r *Repository) CreateAccount(ctx context.Context, company *models.Company, user *models.User, session *models.Session) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if company != nil {
		const cq = `INSERT INTO companies (name, type, status, plan, contact_email, contact_phone)
			VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''))
			RETURNING id, created_at, updated_at`
		err = tx.QueryRow(ctx, cq, company.Name, string(company.Type), string(company.Status),
			string(company.Plan), company.ContactEmail, company.ContactPhone).
			Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)
		if err != nil {
			return mapConflict(err, fmt.Errorf("insert company: %w", err))
		}
		user.CompanyID = company.ID
	}

	const uq = `INSERT INTO users (company_id, first_name, last_name, email, username, password_hash,
			auth_provider, provider_external_id, is_platform_owner, role)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), $7, NULLIF($8,''), $9, $10)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRow(ctx, uq, user.CompanyID, user.FirstName, user.LastName, user.Email,
		user.Username, user.PasswordHash, string(user.AuthProvider), user.ProviderExternalID,
		user.IsPlatformOwner, string(user.Role)).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapConflict(err, fmt.Errorf("insert user: %w", err))
	}

	if session != nil {
		const sq = `INSERT INTO sessions (user_id, active_company_id)
			VALUES ($1, $2)
			RETURNING id, refresh_generation, issued_at`
		session.UserID = user.ID
		if session.ActiveCompanyID == uuid.Nil {
			session.ActiveCompanyID = user.CompanyID
		}
		err = tx.QueryRow(ctx, sq, session.UserID, session.ActiveCompanyID).
			Scan(&session.ID, &session.RefreshGeneration, &session.IssuedAt)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return mapConflict(err, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// mapConflict converts a unique-constraint violation into ErrEmailTaken and
// leaves every other failure as the wrapped internal error.
func mapConflict(err error, wrapped error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrEmailTaken
	}
	return wrapped
}
