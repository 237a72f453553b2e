package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitebooks/backend/internal/models"
	"github.com/sitebooks/backend/internal/sessions"
	"github.com/sitebooks/backend/internal/tenants"
)

// fakeBackend is an in-memory stand-in for the postgres-backed stores. It
// implements the credential store, the session registry, and the tenant
// catalog over one shared state, mirroring how the real implementations share
// a database.
type fakeBackend struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	companies map[uuid.UUID]*models.Company
	sessions  map[uuid.UUID]*models.Session
}

var (
	_ Store           = (*fakeBackend)(nil)
	_ sessions.Store  = (*fakeBackend)(nil)
	_ tenants.Catalog = (*fakeBackend)(nil)
)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:     make(map[uuid.UUID]*models.User),
		companies: make(map[uuid.UUID]*models.Company),
		sessions:  make(map[uuid.UUID]*models.Session),
	}
}

func (f *fakeBackend) CreateAccount(ctx context.Context, company *models.Company, user *models.User, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrEmailTaken
		}
	}

	now := time.Now()
	if company != nil {
		company.ID = uuid.New()
		company.CreatedAt = now
		company.UpdatedAt = now
		cp := *company
		f.companies[company.ID] = &cp
		user.CompanyID = company.ID
	}

	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now
	up := *user
	f.users[user.ID] = &up

	if session != nil {
		session.ID = uuid.New()
		session.UserID = user.ID
		if session.ActiveCompanyID == uuid.Nil {
			session.ActiveCompanyID = user.CompanyID
		}
		session.RefreshGeneration = 0
		session.IssuedAt = now
		sp := *session
		f.sessions[session.ID] = &sp
	}
	return nil
}

func (f *fakeBackend) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeBackend) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeBackend) LinkProvider(ctx context.Context, id uuid.UUID, provider models.AuthProvider, externalRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return sessions.ErrNotFound
	}
	u.AuthProvider = provider
	u.ProviderExternalID = externalRef
	return nil
}

// ListCompanies implements tenants.Catalog.
func (f *fakeBackend) ListCompanies(ctx context.Context) ([]models.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var list []models.Company
	for _, c := range f.companies {
		list = append(list, *c)
	}
	return list, nil
}

// FindCompanyByID implements tenants.Catalog.
func (f *fakeBackend) FindCompanyByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companies[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// Create implements sessions.Store.
func (f *fakeBackend) Create(ctx context.Context, userID, activeCompanyID uuid.UUID) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &models.Session{
		ID:              uuid.New(),
		UserID:          userID,
		ActiveCompanyID: activeCompanyID,
		IssuedAt:        time.Now(),
	}
	f.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

// GetActive implements sessions.Store.
func (f *fakeBackend) GetActive(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	if s.Revoked() {
		return nil, sessions.ErrRevoked
	}
	cp := *s
	return &cp, nil
}

// Revoke implements sessions.Store.
func (f *fakeBackend) Revoke(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok && !s.Revoked() {
		now := time.Now()
		s.RevokedAt = &now
	}
	return nil
}

// SetActiveCompany implements sessions.Store.
func (f *fakeBackend) SetActiveCompany(ctx context.Context, id, companyID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || s.Revoked() {
		return sessions.ErrNotFound
	}
	s.ActiveCompanyID = companyID
	return nil
}

// AdvanceGeneration implements sessions.Store.
func (f *fakeBackend) AdvanceGeneration(ctx context.Context, id uuid.UUID, expected int) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	if s.Revoked() {
		return nil, sessions.ErrRevoked
	}
	if s.RefreshGeneration != expected {
		return nil, sessions.ErrStaleGeneration
	}
	s.RefreshGeneration++
	cp := *s
	return &cp, nil
}

// PurgeRevokedBefore implements sessions.Store.
func (f *fakeBackend) PurgeRevokedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.sessions {
		if s.Revoked() && s.RevokedAt.Before(cutoff) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

// fakeVerifier returns a canned identity or error.
type fakeVerifier struct {
	identity *Identity
	err      error
}

func (v *fakeVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

const testSecret = "0123456789abcdef0123456789abcdef" // 32 bytes

func newTestService(backend *fakeBackend, providers map[models.AuthProvider]ProviderVerifier) (*Service, *JWTService) {
	tokens := NewJWTService(testSecret, 15*time.Minute, 7*24*time.Hour)
	resolver := tenants.NewResolver(backend)
	svc := NewService(backend, backend, resolver, tokens, providers, zap.NewNop())
	return svc, tokens
}

// seedPlatform inserts the reserved platform company and its principal admin,
// the same rows EnsurePlatform creates in production.
func seedPlatform(f *fakeBackend, email, passwordHash string) (*models.Company, *models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	company := &models.Company{
		ID:        uuid.New(),
		Name:      "Platform",
		Type:      models.CompanyTypePlatform,
		Status:    models.CompanyStatusActive,
		Plan:      models.PlanPro,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.companies[company.ID] = company
	admin := &models.User{
		ID:              uuid.New(),
		CompanyID:       company.ID,
		FirstName:       "Platform",
		LastName:        "Admin",
		Email:           email,
		PasswordHash:    passwordHash,
		AuthProvider:    models.ProviderLocal,
		IsPlatformOwner: true,
		Role:            models.RolePrincipalAdmin,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.users[admin.ID] = admin
	return company, admin
}
