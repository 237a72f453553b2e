package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitebooks/backend/internal/models"
	"github.com/sitebooks/backend/internal/sessions"
	"github.com/sitebooks/backend/internal/tenants"
	"github.com/sitebooks/backend/pkg/utils"
)

// CompanySelection values accepted at registration.
const (
	CompanySelectionCreate = "create"
	CompanySelectionJoin   = "join" // accepted in input, not implemented yet
)

// ErrJoinNotSupported is returned for companySelection=join until invited
// joins ship.
var ErrJoinNotSupported = errors.New("joining an existing company is not supported yet")

// Service composes the credential store, session registry, tenant resolver,
// and token service into the boundary auth operations.
type Service struct {
	store     Store
	sessions  sessions.Store
	resolver  *tenants.Resolver
	tokens    *JWTService
	providers map[models.AuthProvider]ProviderVerifier
	logger    *zap.Logger
}

// NewService creates the auth service.
func NewService(store Store, sessionStore sessions.Store, resolver *tenants.Resolver,
	tokens *JWTService, providers map[models.AuthProvider]ProviderVerifier, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		sessions:  sessionStore,
		resolver:  resolver,
		tokens:    tokens,
		providers: providers,
		logger:    logger,
	}
}

// RegisterInput is the validated registration payload.
type RegisterInput struct {
	FirstName        string
	LastName         string
	Email            string
	Password         string
	CompanySelection string
	CompanyName      string
	CompanyType      models.CompanyType
}

// SocialInput is the validated social-login payload.
type SocialInput struct {
	Provider         models.AuthProvider
	ProviderToken    string
	CompanySelection string
	CompanyName      string
	CompanyType      models.CompanyType
}

// AuthResult is the response shape shared by register, login, and social
// login: the session's tokens plus the tenant view at issuance time.
type AuthResult struct {
	Tokens             *TokenPair
	User               *models.User
	Company            *models.Company
	AvailableCompanies []models.Company
	ActiveCompanyID    uuid.UUID
	Created            bool // social login: a new account was provisioned
}

// Register creates a company, its OWNER user, and a session as one unit.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.CompanySelection == CompanySelectionJoin {
		return nil, ErrJoinNotSupported
	}
	if in.CompanySelection != CompanySelectionCreate {
		return nil, fmt.Errorf("%w: unknown companySelection %q", ErrInvalidInput, in.CompanySelection)
	}
	if in.CompanyType == "" {
		in.CompanyType = models.CompanyTypeGeneralContractor
	}
	if !in.CompanyType.Valid() || in.CompanyType == models.CompanyTypePlatform {
		return nil, fmt.Errorf("%w: invalid company type", ErrInvalidInput)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	company := &models.Company{
		Name:   in.CompanyName,
		Type:   in.CompanyType,
		Status: models.CompanyStatusActive,
		Plan:   models.PlanFree,
	}
	user := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		AuthProvider: models.ProviderLocal,
		Role:         models.RoleOwner,
	}
	session := &models.Session{}

	if err := s.store.CreateAccount(ctx, company, user, session); err != nil {
		return nil, err
	}
	s.logger.Info("account registered",
		zap.String("user_id", user.ID.String()),
		zap.String("company_id", company.ID.String()))

	return s.buildResult(ctx, user, session, true)
}

// Login authenticates local credentials and opens a new session scoped to
// the user's home company.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || user.AuthProvider != models.ProviderLocal || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, user, false)
}

// SocialLogin verifies the provider token, then either logs the matching
// account in or provisions a new one. An email already registered under a
// different provider is rejected, not merged.
func (s *Service) SocialLogin(ctx context.Context, in SocialInput) (*AuthResult, error) {
	verifier, ok := s.providers[in.Provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	identity, err := verifier.Verify(ctx, in.ProviderToken)
	if err != nil {
		if errors.Is(err, ErrProviderToken) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderToken, err)
	}

	user, err := s.store.FindUserByEmail(ctx, identity.Email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if user.AuthProvider != in.Provider {
			return nil, ErrProviderMismatch
		}
		return s.openSession(ctx, user, false)
	}

	// First sign-in with this identity: provision like Register, minus the
	// password, tagged with the provider.
	if in.CompanySelection == CompanySelectionJoin {
		return nil, ErrJoinNotSupported
	}
	if in.CompanySelection != CompanySelectionCreate {
		return nil, fmt.Errorf("%w: unknown companySelection %q", ErrInvalidInput, in.CompanySelection)
	}
	if in.CompanyName == "" {
		return nil, fmt.Errorf("%w: company_name is required when creating a company", ErrInvalidInput)
	}
	if in.CompanyType == "" {
		in.CompanyType = models.CompanyTypeGeneralContractor
	}
	if !in.CompanyType.Valid() || in.CompanyType == models.CompanyTypePlatform {
		return nil, fmt.Errorf("%w: invalid company type", ErrInvalidInput)
	}

	company := &models.Company{
		Name:   in.CompanyName,
		Type:   in.CompanyType,
		Status: models.CompanyStatusActive,
		Plan:   models.PlanFree,
	}
	newUser := &models.User{
		FirstName:          identity.FirstName,
		LastName:           identity.LastName,
		Email:              identity.Email,
		AuthProvider:       in.Provider,
		ProviderExternalID: identity.ExternalID,
		Role:               models.RoleOwner,
	}
	session := &models.Session{}
	if err := s.store.CreateAccount(ctx, company, newUser, session); err != nil {
		return nil, err
	}
	s.logger.Info("social account registered",
		zap.String("user_id", newUser.ID.String()),
		zap.String("provider", string(in.Provider)))

	return s.buildResult(ctx, newUser, session, true)
}

// Refresh rotates the session's refresh generation and mints a new token
// pair. The access token reflects the session's current active company, so a
// company switch survives refreshes. Replay of a superseded refresh token
// revokes the whole session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.AdvanceGeneration(ctx, claims.SessionID, claims.Generation)
	if err != nil {
		switch {
		case errors.Is(err, sessions.ErrStaleGeneration):
			// Replay after rotation: the token leaked or the client is
			// misbehaving. Kill the session either way.
			if revokeErr := s.sessions.Revoke(ctx, claims.SessionID); revokeErr != nil {
				s.logger.Error("revoke after refresh reuse failed",
					zap.String("session_id", claims.SessionID.String()), zap.Error(revokeErr))
			}
			s.logger.Warn("stale refresh token reused, session revoked",
				zap.String("session_id", claims.SessionID.String()),
				zap.String("user_id", claims.UserID.String()))
			return nil, ErrStaleRefresh
		case errors.Is(err, sessions.ErrRevoked):
			return nil, ErrSessionRevoked
		case errors.Is(err, sessions.ErrNotFound):
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	user, err := s.store.FindUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	return s.tokens.MintPair(user, session)
}

// Logout revokes the session. Idempotent; revoking an already-dead session
// succeeds so responses do not leak session state.
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessions.Revoke(ctx, sessionID)
}

// MeResult is the session-bearing identity view.
type MeResult struct {
	User               *models.User
	Company            *models.Company
	AvailableCompanies []models.Company
	ActiveCompanyID    uuid.UUID
}

// Me returns the current user, the session's active company, and the
// recomputed accessible-company set.
func (s *Service) Me(ctx context.Context, userID, sessionID uuid.UUID) (*MeResult, error) {
	session, err := s.getLiveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	available, err := s.resolver.AvailableCompanies(ctx, user)
	if err != nil {
		return nil, err
	}
	company := companyByID(available, session.ActiveCompanyID)
	if company == nil {
		return nil, fmt.Errorf("session %s active company %s not in available set", session.ID, session.ActiveCompanyID)
	}
	return &MeResult{
		User:               user,
		Company:            company,
		AvailableCompanies: available,
		ActiveCompanyID:    session.ActiveCompanyID,
	}, nil
}

// SwitchCompany re-points the session's active company after authorization.
func (s *Service) SwitchCompany(ctx context.Context, userID, sessionID, target uuid.UUID) (*models.Company, error) {
	if _, err := s.getLiveSession(ctx, sessionID); err != nil {
		return nil, err
	}
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	company, err := s.resolver.AuthorizeSwitch(ctx, user, target)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SetActiveCompany(ctx, sessionID, company.ID); err != nil {
		return nil, err
	}
	s.logger.Info("active company switched",
		zap.String("session_id", sessionID.String()),
		zap.String("company_id", company.ID.String()))
	return company, nil
}

// openSession creates a session at the user's home company and builds the
// auth result. Every login creates a fresh, independently revocable session.
func (s *Service) openSession(ctx context.Context, user *models.User, created bool) (*AuthResult, error) {
	session, err := s.sessions.Create(ctx, user.ID, user.CompanyID)
	if err != nil {
		return nil, err
	}
	return s.buildResult(ctx, user, session, created)
}

func (s *Service) buildResult(ctx context.Context, user *models.User, session *models.Session, created bool) (*AuthResult, error) {
	pair, err := s.tokens.MintPair(user, session)
	if err != nil {
		return nil, err
	}
	available, err := s.resolver.AvailableCompanies(ctx, user)
	if err != nil {
		return nil, err
	}
	company := companyByID(available, session.ActiveCompanyID)
	if company == nil {
		return nil, fmt.Errorf("session %s active company %s not in available set", session.ID, session.ActiveCompanyID)
	}
	return &AuthResult{
		Tokens:             pair,
		User:               user,
		Company:            company,
		AvailableCompanies: available,
		ActiveCompanyID:    session.ActiveCompanyID,
		Created:            created,
	}, nil
}

func (s *Service) getLiveSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	session, err := s.sessions.GetActive(ctx, id)
	switch {
	case errors.Is(err, sessions.ErrRevoked):
		return nil, ErrSessionRevoked
	case errors.Is(err, sessions.ErrNotFound):
		return nil, ErrInvalidToken
	case err != nil:
		return nil, err
	}
	return session, nil
}

func companyByID(list []models.Company, id uuid.UUID) *models.Company {
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}
