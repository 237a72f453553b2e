package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitebooks/backend/internal/middleware"
	"github.com/sitebooks/backend/internal/models"
	"github.com/sitebooks/backend/internal/tenants"
	"github.com/sitebooks/backend/pkg/response"
)

// Handler handles auth HTTP endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Authenticate is the middleware.AuthFunc for protected routes: it verifies
// the access token and confirms the session is still live, resolving the
// active company from the session row rather than the token claim.
func (h *Handler) Authenticate(ctx context.Context, token string) (*middleware.Principal, error) {
	claims, err := h.service.tokens.VerifyAccess(token)
	if err != nil {
		return nil, err
	}
	session, err := h.service.getLiveSession(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	return &middleware.Principal{
		UserID:          claims.UserID,
		SessionID:       session.ID,
		ActiveCompanyID: session.ActiveCompanyID,
		Role:            models.Role(claims.Role),
		IsPlatformOwner: claims.PlatformOwner,
	}, nil
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	FirstName        string `json:"first_name" binding:"required"`
	LastName         string `json:"last_name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=8"`
	CompanySelection string `json:"company_selection" binding:"required"`
	CompanyName      string `json:"company_name"`
	CompanyType      string `json:"company_type"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SocialLoginRequest is the body for POST /auth/social.
type SocialLoginRequest struct {
	Provider         string `json:"provider" binding:"required"`
	ProviderToken    string `json:"provider_token" binding:"required"`
	CompanySelection string `json:"company_selection"`
	CompanyName      string `json:"company_name"`
	CompanyType      string `json:"company_type"`
}

// RefreshRequest is the body for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SwitchCompanyRequest is the body for POST /auth/switch-company.
type SwitchCompanyRequest struct {
	CompanyID uuid.UUID `json:"company_id" binding:"required"`
}

// AuthResponse is the session-bearing response for register/login/social.
type AuthResponse struct {
	Tokens             *TokenPair        `json:"tokens"`
	User               models.UserPublic `json:"user"`
	Company            *models.Company   `json:"company"`
	AvailableCompanies []models.Company  `json:"available_companies"`
	ActiveCompanyID    uuid.UUID         `json:"active_company_id"`
}

func toAuthResponse(r *AuthResult) AuthResponse {
	return AuthResponse{
		Tokens:             r.Tokens,
		User:               r.User.ToPublic(),
		Company:            r.Company,
		AvailableCompanies: r.AvailableCompanies,
		ActiveCompanyID:    r.ActiveCompanyID,
	}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.CompanySelection == CompanySelectionCreate && req.CompanyName == "" {
		response.BadRequest(c, "company_name is required when creating a company")
		return
	}

	result, err := h.service.Register(c.Request.Context(), RegisterInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Password:         req.Password,
		CompanySelection: req.CompanySelection,
		CompanyName:      req.CompanyName,
		CompanyType:      models.CompanyType(req.CompanyType),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Created(c, toAuthResponse(result))
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, toAuthResponse(result))
}

// SocialLogin handles POST /auth/social. Responds 201 when a new account was
// provisioned, 200 for an existing one.
func (h *Handler) SocialLogin(c *gin.Context) {
	var req SocialLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	result, err := h.service.SocialLogin(c.Request.Context(), SocialInput{
		Provider:         models.AuthProvider(req.Provider),
		ProviderToken:    req.ProviderToken,
		CompanySelection: req.CompanySelection,
		CompanyName:      req.CompanyName,
		CompanyType:      models.CompanyType(req.CompanyType),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if result.Created {
		response.Created(c, toAuthResponse(result))
		return
	}
	response.OK(c, toAuthResponse(result))
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	pair, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, gin.H{"tokens": pair})
}

// Logout handles POST /auth/logout. It verifies the bearer token itself
// instead of going through the session-liveness middleware: revocation is
// idempotent and the response must not reveal whether the session was still
// live, so any well-formed, untampered token gets 204. 401 only for tokens
// that cannot be verified at all.
func (h *Handler) Logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		response.Unauthorized(c, "missing or invalid authorization header")
		return
	}
	claims, err := h.service.tokens.VerifyAccess(token)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.service.Logout(c.Request.Context(), claims.SessionID); err != nil {
		h.respondError(c, err)
		return
	}
	response.NoContent(c)
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	sessionID := c.MustGet(middleware.ContextSessionID).(uuid.UUID)
	result, err := h.service.Me(c.Request.Context(), userID, sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, gin.H{
		"user":                result.User.ToPublic(),
		"company":             result.Company,
		"available_companies": result.AvailableCompanies,
		"active_company_id":   result.ActiveCompanyID,
	})
}

// SwitchCompany handles POST /auth/switch-company.
func (h *Handler) SwitchCompany(c *gin.Context) {
	var req SwitchCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	sessionID := c.MustGet(middleware.ContextSessionID).(uuid.UUID)
	company, err := h.service.SwitchCompany(c.Request.Context(), userID, sessionID, req.CompanyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.OK(c, gin.H{
		"company":           company,
		"active_company_id": company.ID,
	})
}

// respondError maps service sentinels to HTTP statuses. Anything unmatched is
// an internal failure and is reported as such, never as a client error.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrProviderMismatch):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrStaleRefresh), errors.Is(err, ErrSessionRevoked),
		errors.Is(err, ErrProviderToken):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrJoinNotSupported),
		errors.Is(err, ErrUnknownProvider):
		response.BadRequest(c, err.Error())
	case errors.Is(err, tenants.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, tenants.ErrCompanyNotFound):
		response.NotFound(c, err.Error())
	default:
		h.logger.Error("auth request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Internal(c, "internal error")
	}
}
