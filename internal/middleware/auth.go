package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sitebooks/backend/internal/models"
	"github.com/sitebooks/backend/pkg/response"
)

const (
	// ContextUserID is the key for the authenticated user id in gin context.
	ContextUserID = "user_id"
	// ContextSessionID is the key for the session id in gin context.
	ContextSessionID = "session_id"
	// ContextCompanyID is the key for the session's active company id. This
	// comes from the session row, not the token, so a company switch is
	// effective on the very next request.
	ContextCompanyID = "company_id"
	// ContextUserRole is the key for the user role in gin context.
	ContextUserRole = "user_role"
	// ContextPlatformOwner is the key for the platform-owner flag.
	ContextPlatformOwner = "platform_owner"
)

// Principal is the authenticated caller as resolved from a bearer token plus
// the session registry.
type Principal struct {
	UserID          uuid.UUID
	SessionID       uuid.UUID
	ActiveCompanyID uuid.UUID
	Role            models.Role
	IsPlatformOwner bool
}

// AuthFunc verifies a bearer token and checks that its session is still
// live. It returns an error for malformed, expired, or revoked credentials.
type AuthFunc func(ctx context.Context, token string) (*Principal, error)

// Auth returns a middleware that authenticates the request and sets the
// principal in the gin context.
func Auth(authenticate AuthFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		principal, err := authenticate(c.Request.Context(), parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, principal.UserID)
		c.Set(ContextSessionID, principal.SessionID)
		c.Set(ContextCompanyID, principal.ActiveCompanyID)
		c.Set(ContextUserRole, principal.Role)
		c.Set(ContextPlatformOwner, principal.IsPlatformOwner)
		c.Next()
	}
}

// RequirePlatformAdmin allows only platform-privileged principals: both the
// platform-owner flag and a cross-tenant role must hold, matching the tenant
// resolver's rule. Must run after Auth.
func RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextUserRole)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		role, _ := roleVal.(models.Role)
		if !c.GetBool(ContextPlatformOwner) || !role.CanActAcrossTenants() {
			response.Forbidden(c, "platform administrator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
