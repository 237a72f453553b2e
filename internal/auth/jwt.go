package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sitebooks/backend/internal/models"
)

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// Claims holds JWT claims for both token kinds. Access tokens carry the
// principal and its active company; refresh tokens carry the session's
// refresh generation instead.
type Claims struct {
	UserID        uuid.UUID `json:"user_id"`
	SessionID     uuid.UUID `json:"session_id"`
	CompanyID     uuid.UUID `json:"company_id,omitempty"`
	Role          string    `json:"role,omitempty"`
	PlatformOwner bool      `json:"platform_owner,omitempty"`
	Generation    int       `json:"generation"`
	TokenUse      string    `json:"token_use"`
	jwt.RegisteredClaims
}

// TokenPair is a freshly minted access/refresh token pair.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"` // access token expiry
}

// JWTService mints and verifies access and refresh tokens. The signing key is
// injected once at construction; there is no ambient signing state.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) *JWTService {
	return &JWTService{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// RefreshTTL returns the refresh token lifetime. The session registry sizes
// its revocation markers from it.
func (s *JWTService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// MintAccess creates an access token for the user over the session's current
// active company. Verification is stateless apart from the session liveness
// check done by the caller.
func (s *JWTService) MintAccess(user *models.User, session *models.Session) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(s.accessTTL)
	claims := Claims{
		UserID:        user.ID,
		SessionID:     session.ID,
		CompanyID:     session.ActiveCompanyID,
		Role:          string(user.Role),
		PlatformOwner: user.IsPlatformOwner,
		TokenUse:      tokenUseAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	return signed, expires, err
}

// MintRefresh creates a refresh token bound to the session's current
// generation. Presenting it after the generation advances is treated as
// replay.
func (s *JWTService) MintRefresh(session *models.Session) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:     session.UserID,
		SessionID:  session.ID,
		Generation: session.RefreshGeneration,
		TokenUse:   tokenUseRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// MintPair creates both tokens for the session.
func (s *JWTService) MintPair(user *models.User, session *models.Session) (*TokenPair, error) {
	access, expires, err := s.MintAccess(user, session)
	if err != nil {
		return nil, err
	}
	refresh, err := s.MintRefresh(session)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expires}, nil
}

// VerifyAccess parses and validates an access token.
func (s *JWTService) VerifyAccess(tokenString string) (*Claims, error) {
	return s.verify(tokenString, tokenUseAccess)
}

// VerifyRefresh parses and validates a refresh token.
func (s *JWTService) VerifyRefresh(tokenString string) (*Claims, error) {
	return s.verify(tokenString, tokenUseRefresh)
}

func (s *JWTService) verify(tokenString, use string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenUse != use {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
