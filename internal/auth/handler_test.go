package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sitebooks/backend/internal/middleware"
	"github.com/sitebooks/backend/internal/models"
	"github.com/sitebooks/backend/internal/tenants"
	"github.com/sitebooks/backend/pkg/utils"
)

// newTestRouter wires the auth routes the way cmd/server does, over the
// in-memory backend.
func newTestRouter(t *testing.T, backend *fakeBackend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, _ := newTestService(backend, nil)
	handler := NewHandler(svc, zap.NewNop())
	tenantHandler := tenants.NewHandler(backend)

	router := gin.New()
	router.POST("/auth/register", handler.Register)
	router.POST("/auth/login", handler.Login)
	router.POST("/auth/social", handler.SocialLogin)
	router.POST("/auth/refresh", handler.Refresh)
	router.POST("/auth/logout", handler.Logout)

	api := router.Group("")
	api.Use(middleware.Auth(handler.Authenticate))
	api.GET("/auth/me", handler.Me)
	api.POST("/auth/switch-company", handler.SwitchCompany)
	api.GET("/tenants", middleware.RequirePlatformAdmin(), tenantHandler.List)
	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func registerBody(email string) gin.H {
	return gin.H{
		"first_name":        "Nova",
		"last_name":         "Reyes",
		"email":             email,
		"password":          "correct-horse-9",
		"company_selection": "create",
		"company_name":      "New Tenant Builders",
	}
}

type authPayload struct {
	Tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"tokens"`
	User               models.UserPublic `json:"user"`
	Company            models.Company    `json:"company"`
	AvailableCompanies []models.Company  `json:"available_companies"`
	ActiveCompanyID    uuid.UUID         `json:"active_company_id"`
}

func decodeAuth(t *testing.T, env envelope) authPayload {
	t.Helper()
	var p authPayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		router := newTestRouter(t, newFakeBackend())
		w, env := doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("nova@newtenant.dev"))
		require.Equal(t, http.StatusCreated, w.Code)

		p := decodeAuth(t, env)
		require.Equal(t, models.RoleOwner, p.User.Role)
		require.Equal(t, p.Company.ID, p.ActiveCompanyID)
		require.NotEmpty(t, p.Tokens.AccessToken)
		require.NotEmpty(t, p.Tokens.RefreshToken)
		require.Len(t, p.AvailableCompanies, 1)
	})

	t.Run("missing fields", func(t *testing.T) {
		router := newTestRouter(t, newFakeBackend())
		w, _ := doJSON(t, router, http.MethodPost, "/auth/register", "", gin.H{"email": "x@y.dev"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing company name for create", func(t *testing.T) {
		router := newTestRouter(t, newFakeBackend())
		body := registerBody("nocompany@example.com")
		delete(body, "company_name")
		w, _ := doJSON(t, router, http.MethodPost, "/auth/register", "", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		router := newTestRouter(t, newFakeBackend())
		w, _ := doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("dup@example.com"))
		require.Equal(t, http.StatusCreated, w.Code)
		w, env := doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("dup@example.com"))
		require.Equal(t, http.StatusConflict, w.Code)
		require.False(t, env.Success)
	})
}

func TestLoginEndpoint(t *testing.T) {
	router := newTestRouter(t, newFakeBackend())
	_, _ = doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("owner@builders.dev"))

	t.Run("ok", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
			"email": "owner@builders.dev", "password": "correct-horse-9",
		})
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad credentials", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
			"email": "owner@builders.dev", "password": "nope",
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLogoutAndMeEndpoints(t *testing.T) {
	router := newTestRouter(t, newFakeBackend())
	_, env := doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("me@example.com"))
	p := decodeAuth(t, env)

	t.Run("me without token", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodGet, "/auth/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("me with malformed token", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodGet, "/auth/me", "not-a-jwt", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("me then logout then me", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodGet, "/auth/me", p.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = doJSON(t, router, http.MethodPost, "/auth/logout", p.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		// The token has not expired, but the session is gone.
		w, _ = doJSON(t, router, http.MethodGet, "/auth/me", p.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("repeated logout with the same token stays 204", func(t *testing.T) {
		// A second logout must not reveal that the session is already gone.
		w, _ := doJSON(t, router, http.MethodPost, "/auth/logout", p.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusNoContent, w.Code)
		w, _ = doJSON(t, router, http.MethodPost, "/auth/logout", p.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("logout with unverifiable token", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/auth/logout", "not-a-jwt", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		w, _ = doJSON(t, router, http.MethodPost, "/auth/logout", "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	router := newTestRouter(t, newFakeBackend())
	_, env := doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("fresh@example.com"))
	p := decodeAuth(t, env)

	t.Run("garbage token", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": "junk"})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rotate then replay", func(t *testing.T) {
		w, env := doJSON(t, router, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": p.Tokens.RefreshToken})
		require.Equal(t, http.StatusOK, w.Code)
		var data struct {
			Tokens struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
			} `json:"tokens"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.NotEqual(t, p.Tokens.RefreshToken, data.Tokens.RefreshToken)

		// Replay of the superseded token kills the session.
		w, _ = doJSON(t, router, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": p.Tokens.RefreshToken})
		require.Equal(t, http.StatusUnauthorized, w.Code)

		// The rotated pair died with it.
		w, _ = doJSON(t, router, http.MethodGet, "/auth/me", data.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestTenantEndpoints(t *testing.T) {
	backend := newFakeBackend()
	router := newTestRouter(t, backend)

	hash, err := utils.HashPassword("platform-pass-1")
	require.NoError(t, err)
	platformCo, _ := seedPlatform(backend, "root@platform.dev", hash)

	_, env := doJSON(t, router, http.MethodPost, "/auth/register", "", registerBody("owner@tenant.dev"))
	tenantUser := decodeAuth(t, env)

	_, env = doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
		"email": "root@platform.dev", "password": "platform-pass-1",
	})
	admin := decodeAuth(t, env)
	require.Equal(t, platformCo.ID, admin.ActiveCompanyID)

	t.Run("list tenants requires platform role", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodGet, "/tenants", tenantUser.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusForbidden, w.Code)

		w, env := doJSON(t, router, http.MethodGet, "/tenants", admin.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var companies []models.Company
		require.NoError(t, json.Unmarshal(env.Data, &companies))
		require.Len(t, companies, 2)
	})

	t.Run("platform role without owner flag is refused", func(t *testing.T) {
		staffHash, err := utils.HashPassword("staff-pass-1")
		require.NoError(t, err)
		backend.mu.Lock()
		staff := &models.User{
			ID:           uuid.New(),
			CompanyID:    platformCo.ID,
			FirstName:    "Ona",
			LastName:     "Staff",
			Email:        "staff@platform.dev",
			PasswordHash: staffHash,
			AuthProvider: models.ProviderLocal,
			Role:         models.RolePrincipalAdmin,
		}
		backend.users[staff.ID] = staff
		backend.mu.Unlock()

		_, env := doJSON(t, router, http.MethodPost, "/auth/login", "", gin.H{
			"email": "staff@platform.dev", "password": "staff-pass-1",
		})
		staffAuth := decodeAuth(t, env)

		w, _ := doJSON(t, router, http.MethodGet, "/tenants", staffAuth.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("regular user cannot switch to a foreign company", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/auth/switch-company", tenantUser.Tokens.AccessToken,
			gin.H{"company_id": platformCo.ID})
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("platform admin switch unknown company", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/auth/switch-company", admin.Tokens.AccessToken,
			gin.H{"company_id": uuid.New()})
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("platform admin switch persists until next switch", func(t *testing.T) {
		w, env := doJSON(t, router, http.MethodPost, "/auth/switch-company", admin.Tokens.AccessToken,
			gin.H{"company_id": tenantUser.Company.ID})
		require.Equal(t, http.StatusOK, w.Code)
		var data struct {
			Company         models.Company `json:"company"`
			ActiveCompanyID uuid.UUID      `json:"active_company_id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Equal(t, tenantUser.Company.ID, data.ActiveCompanyID)

		w, env = doJSON(t, router, http.MethodGet, "/auth/me", admin.Tokens.AccessToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var me struct {
			ActiveCompanyID uuid.UUID `json:"active_company_id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &me))
		require.Equal(t, tenantUser.Company.ID, me.ActiveCompanyID)
	})
}
