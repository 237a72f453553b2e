package clients

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitebooks/backend/internal/middleware"
	"github.com/sitebooks/backend/internal/models"
	"github.com/sitebooks/backend/pkg/response"
)

// Handler handles client HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a clients handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// ClientRequest is the body for creating or updating a client.
type ClientRequest struct {
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

func activeCompany(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextCompanyID).(uuid.UUID)
}

// List handles GET /clients.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListByCompany(c.Request.Context(), activeCompany(c))
	if err != nil {
		h.logger.Error("list clients", zap.Error(err))
		response.Internal(c, "failed to list clients")
		return
	}
	response.OK(c, list)
}

// Create handles POST /clients.
func (h *Handler) Create(c *gin.Context) {
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cl := &models.Client{
		CompanyID:   activeCompany(c),
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Notes:       req.Notes,
	}
	if err := h.repo.Create(c.Request.Context(), cl); err != nil {
		h.logger.Error("create client", zap.Error(err))
		response.Internal(c, "failed to create client")
		return
	}
	response.Created(c, cl)
}

// Get handles GET /clients/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid client id")
		return
	}
	cl, err := h.repo.GetByID(c.Request.Context(), activeCompany(c), id)
	if err != nil {
		h.logger.Error("get client", zap.Error(err))
		response.Internal(c, "failed to load client")
		return
	}
	if cl == nil {
		response.NotFound(c, "client not found")
		return
	}
	response.OK(c, cl)
}

// Update handles PATCH /clients/:id.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid client id")
		return
	}
	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cl := &models.Client{
		ID:          id,
		CompanyID:   activeCompany(c),
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Notes:       req.Notes,
	}
	updated, err := h.repo.Update(c.Request.Context(), cl)
	if err != nil {
		h.logger.Error("update client", zap.Error(err))
		response.Internal(c, "failed to update client")
		return
	}
	if updated == nil {
		response.NotFound(c, "client not found")
		return
	}
	response.OK(c, updated)
}

// Delete handles DELETE /clients/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid client id")
		return
	}
	ok, err := h.repo.Delete(c.Request.Context(), activeCompany(c), id)
	if err != nil {
		h.logger.Error("delete client", zap.Error(err))
		response.Internal(c, "failed to delete client")
		return
	}
	if !ok {
		response.NotFound(c, "client not found")
		return
	}
	response.NoContent(c)
}
