package tenants

import (
	"github.com/gin-gonic/gin"

	"github.com/sitebooks/backend/pkg/response"
)

// Handler handles tenant HTTP endpoints.
type Handler struct {
	catalog Catalog
}

// NewHandler creates a tenants handler.
func NewHandler(catalog Catalog) *Handler {
	return &Handler{catalog: catalog}
}

// List handles GET /tenants. Platform-privileged only; the route guard
// rejects everyone else before this runs.
func (h *Handler) List(c *gin.Context) {
	companies, err := h.catalog.ListCompanies(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list tenants")
		return
	}
	response.OK(c, companies)
}
