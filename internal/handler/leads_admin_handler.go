package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fforsikring/prisberegner/internal/service"
)

// LeadsAdminHandler exposes the archived lead list to portal admins.
type LeadsAdminHandler struct {
	archive *service.LeadArchive
}

// NewLeadsAdminHandler constructs a LeadsAdminHandler.
func NewLeadsAdminHandler(archive *service.LeadArchive) *LeadsAdminHandler {
	return &LeadsAdminHandler{archive: archive}
}

// List handles GET /admin/leads requests.
func (h *LeadsAdminHandler) List(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	leads, err := h.archive.List(c.Request().Context(), limit)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "unable to list leads")
	}

	return Success(c, http.StatusOK, "", leads)
}
