package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fforsikring/prisberegner/internal/registry"
	"github.com/fforsikring/prisberegner/internal/validate"
)

// CVRHandler proxies company registry lookups for the widget. The
// response bodies are a fixed contract consumed by embedded frontends;
// do not wrap them in the shared envelope.
type CVRHandler struct {
	lookup registry.Lookup
}

// NewCVRHandler constructs a CVRHandler.
func NewCVRHandler(lookup registry.Lookup) *CVRHandler {
	return &CVRHandler{lookup: lookup}
}

// Lookup handles GET /api/cvr?cvr=... requests.
func (h *CVRHandler) Lookup(c echo.Context) error {
	digits := validate.CleanCVR(c.QueryParam("cvr"))
	if !validate.ValidCVR(digits) {
		c.Response().Header().Set("Cache-Control", "no-store")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_cvr"})
	}

	company, err := h.lookup.LookupCVR(c.Request().Context(), digits)
	if err != nil {
		c.Response().Header().Set("Cache-Control", "no-store")
		if errors.Is(err, registry.ErrQuotaExceeded) {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "quota_exceeded"})
		}
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "upstream"})
	}

	// Successful lookups are stable for days upstream; let shared
	// proxies keep them for a few minutes.
	c.Response().Header().Set("Cache-Control", "public, max-age=300")
	return c.JSON(http.StatusOK, company)
}
