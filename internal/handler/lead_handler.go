package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fforsikring/prisberegner/internal/dto"
	"github.com/fforsikring/prisberegner/internal/lead"
	"github.com/fforsikring/prisberegner/internal/validate"
)

// LeadArchiver stores accepted leads so a webhook outage never loses a
// contact request. Implementations must tolerate concurrent calls.
type LeadArchiver interface {
	Archive(ctx context.Context, payload lead.HookPayload) error
}

// LeadHandler accepts widget lead submissions and relays them to the
// configured webhook. Like the CVR proxy it speaks the fixed raw
// contract, not the shared envelope.
type LeadHandler struct {
	poster  lead.HookPoster
	archive LeadArchiver
}

// NewLeadHandler constructs a LeadHandler. A nil poster means no hook
// URL is configured; submissions are rejected until one is set.
func NewLeadHandler(poster lead.HookPoster, archive LeadArchiver) *LeadHandler {
	return &LeadHandler{poster: poster, archive: archive}
}

// Submit handles POST /api/lead requests.
func (h *LeadHandler) Submit(c echo.Context) error {
	if h.poster == nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "missing_config"})
	}

	var req dto.LeadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_json"})
	}

	phone := validate.NormalizeDanishPhone(req.Phone)
	if !validate.ValidPhone(phone) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_phone"})
	}

	cvr := validate.CleanCVR(req.CVR)
	if !validate.ValidCVR(cvr) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_cvr"})
	}

	meta := lead.RequestMeta{
		UserAgent: c.Request().UserAgent(),
		Referer:   c.Request().Referer(),
		IP:        c.RealIP(),
	}
	payload := lead.BuildPayload(req, cvr, phone, meta)

	if err := h.poster.Forward(c.Request().Context(), payload); err != nil {
		log.Printf("lead hook forward failed: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "hook_failed"})
	}

	if h.archive != nil {
		if err := h.archive.Archive(c.Request().Context(), payload); err != nil {
			log.Printf("lead archive failed for cvr=%s: %v", payload.CVR, err)
		}
	}

	return c.JSON(http.StatusOK, dto.LeadResponse{OK: true})
}
