package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fforsikring/prisberegner/internal/entity"
	"github.com/fforsikring/prisberegner/internal/lead"
	"github.com/fforsikring/prisberegner/internal/repository"
)

// LeadArchive persists accepted leads next to the fire-and-forget hook
// forwarding, so a hook outage never loses a contact request for good.
type LeadArchive struct {
	repo repository.LeadsRepository
}

// NewLeadArchive builds the archive service.
func NewLeadArchive(repo repository.LeadsRepository) *LeadArchive {
	return &LeadArchive{repo: repo}
}

// Archive stores a forwarded hook payload as a lead row.
func (s *LeadArchive) Archive(ctx context.Context, payload lead.HookPayload) error {
	company, err := json.Marshal(payload.Virk)
	if err != nil {
		company = json.RawMessage("{}")
	}

	row := &entity.Lead{
		CVR:         payload.CVR,
		Phone:       payload.Phone,
		Total:       payload.Total,
		Roles:       payload.Roles,
		Company:     company,
		Page:        optional(payload.Page),
		Referrer:    optional(payload.Referrer),
		UTMSource:   optional(payload.UTMSource),
		UTMMedium:   optional(payload.UTMMedium),
		UTMCampaign: optional(payload.UTMCampaign),
		UserAgent:   optional(payload.UserAgent),
		IP:          optional(payload.IP),
		SubmittedAt: time.UnixMilli(payload.TS),
	}

	return s.repo.Insert(ctx, row)
}

// List returns the newest archived leads.
func (s *LeadArchive) List(ctx context.Context, limit int) ([]entity.Lead, error) {
	return s.repo.List(ctx, limit)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
