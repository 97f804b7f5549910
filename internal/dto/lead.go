package dto

import "github.com/fforsikring/prisberegner/internal/registry"

// LeadRequest is the JSON body posted by the widget to /api/lead.
type LeadRequest struct {
	CVR         string            `json:"cvr"`
	Phone       string            `json:"phone"`
	Total       int               `json:"total"`
	Roles       []string          `json:"roles"`
	Virk        *registry.Company `json:"virk,omitempty"`
	Page        string            `json:"page"`
	Referrer    string            `json:"referrer"`
	UTMSource   string            `json:"utm_source"`
	UTMMedium   string            `json:"utm_medium"`
	UTMCampaign string            `json:"utm_campaign"`
	UTMTerm     string            `json:"utm_term"`
	UTMContent  string            `json:"utm_content"`
	TS          int64             `json:"ts"`
}

// LeadResponse is the fixed success body of /api/lead.
type LeadResponse struct {
	OK bool `json:"ok"`
}
