package dto

import (
	"github.com/fforsikring/prisberegner/internal/pricing"
	"github.com/fforsikring/prisberegner/internal/registry"
	"github.com/fforsikring/prisberegner/internal/wizard"
)

// CVRInputRequest carries the raw CVR field text for a wizard session.
type CVRInputRequest struct {
	Input string `json:"input"`
}

// CountRequest changes the number of employee slots.
type CountRequest struct {
	Count int `json:"count"`
}

// RoleRequest writes a role selection into one employee slot.
type RoleRequest struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// RetreatRequest moves the wizard back to an earlier step.
type RetreatRequest struct {
	To int `json:"to"`
}

// SubmitRequest finalizes the wizard with the visitor's phone number and
// page attribution.
type SubmitRequest struct {
	Phone       string `json:"phone"`
	Page        string `json:"page"`
	Referrer    string `json:"referrer"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`
}

// WizardSnapshot is the session state returned by every wizard endpoint,
// together with the frame messages buffered since the previous call.
type WizardSnapshot struct {
	SessionID     string                `json:"session_id,omitempty"`
	Step          int                   `json:"step"`
	Calculating   bool                  `json:"calculating"`
	CVR           string                `json:"cvr"`
	Company       *registry.Company     `json:"company,omitempty"`
	CompanyNotice string                `json:"company_notice,omitempty"`
	EmployeeCount int                   `json:"employee_count"`
	Roles         []string              `json:"roles"`
	Breakdown     []pricing.Row         `json:"breakdown,omitempty"`
	Total         int                   `json:"total"`
	TotalDisplay  string                `json:"total_display"`
	Submitted     bool                  `json:"submitted"`
	Messages      []wizard.FrameMessage `json:"messages,omitempty"`
}
