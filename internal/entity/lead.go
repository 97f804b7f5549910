package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Lead is an archived contact request. The archive exists because the
// widget submits fire-and-forget: when the downstream hook misbehaves,
// the row here is what sales follows up from.
type Lead struct {
	ID          uuid.UUID       `json:"id"`
	CVR         string          `json:"cvr"`
	Phone       string          `json:"phone"`
	Total       int             `json:"total"`
	Roles       []string        `json:"roles"`
	Company     json.RawMessage `json:"company"`
	Page        *string         `json:"page,omitempty"`
	Referrer    *string         `json:"referrer,omitempty"`
	UTMSource   *string         `json:"utm_source,omitempty"`
	UTMMedium   *string         `json:"utm_medium,omitempty"`
	UTMCampaign *string         `json:"utm_campaign,omitempty"`
	UserAgent   *string         `json:"user_agent,omitempty"`
	IP          *string         `json:"ip,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	CreatedAt   time.Time       `json:"created_at"`
}
