package lead

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fforsikring/prisberegner/internal/dto"
	"github.com/fforsikring/prisberegner/internal/registry"
	"github.com/fforsikring/prisberegner/internal/validate"
)

// HookPayload is the enriched lead document forwarded to the webhook.
type HookPayload struct {
	CVR         string            `json:"cvr"`
	Phone       string            `json:"phone"`
	Total       int               `json:"total"`
	Roles       []string          `json:"roles"`
	Virk        *registry.Company `json:"virk"`
	Page        string            `json:"page"`
	Referrer    string            `json:"referrer"`
	UTMSource   string            `json:"utm_source"`
	UTMMedium   string            `json:"utm_medium"`
	UTMCampaign string            `json:"utm_campaign"`
	UTMTerm     string            `json:"utm_term"`
	UTMContent  string            `json:"utm_content"`
	TS          int64             `json:"ts"`
	UserAgent   string            `json:"user_agent"`
	IP          string            `json:"ip"`
}

// RequestMeta carries the transport-level context a lead is enriched with.
type RequestMeta struct {
	UserAgent string
	Referer   string
	IP        string
	Now       time.Time
}

// BuildPayload assembles the hook document from a validated lead request.
// cvr and phone must already be normalized eight-digit strings; the phone
// is forwarded in the human-readable "+45 XX XX XX XX" shape.
func BuildPayload(req dto.LeadRequest, cvr, phone string, meta RequestMeta) HookPayload {
	referrer := meta.Referer
	if referrer == "" {
		referrer = req.Referrer
	}

	virk := req.Virk
	if virk == nil {
		virk = &registry.Company{}
	}

	ts := req.TS
	if ts == 0 {
		now := meta.Now
		if now.IsZero() {
			now = time.Now()
		}
		ts = now.UnixMilli()
	}

	roles := req.Roles
	if roles == nil {
		roles = []string{}
	}

	return HookPayload{
		CVR:         cvr,
		Phone:       validate.FormatDanishPhone(phone),
		Total:       req.Total,
		Roles:       roles,
		Virk:        virk,
		Page:        req.Page,
		Referrer:    referrer,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		UTMTerm:     req.UTMTerm,
		UTMContent:  req.UTMContent,
		TS:          ts,
		UserAgent:   meta.UserAgent,
		IP:          meta.IP,
	}
}

// HookPoster forwards assembled lead payloads to the downstream webhook.
type HookPoster interface {
	Forward(ctx context.Context, payload HookPayload) error
}

// HookClient posts lead payloads to a configured webhook URL.
type HookClient struct {
	client  *http.Client
	hookURL string
}

// NewHookClient builds the webhook client. The hook URL comes from
// configuration; an empty URL is rejected at the handler level so the
// client can assume it is set.
func NewHookClient(client *http.Client, hookURL string) *HookClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HookClient{client: client, hookURL: hookURL}
}

// Forward posts the payload and reports any non-2xx response as an error
// carrying the upstream status and a body snippet.
func (c *HookClient) Forward(ctx context.Context, payload HookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal hook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.hookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create hook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("hook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("hook returned status %d: %s", resp.StatusCode, snippet(resp.Body))
	}
	return nil
}

func snippet(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 500))
	if err != nil || len(data) == 0 {
		return "no response body"
	}
	return strings.TrimSpace(string(data))
}

var _ HookPoster = (*HookClient)(nil)
