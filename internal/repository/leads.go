package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fforsikring/prisberegner/internal/entity"
)

// ErrLeadNotFound is returned when no lead matches the lookup criteria.
var ErrLeadNotFound = errors.New("lead not found")

// LeadsRepository declares persistence operations for archived leads.
type LeadsRepository interface {
	Insert(ctx context.Context, lead *entity.Lead) error
	List(ctx context.Context, limit int) ([]entity.Lead, error)
	FindByID(ctx context.Context, id string) (*entity.Lead, error)
}

// PGXLeadsRepository implements LeadsRepository with pgx.
type PGXLeadsRepository struct {
	pool pgxPool
}

// NewPGXLeadsRepository instantiates a leads repository.
func NewPGXLeadsRepository(pool *pgxpool.Pool) *PGXLeadsRepository {
	return &PGXLeadsRepository{pool: pool}
}

const leadColumns = `id, cvr, phone, total, roles, company, page, referrer, utm_source, utm_medium, utm_campaign, user_agent, ip, submitted_at, created_at`

// Insert archives an accepted lead.
func (r *PGXLeadsRepository) Insert(ctx context.Context, lead *entity.Lead) error {
	if lead == nil {
		return fmt.Errorf("lead payload is nil")
	}

	company := lead.Company
	if len(company) == 0 {
		company = json.RawMessage("{}")
	}

	submittedAt := lead.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO leads (cvr, phone, total, roles, company, page, referrer, utm_source, utm_medium, utm_campaign, user_agent, ip, submitted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id, created_at
    `, lead.CVR, lead.Phone, lead.Total, lead.Roles, company,
		stringOrNil(lead.Page), stringOrNil(lead.Referrer),
		stringOrNil(lead.UTMSource), stringOrNil(lead.UTMMedium), stringOrNil(lead.UTMCampaign),
		stringOrNil(lead.UserAgent), stringOrNil(lead.IP), submittedAt)

	if err := row.Scan(&lead.ID, &lead.CreatedAt); err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	lead.SubmittedAt = submittedAt
	return nil
}

// List returns archived leads, newest first.
func (r *PGXLeadsRepository) List(ctx context.Context, limit int) ([]entity.Lead, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

// FindByID retrieves a single archived lead.
func (r *PGXLeadsRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)

	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("query lead by id: %w", err)
	}
	return lead, nil
}

func scanLeads(rows pgx.Rows) ([]entity.Lead, error) {
	var leads []entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead row: %w", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

func scanLead(row pgx.Row) (*entity.Lead, error) {
	var lead entity.Lead
	var raw []byte
	var page, referrer, utmSource, utmMedium, utmCampaign, userAgent, ip sql.NullString

	if err := row.Scan(&lead.ID, &lead.CVR, &lead.Phone, &lead.Total, &lead.Roles, &raw,
		&page, &referrer, &utmSource, &utmMedium, &utmCampaign, &userAgent, &ip,
		&lead.SubmittedAt, &lead.CreatedAt); err != nil {
		return nil, err
	}

	lead.Company = json.RawMessage(raw)
	lead.Page = nullableString(page)
	lead.Referrer = nullableString(referrer)
	lead.UTMSource = nullableString(utmSource)
	lead.UTMMedium = nullableString(utmMedium)
	lead.UTMCampaign = nullableString(utmCampaign)
	lead.UserAgent = nullableString(userAgent)
	lead.IP = nullableString(ip)
	return &lead, nil
}

func nullableString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func stringOrNil(value *string) any {
	if value == nil || *value == "" {
		return nil
	}
	return *value
}
