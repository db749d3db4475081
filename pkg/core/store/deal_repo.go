package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"hcre_deal_engine/pkg/core/intake"
)

// DealRepo persists deal files and their analysis output.
type DealRepo struct{}

// NewDealRepo creates a new repository instance.
func NewDealRepo() *DealRepo {
	return &DealRepo{}
}

// DealRecord is one stored deal with its latest analysis blob.
type DealRecord struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Deal      *intake.DealFile `json:"deal"`
	Analysis  json.RawMessage  `json:"analysis,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Save upserts a deal and its analysis keyed by deal ID.
// The analysis argument may be any JSON-marshalable result bundle.
//
// Schema assumption:
// CREATE TABLE IF NOT EXISTS deal_analysis (
//   deal_id TEXT PRIMARY KEY,
//   name TEXT,
//   deal_json JSONB,
//   analysis_json JSONB,
//   updated_at TIMESTAMPTZ
// );
func (r *DealRepo) Save(ctx context.Context, deal *intake.DealFile, analysis interface{}) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	dealJSON, err := json.Marshal(deal)
	if err != nil {
		return fmt.Errorf("failed to marshal deal: %w", err)
	}
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	query := `
		INSERT INTO deal_analysis (deal_id, name, deal_json, analysis_json, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (deal_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			deal_json = EXCLUDED.deal_json,
			analysis_json = EXCLUDED.analysis_json,
			updated_at = EXCLUDED.updated_at;
	`

	_, err = pool.Exec(ctx, query, deal.ID, deal.Name, dealJSON, analysisJSON, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save deal: %w", err)
	}
	return nil
}

// Load retrieves a stored deal and its analysis by ID.
func (r *DealRepo) Load(ctx context.Context, dealID string) (*DealRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `SELECT name, deal_json, analysis_json, updated_at FROM deal_analysis WHERE deal_id = $1`

	var rec DealRecord
	var dealJSON []byte
	err := pool.QueryRow(ctx, query, dealID).Scan(&rec.Name, &dealJSON, &rec.Analysis, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("no deal found for id %s", dealID)
		}
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	rec.ID = dealID

	if err := json.Unmarshal(dealJSON, &rec.Deal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deal data: %w", err)
	}
	return &rec, nil
}

// List returns the stored deals, newest first, without their analysis
// blobs.
func (r *DealRepo) List(ctx context.Context, limit int) ([]DealRecord, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT deal_id, name, updated_at FROM deal_analysis ORDER BY updated_at DESC LIMIT $1`
	rows, err := pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}
	defer rows.Close()

	var out []DealRecord
	for rows.Next() {
		var rec DealRecord
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deal row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes a stored deal.
func (r *DealRepo) Delete(ctx context.Context, dealID string) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	_, err := pool.Exec(ctx, `DELETE FROM deal_analysis WHERE deal_id = $1`, dealID)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	return nil
}
