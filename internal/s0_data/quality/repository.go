package quality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// ErrNotFound is returned when no snapshot matches
var ErrNotFound = errors.New("quality snapshot not found")

// Repository handles data quality snapshot persistence
// ⭐ SSOT: S0 품질 스냅샷 저장/조회
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new quality repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveSnapshot upserts a snapshot keyed by the panel's latest date
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *contracts.DataQualitySnapshot) error {
	coverage, err := json.Marshal(snapshot.Coverage)
	if err != nil {
		return fmt.Errorf("marshal coverage: %w", err)
	}
	issues, err := json.Marshal(nonNil(snapshot.Issues))
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}
	warnings, err := json.Marshal(nonNil(snapshot.Warnings))
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	query := `
		INSERT INTO ranking.quality_snapshots (
			latest_date, checked_at, source, total_rows, total_symbols,
			first_date, coverage, issues, warnings, passed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (latest_date) DO UPDATE SET
			checked_at = EXCLUDED.checked_at,
			source = EXCLUDED.source,
			total_rows = EXCLUDED.total_rows,
			total_symbols = EXCLUDED.total_symbols,
			first_date = EXCLUDED.first_date,
			coverage = EXCLUDED.coverage,
			issues = EXCLUDED.issues,
			warnings = EXCLUDED.warnings,
			passed = EXCLUDED.passed,
			updated_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		snapshot.LatestDate,
		snapshot.CheckedAt,
		snapshot.Source,
		snapshot.TotalRows,
		snapshot.TotalSymbols,
		snapshot.FirstDate,
		coverage,
		issues,
		warnings,
		snapshot.Passed(),
	)
	if err != nil {
		return fmt.Errorf("save quality snapshot: %w", err)
	}

	return nil
}

// GetByDate retrieves the snapshot for a panel whose latest date is date
func (r *Repository) GetByDate(ctx context.Context, date time.Time) (*contracts.DataQualitySnapshot, error) {
	query := selectSnapshot + ` WHERE latest_date = $1`
	return r.scanOne(ctx, query, date)
}

// GetLatest retrieves the most recent quality snapshot
func (r *Repository) GetLatest(ctx context.Context) (*contracts.DataQualitySnapshot, error) {
	query := selectSnapshot + ` ORDER BY latest_date DESC LIMIT 1`
	return r.scanOne(ctx, query)
}

const selectSnapshot = `
	SELECT
		latest_date, checked_at, COALESCE(source, ''), total_rows, total_symbols,
		first_date, coverage, issues, warnings
	FROM ranking.quality_snapshots`

func (r *Repository) scanOne(ctx context.Context, query string, args ...any) (*contracts.DataQualitySnapshot, error) {
	snapshot := &contracts.DataQualitySnapshot{}
	var coverage, issues, warnings []byte

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&snapshot.LatestDate,
		&snapshot.CheckedAt,
		&snapshot.Source,
		&snapshot.TotalRows,
		&snapshot.TotalSymbols,
		&snapshot.FirstDate,
		&coverage,
		&issues,
		&warnings,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quality snapshot: %w", err)
	}

	for _, f := range []struct {
		data []byte
		dst  any
	}{
		{coverage, &snapshot.Coverage},
		{issues, &snapshot.Issues},
		{warnings, &snapshot.Warnings},
	} {
		if len(f.data) == 0 {
			continue
		}
		if err := json.Unmarshal(f.data, f.dst); err != nil {
			return nil, fmt.Errorf("decode quality snapshot: %w", err)
		}
	}

	return snapshot, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
