package predictions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/aegis-nse/internal/contracts"
)

// ErrNotFound is returned when no ranking exists for a horizon
var ErrNotFound = errors.New("no predictions found")

// Repository handles ranking and training run persistence
// ⭐ SSOT: 예측/학습 이력 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new predictions repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SavePredictions 호라이즌별 예측일 행을 교체 저장
// Skipped 호라이즌은 건드리지 않음
func (r *Repository) SavePredictions(ctx context.Context, rankings []contracts.HorizonRanking) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO ranking.predictions (
			horizon, pred_date, rank, symbol, close,
			delivery_pct, fii_net_ma5, dii_net_ma5, probability
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, h := range rankings {
		if h.Skipped != "" {
			continue
		}
		batch.Queue("DELETE FROM ranking.predictions WHERE horizon = $1 AND pred_date = $2", h.Horizon, h.Date)
		for _, p := range h.Predictions {
			batch.Queue(query,
				p.Horizon, p.Date, p.Rank, p.Symbol, p.Close,
				p.DeliveryPct, p.FIINetMA5, p.DIINetMA5, p.Probability,
			)
		}
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save predictions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Latest 호라이즌의 가장 최근 저장 랭킹
func (r *Repository) Latest(ctx context.Context, horizon string) (*contracts.HorizonRanking, error) {
	var date *time.Time
	err := r.pool.QueryRow(ctx,
		"SELECT MAX(pred_date) FROM ranking.predictions WHERE horizon = $1", horizon,
	).Scan(&date)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest prediction date: %w", err)
	}
	if date == nil {
		return nil, ErrNotFound
	}

	return r.ByDate(ctx, horizon, *date)
}

// ByDate 특정 예측일의 랭킹
func (r *Repository) ByDate(ctx context.Context, horizon string, date time.Time) (*contracts.HorizonRanking, error) {
	query := `
		SELECT rank, symbol, close, delivery_pct, fii_net_ma5, dii_net_ma5, probability
		FROM ranking.predictions
		WHERE horizon = $1 AND pred_date = $2
		ORDER BY rank
	`

	rows, err := r.pool.Query(ctx, query, horizon, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	out := &contracts.HorizonRanking{Horizon: horizon, Date: date}
	for rows.Next() {
		p := contracts.Prediction{Horizon: horizon, Date: date}
		if err := rows.Scan(
			&p.Rank, &p.Symbol, &p.Close,
			&p.DeliveryPct, &p.FIINetMA5, &p.DIINetMA5, &p.Probability,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		out.Predictions = append(out.Predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate predictions: %w", err)
	}
	if len(out.Predictions) == 0 {
		return nil, ErrNotFound
	}

	return out, nil
}
