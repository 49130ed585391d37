package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marketlens/screener/internal/contracts"
)

// ErrNoActiveWeightSet is returned when no ranking configuration is active.
var ErrNoActiveWeightSet = errors.New("no active weight set")

// WeightSetRepository manages ranking configurations. Exactly one row is
// active at a time; activating a set deactivates the rest in the same
// transaction.
type WeightSetRepository struct {
	pool *pgxpool.Pool
}

func NewWeightSetRepository(pool *pgxpool.Pool) *WeightSetRepository {
	return &WeightSetRepository{pool: pool}
}

// Active returns the currently active weight set.
func (r *WeightSetRepository) Active(ctx context.Context) (*contracts.WeightSet, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT name, weights, params, active, updated_at
		FROM ranking_config WHERE active = TRUE
		ORDER BY updated_at DESC LIMIT 1`))
}

// Get returns a weight set by name.
func (r *WeightSetRepository) Get(ctx context.Context, name string) (*contracts.WeightSet, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT name, weights, params, active, updated_at
		FROM ranking_config WHERE name = $1`, name))
}

func (r *WeightSetRepository) scanOne(row pgx.Row) (*contracts.WeightSet, error) {
	var (
		ws          contracts.WeightSet
		weightsJSON []byte
		paramsJSON  []byte
	)
	err := row.Scan(&ws.Name, &weightsJSON, &paramsJSON, &ws.Active, &ws.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveWeightSet
	}
	if err != nil {
		return nil, fmt.Errorf("load weight set: %w", err)
	}
	if err := json.Unmarshal(weightsJSON, &ws.Weights); err != nil {
		return nil, fmt.Errorf("decode weights: %w", err)
	}
	if err := json.Unmarshal(paramsJSON, &ws.Params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	return &ws, nil
}

// Save upserts a weight set. When ws.Active is true every other set is
// deactivated first so the single-active invariant holds.
func (r *WeightSetRepository) Save(ctx context.Context, ws contracts.WeightSet) error {
	weightsJSON, err := json.Marshal(ws.Weights)
	if err != nil {
		return fmt.Errorf("encode weights: %w", err)
	}
	params := ws.Params
	if params == nil {
		params = map[string]interface{}{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if ws.Active {
		if _, err := tx.Exec(ctx, `UPDATE ranking_config SET active = FALSE WHERE name <> $1`, ws.Name); err != nil {
			return fmt.Errorf("deactivate others: %w", err)
		}
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO ranking_config (name, weights, params, active, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (name) DO UPDATE SET
			weights = EXCLUDED.weights,
			params = EXCLUDED.params,
			active = EXCLUDED.active,
			updated_at = NOW()`,
		ws.Name, weightsJSON, paramsJSON, ws.Active)
	if err != nil {
		return fmt.Errorf("save weight set %s: %w", ws.Name, err)
	}
	return tx.Commit(ctx)
}

// List returns every configured weight set, active first.
func (r *WeightSetRepository) List(ctx context.Context) ([]contracts.WeightSet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, weights, params, active, updated_at
		FROM ranking_config ORDER BY active DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list weight sets: %w", err)
	}
	defer rows.Close()

	var out []contracts.WeightSet
	for rows.Next() {
		var (
			ws          contracts.WeightSet
			weightsJSON []byte
			paramsJSON  []byte
		)
		if err := rows.Scan(&ws.Name, &weightsJSON, &paramsJSON, &ws.Active, &ws.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(weightsJSON, &ws.Weights); err != nil {
			return nil, fmt.Errorf("decode weights for %s: %w", ws.Name, err)
		}
		if err := json.Unmarshal(paramsJSON, &ws.Params); err != nil {
			return nil, fmt.Errorf("decode params for %s: %w", ws.Name, err)
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}
