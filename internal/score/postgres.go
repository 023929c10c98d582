package score

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrScoreNotFound is returned when a player has no score record yet.
var ErrScoreNotFound = errors.New("score not found")

const schema = `
CREATE TABLE IF NOT EXISTS scores (
    user_id     TEXT PRIMARY KEY,
    nickname    TEXT NOT NULL,
    score       INTEGER NOT NULL DEFAULT 0 CHECK (score >= 0),
    last_update TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS scores_rank_idx ON scores (score DESC, last_update ASC);
`

// PostgresQuerier implements Querier over a pgx connection pool.
type PostgresQuerier struct {
	pool *pgxpool.Pool
}

// NewPostgresQuerier wraps an existing pool.
func NewPostgresQuerier(pool *pgxpool.Pool) *PostgresQuerier {
	return &PostgresQuerier{pool: pool}
}

// EnsureSchema creates the scores table if it does not exist.
func (q *PostgresQuerier) EnsureSchema(ctx context.Context) error {
	if _, err := q.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create scores schema: %w", err)
	}
	return nil
}

func (q *PostgresQuerier) GetScore(ctx context.Context, userID string) (ScoreRow, error) {
	var row ScoreRow
	err := q.pool.QueryRow(ctx,
		`SELECT user_id, nickname, score, last_update FROM scores WHERE user_id = $1`,
		userID,
	).Scan(&row.UserID, &row.Nickname, &row.Score, &row.LastUpdate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ScoreRow{}, ErrScoreNotFound
		}
		return ScoreRow{}, err
	}
	return row, nil
}

func (q *PostgresQuerier) IncrementScore(ctx context.Context, userID, nickname string, at time.Time) (ScoreRow, error) {
	var row ScoreRow
	err := q.pool.QueryRow(ctx,
		`INSERT INTO scores (user_id, nickname, score, last_update)
		 VALUES ($1, $2, 1, $3)
		 ON CONFLICT (user_id) DO UPDATE
		 SET score = scores.score + 1, nickname = EXCLUDED.nickname, last_update = EXCLUDED.last_update
		 RETURNING user_id, nickname, score, last_update`,
		userID, nickname, at,
	).Scan(&row.UserID, &row.Nickname, &row.Score, &row.LastUpdate)
	if err != nil {
		return ScoreRow{}, err
	}
	return row, nil
}

func (q *PostgresQuerier) TopScores(ctx context.Context, limit int) ([]ScoreRow, error) {
	rows, err := q.pool.Query(ctx,
		`SELECT user_id, nickname, score, last_update
		 FROM scores
		 WHERE score > 0
		 ORDER BY score DESC, last_update ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScoreRow
	for rows.Next() {
		var row ScoreRow
		if err := rows.Scan(&row.UserID, &row.Nickname, &row.Score, &row.LastUpdate); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
