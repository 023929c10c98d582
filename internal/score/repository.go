package score

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joayo/arena/internal/models"
)

// ScoreRow is the storage shape of one score record.
type ScoreRow struct {
	UserID     string
	Nickname   string
	Score      int
	LastUpdate time.Time
}

// Querier defines what the repository needs from the database layer
type Querier interface {
	GetScore(ctx context.Context, userID string) (ScoreRow, error)
	IncrementScore(ctx context.Context, userID, nickname string, at time.Time) (ScoreRow, error)
	TopScores(ctx context.Context, limit int) ([]ScoreRow, error)
}

// Repository implements score data access operations
type Repository struct {
	queries Querier
}

// NewRepository creates a new score repository
func NewRepository(querier Querier) *Repository {
	return &Repository{
		queries: querier,
	}
}

// GetScore retrieves a player's score, defaulting to zero when absent.
func (r *Repository) GetScore(ctx context.Context, userID string) (*models.ScoreRecord, error) {
	row, err := r.queries.GetScore(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrScoreNotFound) {
			return &models.ScoreRecord{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	return r.rowToModel(row), nil
}

// IncrementScore atomically adds one point to a player's score, creating the
// record at 1 when absent. The increment happens in a single statement so two
// concurrent awards can never lose a point.
func (r *Repository) IncrementScore(ctx context.Context, userID, nickname string, at time.Time) (*models.ScoreRecord, error) {
	row, err := r.queries.IncrementScore(ctx, userID, nickname, at)
	if err != nil {
		return nil, fmt.Errorf("failed to increment score: %w", err)
	}
	return r.rowToModel(row), nil
}

// TopScores retrieves up to limit records ordered by score descending,
// excluding zero scores. Ties rank the earlier scorer first.
func (r *Repository) TopScores(ctx context.Context, limit int) ([]*models.ScoreRecord, error) {
	rows, err := r.queries.TopScores(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top scores: %w", err)
	}

	records := make([]*models.ScoreRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, r.rowToModel(row))
	}
	return records, nil
}

// rowToModel converts a storage row to the domain model
func (r *Repository) rowToModel(row ScoreRow) *models.ScoreRecord {
	return &models.ScoreRecord{
		UserID:     row.UserID,
		Nickname:   row.Nickname,
		Score:      row.Score,
		LastUpdate: row.LastUpdate,
	}
}
