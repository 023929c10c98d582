package score

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/joayo/arena/internal/models"
)

// App exposes score ledger operations to the rest of the arena.
type App struct {
	repo            *Repository
	clock           clockwork.Clock
	leaderboardSize int
}

// NewApp creates a new score app
func NewApp(repo *Repository, clock clockwork.Clock, leaderboardSize int) *App {
	return &App{
		repo:            repo,
		clock:           clock,
		leaderboardSize: leaderboardSize,
	}
}

// Load fetches a player's score, zero when they have never scored. Called once
// per session at join; live score changes reach clients via the leaderboard feed.
func (a *App) Load(ctx context.Context, userID string) (int, error) {
	record, err := a.repo.GetScore(ctx, userID)
	if err != nil {
		return 0, err
	}
	return record.Score, nil
}

// Increment awards exactly one point and returns the updated record.
func (a *App) Increment(ctx context.Context, userID, nickname string) (*models.ScoreRecord, error) {
	record, err := a.repo.IncrementScore(ctx, userID, nickname, a.clock.Now())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("nickname", nickname).
		Int("score", record.Score).
		Msg("score incremented")
	return record, nil
}

// Leaderboard computes the ranked top-N: score descending, zero scores
// excluded, ties broken by earlier last_update.
func (a *App) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	records, err := a.repo.TopScores(ctx, a.leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to compute leaderboard: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(records))
	for i, record := range records {
		entries = append(entries, models.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   record.UserID,
			Nickname: record.Nickname,
			Score:    record.Score,
		})
	}
	return entries, nil
}
