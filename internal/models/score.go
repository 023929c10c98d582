package models

import (
	"time"
)

// ScoreRecord is the durable per-player score row.
type ScoreRecord struct {
	UserID     string    `json:"user_id"`
	Nickname   string    `json:"nickname"`
	Score      int       `json:"score"`
	LastUpdate time.Time `json:"last_update"`
}

// LeaderboardEntry is one ranked row of the derived leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}
