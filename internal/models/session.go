package models

import (
	"time"
)

// Facing is the horizontal direction a player sprite faces.
type Facing string

const (
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// Position is a point in world coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Session represents one connected player.
type Session struct {
	UserID     string    `json:"user_id"`
	Nickname   string    `json:"nickname"`
	Position   Position  `json:"position"`
	Facing     Facing    `json:"facing"`
	LastUpdate time.Time `json:"last_update"`
	JoinedAt   time.Time `json:"joined_at"`
}
