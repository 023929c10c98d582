package models

import (
	"time"
)

// Squish is a momentary click-induced distortion on a target player.
// Cosmetic only; it expires on its own and never touches game state.
type Squish struct {
	TargetID string    `json:"target_id"`
	ClickX   float64   `json:"click_x"`
	ClickY   float64   `json:"click_y"`
	Time     time.Time `json:"time"`
}
