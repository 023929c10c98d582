package world

import (
	"github.com/joayo/arena/internal/models"
)

// Input is the held-keys state a client reports. The server integrates it into
// motion; clients never send positions directly.
type Input struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Zero reports whether no movement key is held.
func (in Input) Zero() bool {
	return !in.Up && !in.Down && !in.Left && !in.Right
}

// Step advances a position by one tick of held input and clamps the result so
// the player footprint stays inside the map. Opposing keys cancel out.
// The returned facing changes only on horizontal input.
func Step(pos models.Position, facing models.Facing, in Input, t Tuning) (models.Position, models.Facing) {
	x, y := pos.X, pos.Y

	if in.Up {
		y -= t.PlayerSpeed
	}
	if in.Down {
		y += t.PlayerSpeed
	}
	if in.Left {
		x -= t.PlayerSpeed
		facing = models.FacingLeft
	}
	if in.Right {
		x += t.PlayerSpeed
		facing = models.FacingRight
	}

	return models.Position{
		X: Clamp(x, t.HalfPlayer(), t.MapSize-t.HalfPlayer()),
		Y: Clamp(y, t.HalfPlayer(), t.MapSize-t.HalfPlayer()),
	}, facing
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
