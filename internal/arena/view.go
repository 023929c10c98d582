package arena

import (
	"github.com/joayo/arena/internal/models"
)

// ZoneView is the client-facing shape of the active zone.
type ZoneView struct {
	ID           string  `json:"id"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Size         float64 `json:"size"`
	RemainingSec float64 `json:"remaining_sec"`
	Version      uint64  `json:"version"`
}

// PlayersSnapshot is the high-rate players-topic payload: every live session
// as of one movement tick. Last write wins; clients render whatever arrived
// most recently.
type PlayersSnapshot struct {
	Players []models.Session `json:"players"`
	Tick    int64            `json:"tick"`
}

// View is the read-only state a rendering collaborator consumes each frame.
type View struct {
	Me              models.Session   `json:"me"`
	Others          []models.Session `json:"others"`
	Zone            *ZoneView        `json:"zone,omitempty"`
	Score           int              `json:"score"`
	DwellElapsedSec *float64         `json:"dwell_elapsed_sec,omitempty"`
	Squishes        []models.Squish  `json:"squishes"`
}

// ViewFor assembles the per-player view. Returns false when the player has
// no live session.
func (a *App) ViewFor(userID string) (View, bool) {
	me, ok := a.registry.Get(userID)
	if !ok {
		return View{}, false
	}

	view := View{
		Me:       me,
		Others:   a.registry.ListOthers(userID),
		Score:    a.cachedScore(userID),
		Squishes: a.squishes.Active(),
	}

	if current, zoneOK := a.zones.Current(); zoneOK {
		zv := a.zoneView(current)
		view.Zone = &zv
	}
	if elapsed, dwelling := a.zones.DwellElapsed(userID); dwelling {
		sec := elapsed.Seconds()
		view.DwellElapsedSec = &sec
	}
	return view, true
}
