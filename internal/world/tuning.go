package world

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tuning holds the gameplay constants. Values mirror the defaults the game
// shipped with; a YAML file can override any of them.
type Tuning struct {
	MapSize     float64
	PlayerSize  float64
	PlayerSpeed float64 // world units per tick
	TickRate    int     // movement ticks per second

	ZoneSize        float64
	ZoneMargin      float64
	ZoneDuration    time.Duration
	DwellTime       time.Duration
	DwellCheckRate  int // dwell checks per second
	SquishTTL       time.Duration
	MaxSessions     int
	LivenessWindow  time.Duration
	LeaderboardSize int
}

// tuningFile is the YAML shape; durations are whole seconds or milliseconds.
type tuningFile struct {
	MapSize           *float64 `yaml:"map_size"`
	PlayerSize        *float64 `yaml:"player_size"`
	PlayerSpeed       *float64 `yaml:"player_speed"`
	TickRate          *int     `yaml:"tick_rate"`
	ZoneSize          *float64 `yaml:"zone_size"`
	ZoneMargin        *float64 `yaml:"zone_margin"`
	ZoneDurationSec   *int     `yaml:"zone_duration_sec"`
	DwellTimeSec      *int     `yaml:"dwell_time_sec"`
	DwellCheckRate    *int     `yaml:"dwell_check_rate"`
	SquishTTLMillis   *int     `yaml:"squish_ttl_ms"`
	MaxSessions       *int     `yaml:"max_sessions"`
	LivenessWindowSec *int     `yaml:"liveness_window_sec"`
	LeaderboardSize   *int     `yaml:"leaderboard_size"`
}

// DefaultTuning returns the stock gameplay constants.
func DefaultTuning() Tuning {
	return Tuning{
		MapSize:         5000,
		PlayerSize:      50,
		PlayerSpeed:     5,
		TickRate:        60,
		ZoneSize:        600,
		ZoneMargin:      300,
		ZoneDuration:    30 * time.Second,
		DwellTime:       5 * time.Second,
		DwellCheckRate:  10,
		SquishTTL:       time.Second,
		MaxSessions:     100,
		LivenessWindow:  10 * time.Second,
		LeaderboardSize: 5,
	}
}

// LoadTuning reads a YAML tuning file over the defaults.
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()

	data, err := os.ReadFile(path)
	if err != nil {
		return tuning, fmt.Errorf("failed to read tuning file: %w", err)
	}

	var file tuningFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return tuning, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	file.apply(&tuning)

	if err := tuning.Validate(); err != nil {
		return tuning, err
	}
	return tuning, nil
}

func (f tuningFile) apply(t *Tuning) {
	if f.MapSize != nil {
		t.MapSize = *f.MapSize
	}
	if f.PlayerSize != nil {
		t.PlayerSize = *f.PlayerSize
	}
	if f.PlayerSpeed != nil {
		t.PlayerSpeed = *f.PlayerSpeed
	}
	if f.TickRate != nil {
		t.TickRate = *f.TickRate
	}
	if f.ZoneSize != nil {
		t.ZoneSize = *f.ZoneSize
	}
	if f.ZoneMargin != nil {
		t.ZoneMargin = *f.ZoneMargin
	}
	if f.ZoneDurationSec != nil {
		t.ZoneDuration = time.Duration(*f.ZoneDurationSec) * time.Second
	}
	if f.DwellTimeSec != nil {
		t.DwellTime = time.Duration(*f.DwellTimeSec) * time.Second
	}
	if f.DwellCheckRate != nil {
		t.DwellCheckRate = *f.DwellCheckRate
	}
	if f.SquishTTLMillis != nil {
		t.SquishTTL = time.Duration(*f.SquishTTLMillis) * time.Millisecond
	}
	if f.MaxSessions != nil {
		t.MaxSessions = *f.MaxSessions
	}
	if f.LivenessWindowSec != nil {
		t.LivenessWindow = time.Duration(*f.LivenessWindowSec) * time.Second
	}
	if f.LeaderboardSize != nil {
		t.LeaderboardSize = *f.LeaderboardSize
	}
}

// Validate rejects tuning values the simulation cannot run with.
func (t Tuning) Validate() error {
	if t.MapSize <= 0 {
		return fmt.Errorf("map_size must be positive, got %v", t.MapSize)
	}
	if t.PlayerSize <= 0 || t.PlayerSize > t.MapSize {
		return fmt.Errorf("player_size must be in (0, map_size], got %v", t.PlayerSize)
	}
	if t.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %d", t.TickRate)
	}
	if t.DwellCheckRate <= 0 {
		return fmt.Errorf("dwell_check_rate must be positive, got %d", t.DwellCheckRate)
	}
	if t.ZoneSize <= 0 || t.ZoneMargin < 0 || t.ZoneMargin*2 >= t.MapSize {
		return fmt.Errorf("zone geometry does not fit the map: size=%v margin=%v", t.ZoneSize, t.ZoneMargin)
	}
	if t.ZoneDuration <= 0 || t.DwellTime <= 0 {
		return fmt.Errorf("zone_duration and dwell_time must be positive")
	}
	return nil
}

// HalfPlayer is half the player footprint; positions are clamped so the whole
// sprite stays on the map.
func (t Tuning) HalfPlayer() float64 {
	return t.PlayerSize / 2
}

// TickInterval returns the duration of one movement tick.
func (t Tuning) TickInterval() time.Duration {
	return time.Second / time.Duration(t.TickRate)
}

// DwellCheckInterval returns the duration between dwell-scoring checks.
func (t Tuning) DwellCheckInterval() time.Duration {
	return time.Second / time.Duration(t.DwellCheckRate)
}

// SpawnPoint is where new players appear: the map center.
func (t Tuning) SpawnPoint() (float64, float64) {
	return t.MapSize / 2, t.MapSize / 2
}
