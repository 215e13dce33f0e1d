// Package settings is the read-only settings surface consumed by the ruler
// pipeline. Values come from ELEVATION_RULER_* environment variables.
package settings

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// SpeedHighlighting controls when segments are coloured by speed tier.
type SpeedHighlighting string

const (
	SpeedNever  SpeedHighlighting = "never"
	SpeedCombat SpeedHighlighting = "combat" // only while a combat encounter is active
	SpeedAlways SpeedHighlighting = "always"
)

// LevelsLabels controls when a level name is appended to the elevation line.
type LevelsLabels string

const (
	LevelsNever  LevelsLabels = "never"
	LevelsUI     LevelsLabels = "ui" // only while the levels UI is open
	LevelsAlways LevelsLabels = "always"
)

// Settings is one snapshot of user-configurable behaviour.
type Settings struct {
	RulerEnabled    bool    `env:"ELEVATION_RULER_ENABLED"           envDefault:"true"`
	RoundToMultiple float64 `env:"ELEVATION_RULER_ROUND_TO_MULTIPLE" envDefault:"0"`

	PathfindingEnabled     bool `env:"ELEVATION_RULER_PATHFINDING"       envDefault:"true"`
	ForcePathfindingToggle bool `env:"ELEVATION_RULER_FORCE_PATHFINDING" envDefault:"false"`
	AvoidDifficultTerrain  bool `env:"ELEVATION_RULER_AVOID_TERRAIN"     envDefault:"false"`

	SpeedHighlighting         SpeedHighlighting `env:"ELEVATION_RULER_SPEED_HIGHLIGHTING"  envDefault:"combat"`
	CombatHistoryHighlighting bool              `env:"ELEVATION_RULER_COMBAT_HISTORY"      envDefault:"true"`
	LevelsLabels              LevelsLabels      `env:"ELEVATION_RULER_LEVELS_LABELS"       envDefault:"always"`

	TerrainGlyph string `env:"ELEVATION_RULER_TERRAIN_GLYPH" envDefault:"🥾"`
}

var (
	ErrSpeedHighlighting = errors.New("invalid speed highlighting mode")
	ErrLevelsLabels      = errors.New("invalid levels label mode")
	ErrRoundToMultiple   = errors.New("round-to-multiple must not be negative")
)

// Default returns the settings produced with no environment overrides.
func Default() Settings {
	return Settings{
		RulerEnabled:              true,
		PathfindingEnabled:        true,
		SpeedHighlighting:         SpeedCombat,
		CombatHistoryHighlighting: true,
		LevelsLabels:              LevelsAlways,
		TerrainGlyph:              "🥾",
	}
}

// Load parses settings from the environment and validates enum values.
func Load() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks enum fields and numeric bounds.
func (s Settings) Validate() error {
	switch s.SpeedHighlighting {
	case SpeedNever, SpeedCombat, SpeedAlways:
	default:
		return fmt.Errorf("%w: %q", ErrSpeedHighlighting, s.SpeedHighlighting)
	}
	switch s.LevelsLabels {
	case LevelsNever, LevelsUI, LevelsAlways:
	default:
		return fmt.Errorf("%w: %q", ErrLevelsLabels, s.LevelsLabels)
	}
	if s.RoundToMultiple < 0 {
		return ErrRoundToMultiple
	}
	return nil
}

// PathfindingActive combines the configured flag with the momentary toggle.
// The toggle inverts the configured value; it is not an override.
func (s Settings) PathfindingActive() bool {
	return s.PathfindingEnabled != s.ForcePathfindingToggle
}

// SpeedHighlightingActive reports whether speed tiers apply given combat state.
func (s Settings) SpeedHighlightingActive(inCombat bool) bool {
	switch s.SpeedHighlighting {
	case SpeedAlways:
		return true
	case SpeedCombat:
		return inCombat
	default:
		return false
	}
}

// ShowLevelName reports whether level names belong on elevation lines.
func (s Settings) ShowLevelName(levelsUIActive bool) bool {
	switch s.LevelsLabels {
	case LevelsAlways:
		return true
	case LevelsUI:
		return levelsUIActive
	default:
		return false
	}
}
