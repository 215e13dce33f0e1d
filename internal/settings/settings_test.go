package settings

import (
	"errors"
	"testing"
)

func TestPathfindingActive_IsExclusiveOr(t *testing.T) {
	cases := []struct {
		enabled, force, want bool
	}{
		{false, false, false},
		{true, false, true},
		{false, true, true},
		{true, true, false},
	}
	for _, c := range cases {
		s := Settings{PathfindingEnabled: c.enabled, ForcePathfindingToggle: c.force}
		if got := s.PathfindingActive(); got != c.want {
			t.Fatalf("enabled=%v force=%v: got %v want %v", c.enabled, c.force, got, c.want)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s != Default() {
		t.Fatalf("env defaults drifted from Default():\n got %+v\nwant %+v", s, Default())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ELEVATION_RULER_ROUND_TO_MULTIPLE", "5")
	t.Setenv("ELEVATION_RULER_SPEED_HIGHLIGHTING", "always")
	t.Setenv("ELEVATION_RULER_FORCE_PATHFINDING", "true")
	s, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.RoundToMultiple != 5 {
		t.Fatalf("round-to-multiple = %v, want 5", s.RoundToMultiple)
	}
	if s.SpeedHighlighting != SpeedAlways {
		t.Fatalf("speed highlighting = %q, want always", s.SpeedHighlighting)
	}
	if s.PathfindingActive() {
		t.Fatal("enabled + force toggle should disable pathfinding")
	}
}

func TestLoad_RejectsUnknownMode(t *testing.T) {
	t.Setenv("ELEVATION_RULER_LEVELS_LABELS", "sometimes")
	_, err := Load()
	if !errors.Is(err, ErrLevelsLabels) {
		t.Fatalf("expected ErrLevelsLabels, got %v", err)
	}
}

func TestSpeedHighlightingActive(t *testing.T) {
	s := Settings{SpeedHighlighting: SpeedCombat}
	if s.SpeedHighlightingActive(false) {
		t.Fatal("combat mode should be off outside combat")
	}
	if !s.SpeedHighlightingActive(true) {
		t.Fatal("combat mode should be on in combat")
	}
	s.SpeedHighlighting = SpeedNever
	if s.SpeedHighlightingActive(true) {
		t.Fatal("never mode should stay off")
	}
}
