package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default tuning invalid: %v", err)
	}
}

func TestLoadEmbeddedMatchesDefault(t *testing.T) {
	got, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	want := Default()
	if got.SpawnInterval != want.SpawnInterval || got.BombFuse != want.BombFuse ||
		got.TileRadius != want.TileRadius || len(got.LevelThresholds) != len(want.LevelThresholds) {
		t.Errorf("embedded tuning drifted from Default(): %+v", got)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	tun, err := Parse([]byte("spawnInterval: 200ms\ncomboWindow: 3s\nboard:\n  width: 400\n"))
	if err != nil {
		t.Fatal(err)
	}
	if tun.SpawnInterval != 200*time.Millisecond {
		t.Errorf("spawnInterval = %v", tun.SpawnInterval)
	}
	if tun.ComboWindow != 3*time.Second {
		t.Errorf("comboWindow = %v", tun.ComboWindow)
	}
	if tun.Board.Width != 400 || tun.Board.Height != 640 {
		t.Errorf("board = %+v", tun.Board)
	}
	if tun.MaxTiles != 50 {
		t.Errorf("untouched key lost its default: maxTiles = %d", tun.MaxTiles)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"zero radius", "tileRadius: 0", "tileRadius"},
		{"chance out of range", "bombChance: 1.5", "bombChance"},
		{"chances sum", "bombChance: 0.5\nmultiply2xChance: 0.6", "sum"},
		{"floor above interval", "spawnFloor: 1s", "spawnFloor"},
		{"thresholds not from zero", "levelThresholds: [10, 20]", "start at 0"},
		{"thresholds not increasing", "levelThresholds: [0, 20, 20]", "increasing"},
		{"negative round", "roundDuration: -1s", "roundDuration"},
		{"negative spawn step", "spawnStep: -5ms", "spawnStep"},
		{"negative pop stagger", "popStagger: -10ms", "popStagger"},
		{"negative explosion stagger", "explosionStagger: -1ms", "explosionStagger"},
		{"negative push", "pushForce: -0.1", "pushForce"},
		{"negative torque", "pushTorque: -0.1", "pushTorque"},
		{"bad yaml", "board: [", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.yaml")
	if err := os.WriteFile(path, []byte("maxTiles: 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tun, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if tun.MaxTiles != 12 {
		t.Errorf("maxTiles = %d", tun.MaxTiles)
	}
}

func TestSpawnDelay(t *testing.T) {
	tun := Default()
	tests := []struct {
		level int
		want  time.Duration
	}{
		{0, 150 * time.Millisecond},
		{1, 150 * time.Millisecond},
		{2, 140 * time.Millisecond},
		{7, 90 * time.Millisecond},
		{8, 80 * time.Millisecond},
		{20, 80 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := tun.SpawnDelay(tt.level); got != tt.want {
			t.Errorf("SpawnDelay(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestDerivedDistances(t *testing.T) {
	tun := Default()
	if got := tun.AdjacencyDistance(); got != 98 {
		t.Errorf("AdjacencyDistance = %v, want 98", got)
	}
	if got := tun.ExplosionRadius(); got != 126 {
		t.Errorf("ExplosionRadius = %v, want 126", got)
	}
	if got := tun.HitDistance(); got != 42 {
		t.Errorf("HitDistance = %v, want 42", got)
	}
}
