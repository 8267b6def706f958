package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/hexgem/assets"
)

// Tuning holds every gameplay constant of a Hex Gem session.
// Durations are written as Go duration strings ("150ms", "5s") in YAML.
type Tuning struct {
	Board BoardConfig `yaml:"board"`

	TileRadius         float64 `yaml:"tileRadius"`         // hexagon circumradius in px
	TileSpacing        float64 `yaml:"tileSpacing"`        // visual gap between touching tiles
	AdjacencyTolerance float64 `yaml:"adjacencyTolerance"` // slack added to the touching distance
	HitRadius          float64 `yaml:"hitRadius"`          // 0 means TileRadius

	MaxTiles      int           `yaml:"maxTiles"`
	SpawnInterval time.Duration `yaml:"spawnInterval"`
	SpawnStep     time.Duration `yaml:"spawnStep"`  // interval reduction per level
	SpawnFloor    time.Duration `yaml:"spawnFloor"` // fastest allowed interval

	// Special tile bands, checked in this order against a single roll.
	BombChance       float64 `yaml:"bombChance"`
	Multiply3xChance float64 `yaml:"multiply3xChance"`
	Multiply2xChance float64 `yaml:"multiply2xChance"`

	PopDuration      time.Duration `yaml:"popDuration"`
	PopStagger       time.Duration `yaml:"popStagger"`       // between tiles of a played word
	ExplosionStagger time.Duration `yaml:"explosionStagger"` // between tiles destroyed by a bomb

	BombFuse                  time.Duration `yaml:"bombFuse"`
	ExplosionRadiusMultiplier float64       `yaml:"explosionRadiusMultiplier"`
	PushForce                 float64       `yaml:"pushForce"`
	PushBiasY                 float64       `yaml:"pushBiasY"`
	PushTorque                float64       `yaml:"pushTorque"`

	MinWordLength   int           `yaml:"minWordLength"`
	ComboWindow     time.Duration `yaml:"comboWindow"`
	LevelThresholds []int         `yaml:"levelThresholds"`

	// RoundDuration ends the run after this long; 0 plays forever.
	RoundDuration time.Duration `yaml:"roundDuration"`

	Physics PhysicsConfig `yaml:"physics"`
}

// BoardConfig is the playable area in px; y grows downwards.
type BoardConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PhysicsConfig tunes the rigid body world behind the board.
type PhysicsConfig struct {
	Gravity       float64 `yaml:"gravity"`      // px/s²
	TileMass      float64 `yaml:"tileMass"`     //
	Elasticity    float64 `yaml:"elasticity"`   //
	Friction      float64 `yaml:"friction"`     //
	Damping       float64 `yaml:"damping"`      // fraction of velocity kept per second
	ImpulseScale  float64 `yaml:"impulseScale"` // push force units -> impulse
	WallThickness float64 `yaml:"wallThickness"`
}

// Default returns the built-in tuning. It matches assets/hexgem.yaml.
func Default() Tuning {
	return Tuning{
		Board:                     BoardConfig{Width: 360, Height: 640},
		TileRadius:                42,
		TileSpacing:               4,
		AdjacencyTolerance:        10,
		MaxTiles:                  50,
		SpawnInterval:             150 * time.Millisecond,
		SpawnStep:                 10 * time.Millisecond,
		SpawnFloor:                80 * time.Millisecond,
		BombChance:                0.03,
		Multiply3xChance:          0.02,
		Multiply2xChance:          0.05,
		PopDuration:               200 * time.Millisecond,
		PopStagger:                80 * time.Millisecond,
		ExplosionStagger:          30 * time.Millisecond,
		BombFuse:                  8 * time.Second,
		ExplosionRadiusMultiplier: 3,
		PushForce:                 0.15,
		PushBiasY:                 -0.05,
		PushTorque:                0.1,
		MinWordLength:             2,
		ComboWindow:               5 * time.Second,
		LevelThresholds:           []int{0, 100, 300, 600, 1000, 1500, 2200, 3000, 4000, 5500},
		Physics: PhysicsConfig{
			Gravity:       900,
			TileMass:      1,
			Elasticity:    0.3,
			Friction:      0.1,
			Damping:       0.55,
			ImpulseScale:  4000,
			WallThickness: 50,
		},
	}
}

// Load reads a YAML tuning file over the defaults and validates the result.
// An empty path loads the embedded default file.
func Load(path string) (Tuning, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = assets.Tuning()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return Tuning{}, fmt.Errorf("failed to read tuning file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Tuning, error) {
	t := Default()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("failed to parse tuning YAML: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("invalid tuning config: %w", err)
	}
	return t, nil
}

// Validate checks that the tuning describes a playable session.
func (t Tuning) Validate() error {
	if t.Board.Width <= 0 || t.Board.Height <= 0 {
		return fmt.Errorf("board must have positive size, got %vx%v", t.Board.Width, t.Board.Height)
	}
	if t.TileRadius <= 0 {
		return fmt.Errorf("tileRadius must be positive, got %v", t.TileRadius)
	}
	if t.Board.Width < 2*t.TileRadius {
		return fmt.Errorf("board width %v cannot fit a tile of radius %v", t.Board.Width, t.TileRadius)
	}
	if t.MaxTiles <= 0 {
		return fmt.Errorf("maxTiles must be positive, got %d", t.MaxTiles)
	}
	if t.SpawnInterval <= 0 || t.SpawnFloor <= 0 {
		return fmt.Errorf("spawnInterval and spawnFloor must be positive")
	}
	if t.SpawnFloor > t.SpawnInterval {
		return fmt.Errorf("spawnFloor %v exceeds spawnInterval %v", t.SpawnFloor, t.SpawnInterval)
	}
	for name, p := range map[string]float64{
		"bombChance":       t.BombChance,
		"multiply3xChance": t.Multiply3xChance,
		"multiply2xChance": t.Multiply2xChance,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, p)
		}
	}
	if sum := t.BombChance + t.Multiply3xChance + t.Multiply2xChance; sum > 1 {
		return fmt.Errorf("special tile chances sum to %v, must be at most 1", sum)
	}
	if t.PopDuration <= 0 {
		return fmt.Errorf("popDuration must be positive, got %v", t.PopDuration)
	}
	if t.BombFuse <= 0 {
		return fmt.Errorf("bombFuse must be positive, got %v", t.BombFuse)
	}
	if t.ExplosionRadiusMultiplier <= 0 {
		return fmt.Errorf("explosionRadiusMultiplier must be positive, got %v", t.ExplosionRadiusMultiplier)
	}
	if t.MinWordLength < 1 {
		return fmt.Errorf("minWordLength must be at least 1, got %d", t.MinWordLength)
	}
	if t.ComboWindow <= 0 {
		return fmt.Errorf("comboWindow must be positive, got %v", t.ComboWindow)
	}
	if len(t.LevelThresholds) == 0 || t.LevelThresholds[0] != 0 {
		return fmt.Errorf("levelThresholds must start at 0")
	}
	for i := 1; i < len(t.LevelThresholds); i++ {
		if t.LevelThresholds[i] <= t.LevelThresholds[i-1] {
			return fmt.Errorf("levelThresholds must be strictly increasing at index %d", i)
		}
	}
	if t.RoundDuration < 0 {
		return fmt.Errorf("roundDuration cannot be negative")
	}
	for name, d := range map[string]time.Duration{
		"spawnStep":        t.SpawnStep,
		"popStagger":       t.PopStagger,
		"explosionStagger": t.ExplosionStagger,
	} {
		if d < 0 {
			return fmt.Errorf("%s cannot be negative, got %v", name, d)
		}
	}
	if t.PushForce < 0 || t.PushTorque < 0 {
		return fmt.Errorf("pushForce and pushTorque cannot be negative")
	}
	return nil
}

// ExplosionRadius is the reach of both bomb behaviors.
func (t Tuning) ExplosionRadius() float64 {
	return t.TileRadius * t.ExplosionRadiusMultiplier
}

// AdjacencyDistance is the largest center distance at which two tiles touch.
func (t Tuning) AdjacencyDistance() float64 {
	return 2*t.TileRadius + t.TileSpacing + t.AdjacencyTolerance
}

// HitDistance is the pick radius around a tile center.
func (t Tuning) HitDistance() float64 {
	if t.HitRadius > 0 {
		return t.HitRadius
	}
	return t.TileRadius
}

// SpawnDelay returns the spawn interval for level, never below SpawnFloor.
func (t Tuning) SpawnDelay(level int) time.Duration {
	if level < 1 {
		level = 1
	}
	d := t.SpawnInterval - time.Duration(level-1)*t.SpawnStep
	if d < t.SpawnFloor {
		return t.SpawnFloor
	}
	return d
}
