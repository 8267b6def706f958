// internal/game/types.go
//
// Core type definitions for the Hex Gem engine.
// Defines:
//   - Kind: the closed set of tile kinds.
//   - Variant: per-kind tile payload (Letter, Multiplier, Bomb).
//   - Tile: a live tile owned by a Session.
//   - PopAnimation, Stats, Result.

package game

import "time"

// Kind is the closed set of tile kinds.
type Kind string

const (
	KindNormal     Kind = "normal"
	KindBomb       Kind = "bomb"
	KindMultiply2x Kind = "multiply2x"
	KindMultiply3x Kind = "multiply3x"
)

// Variant is the kind-specific payload of a tile. The set of
// implementations is closed: Letter, Multiplier and Bomb.
type Variant interface {
	Kind() Kind
}

// Letter is a normal tile spelling Char (one or two letters, e.g. "QU").
type Letter struct {
	Char   string
	Points int
}

// Multiplier multiplies the score of any word it is played in.
type Multiplier struct {
	Factor int // 2 or 3
}

// Bomb detonates when its fuse runs out, or shoves its neighbours when played.
type Bomb struct {
	SpawnedAt time.Time // fuse base
}

func (Letter) Kind() Kind { return KindNormal }
func (Bomb) Kind() Kind   { return KindBomb }

func (m Multiplier) Kind() Kind {
	if m.Factor == 3 {
		return KindMultiply3x
	}
	return KindMultiply2x
}

// variantFor builds the payload of a special kind.
func variantFor(k Kind, now time.Time) Variant {
	switch k {
	case KindBomb:
		return Bomb{SpawnedAt: now}
	case KindMultiply3x:
		return Multiplier{Factor: 3}
	case KindMultiply2x:
		return Multiplier{Factor: 2}
	}
	return nil
}

// TileID identifies a tile within a session. IDs are never reused.
type TileID uint64

// Tile is a live tile. Its position belongs to the physics body.
type Tile struct {
	ID      TileID
	Variant Variant
	Body    Body

	selected bool
	order    int
	static   bool
}

func (t *Tile) Kind() Kind { return t.Variant.Kind() }

// Letter returns the spelled letters, empty for special tiles.
func (t *Tile) Letter() string {
	if l, ok := t.Variant.(Letter); ok {
		return l.Char
	}
	return ""
}

// Points returns the letter value, 0 for special tiles.
func (t *Tile) Points() int {
	if l, ok := t.Variant.(Letter); ok {
		return l.Points
	}
	return 0
}

func (t *Tile) Selected() bool { return t.selected }

// Order is the position of the tile in the selection chain, or -1.
func (t *Tile) Order() int {
	if !t.selected {
		return -1
	}
	return t.order
}

// Static reports whether the tile has been frozen for removal.
func (t *Tile) Static() bool { return t.static }

func (t *Tile) Position() Vec {
	if t.Body == nil {
		return Vec{}
	}
	return t.Body.Position()
}

func (t *Tile) Angle() float64 {
	if t.Body == nil {
		return 0
	}
	return t.Body.Angle()
}

// PopAnimation is a pending or running removal of one tile.
type PopAnimation struct {
	Tile  TileID
	Start time.Time
	Delay time.Duration
}

// Stats are the observable score fields of a session.
type Stats struct {
	Score           int    `json:"score"`
	Level           int    `json:"level"`
	Combo           int    `json:"combo"`
	ComboTimeLeftMs int64  `json:"comboTimeLeftMs"`
	WordsFound      int    `json:"wordsFound"`
	WordsThisLevel  int    `json:"wordsThisLevel"`
	TopWord         string `json:"topWord"`
	TopWordPoints   int    `json:"topWordPoints"`
	Running         bool   `json:"running"`
	Over            bool   `json:"over"`
	ElapsedMs       int64  `json:"elapsedMs"`
}

// Rejection reasons reported by Submit.
const (
	ReasonNotRunning = "not_running"
	ReasonEmpty      = "empty"
	ReasonTooShort   = "too_short"
	ReasonNotAWord   = "not_a_word"
)

// Result describes the outcome of one Submit.
type Result struct {
	Accepted   bool    `json:"accepted"`
	Reason     string  `json:"reason,omitempty"`
	Word       string  `json:"word"`
	Points     int     `json:"points"`
	Base       int     `json:"base"`
	LengthMult int     `json:"lengthMult"`
	GemMult    int     `json:"gemMult"`
	ComboMult  float64 `json:"comboMult"`
	Combo      int     `json:"combo"`
	Level      int     `json:"level"`
	LevelUp    bool    `json:"levelUp"`
	Rewards    []Kind  `json:"rewards,omitempty"`
	Bombs      int     `json:"bombs"`
}
