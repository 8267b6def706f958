package game

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/hexgem/internal/config"
	"github.com/robalobadob/hexgem/internal/letters"
	"github.com/robalobadob/hexgem/internal/words"
)

type fakeBody struct {
	pos      Vec
	angle    float64
	angVel   float64
	immobile bool
	inWorld  bool
	impulses []Vec
}

func (b *fakeBody) Position() Vec  { return b.pos }
func (b *fakeBody) Angle() float64 { return b.angle }

// fakeWorld records every call and never moves anything.
type fakeWorld struct {
	created int
	removed int
}

func (w *fakeWorld) CreateBody(_ Shape, pos Vec) Body {
	w.created++
	return &fakeBody{pos: pos}
}

func (w *fakeWorld) AddToWorld(b Body) { b.(*fakeBody).inWorld = true }

func (w *fakeWorld) RemoveFromWorld(b Body) {
	fb := b.(*fakeBody)
	if fb.inWorld {
		fb.inWorld = false
		w.removed++
	}
}

func (w *fakeWorld) ApplyImpulse(b Body, _, impulse Vec) {
	fb := b.(*fakeBody)
	fb.impulses = append(fb.impulses, impulse)
}

func (w *fakeWorld) SetAngularVelocity(b Body, v float64) { b.(*fakeBody).angVel = v }
func (w *fakeWorld) AngularVelocity(b Body) float64       { return b.(*fakeBody).angVel }
func (w *fakeWorld) SetImmobile(b Body, v bool)           { b.(*fakeBody).immobile = v }

func (w *fakeWorld) live() int { return w.created - w.removed }

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	s     *Session
	world *fakeWorld
	clock *ManualClock
}

// newHarness starts a session with specials disabled and a fixed dictionary.
func newHarness(t *testing.T, tune func(*config.Tuning), dict ...string) *harness {
	t.Helper()
	tun := config.Default()
	tun.BombChance, tun.Multiply3xChance, tun.Multiply2xChance = 0, 0, 0
	if tune != nil {
		tune(&tun)
	}
	if err := tun.Validate(); err != nil {
		t.Fatalf("bad test tuning: %v", err)
	}
	h := &harness{world: &fakeWorld{}, clock: NewManualClock(epoch)}
	nop := zerolog.Nop()
	h.s = NewSession(Options{
		Tuning:     tun,
		Physics:    h.world,
		Dictionary: words.FromWords(dict),
		Clock:      h.clock,
		Logger:     &nop,
		Seed:       42,
	})
	h.s.Start()
	return h
}

// place puts a tile at (x, y) without going through the spawner.
func (h *harness) place(v Variant, x, y float64) *Tile {
	return h.s.addTile(v, Vec{X: x, Y: y})
}

func (h *harness) letter(ch string, x, y float64) *Tile {
	return h.place(Letter{Char: ch, Points: letters.PointsFor(ch)}, x, y)
}

// row places letters of word left to right, 90px apart, all touching.
func (h *harness) row(word string, y float64) []*Tile {
	var out []*Tile
	for i, r := range word {
		out = append(out, h.letter(string(r), 40+float64(i)*90, y))
	}
	return out
}

func (h *harness) selectAll(t *testing.T, tiles ...*Tile) {
	t.Helper()
	for _, tile := range tiles {
		if !h.s.Select(tile.ID) {
			t.Fatalf("select %d (%q) rejected", tile.ID, tile.Letter())
		}
	}
}

func (h *harness) advance(d time.Duration) time.Time {
	now := h.clock.Advance(d)
	h.s.Tick(now)
	return now
}

func body(t *Tile) *fakeBody { return t.Body.(*fakeBody) }
