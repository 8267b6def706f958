package main

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hexgem/internal/config"
	"github.com/robalobadob/hexgem/internal/daily"
	"github.com/robalobadob/hexgem/internal/game"
	"github.com/robalobadob/hexgem/internal/physics"
)

const (
	modeFree  = "free"
	modeDaily = "daily"

	hudHeight    = 72
	flashFor     = 1200 * time.Millisecond
	physicsSteps = 2
)

// app adapts a local session to ebiten.Game.
type app struct {
	tun   config.Tuning
	dict  game.Dictionary
	mode  string
	seed  uint64
	saves *saves

	world    *physics.World
	session  *game.Session
	dragging bool
	recorded bool

	flash      string
	flashUntil time.Time
}

func newApp(tun config.Tuning, dict game.Dictionary, mode string, seed uint64, sv *saves) *app {
	a := &app{tun: tun, dict: dict, mode: mode, seed: seed, saves: sv}
	a.restart()
	return a
}

// restart builds a fresh world and session. The daily seed is kept, so a
// daily restart deals the same letters again.
func (a *app) restart() {
	if a.session != nil {
		a.finish()
		a.session.Stop()
	}
	a.world = physics.New(a.tun)
	a.session = game.NewSession(game.Options{
		Tuning:     a.tun,
		Physics:    a.world,
		Dictionary: a.dict,
		Seed:       a.seed,
	})
	a.session.Start()
	a.dragging, a.recorded = false, false
	a.flash = ""
}

// finish records the run once.
func (a *app) finish() {
	if a.recorded {
		return
	}
	a.recorded = true
	st := a.session.Stats()
	if st.WordsFound == 0 {
		return
	}
	key := ""
	if a.mode == modeDaily {
		key = daily.DateKey(a.session.Now())
	}
	if a.saves.Record(st, key) {
		log.Info().Int("score", st.Score).Msg("new best score")
	}
}

func (a *app) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.finish()
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		a.restart()
		return nil
	}

	dt := 1 / float64(ebiten.TPS())
	for i := 0; i < physicsSteps; i++ {
		a.world.Step(dt / physicsSteps)
	}
	now := a.session.Now()
	a.session.Tick(now)

	if a.session.Over() {
		a.finish()
		return nil
	}
	a.handlePointer(now)

	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.session.DeselectLast()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.submit(now)
	}
	return nil
}

// boardPoint converts the cursor to board coordinates.
func boardPoint() game.Vec {
	x, y := ebiten.CursorPosition()
	return game.Vec{X: float64(x), Y: float64(y - hudHeight)}
}

func (a *app) handlePointer(now time.Time) {
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		a.session.ClearSelection()
		if id, ok := a.session.HitTest(boardPoint()); ok {
			a.dragging = a.session.Select(id)
		}
	case a.dragging && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		id, ok := a.session.HitTest(boardPoint())
		if !ok {
			return
		}
		chain := a.session.Chain()
		if n := len(chain); n >= 2 && chain[n-2] == id {
			a.session.DeselectLast()
			return
		}
		a.session.Select(id)
	case a.dragging && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		a.dragging = false
		a.submit(now)
	}
}

func (a *app) submit(now time.Time) {
	if len(a.session.Chain()) == 0 {
		return
	}
	res := a.session.Submit()
	a.flash = describe(res)
	a.flashUntil = now.Add(flashFor)
}

// describe renders a submit result for the HUD.
func describe(res game.Result) string {
	if !res.Accepted {
		switch res.Reason {
		case game.ReasonTooShort:
			return "too short"
		case game.ReasonNotAWord:
			return res.Word + "?"
		default:
			return ""
		}
	}
	s := fmt.Sprintf("%s +%d", res.Word, res.Points)
	if res.Combo > 1 {
		s += fmt.Sprintf(" combo x%d", res.Combo)
	}
	if res.LevelUp {
		s += fmt.Sprintf("  LEVEL %d!", res.Level)
	}
	return s
}

func (a *app) Layout(_, _ int) (int, int) {
	return int(a.tun.Board.Width), int(a.tun.Board.Height) + hudHeight
}
