// internal/game/session.go
//
// Session is one Hex Gem run. It is owned by a single goroutine: nothing
// here locks, and every method must be called from the owner.
//
// Per tick, in order:
//   1. fire due timers (spawn re-arm, delayed push explosions)
//   2. decay the combo countdown
//   3. sweep bomb fuses
//   4. end the round when its duration has elapsed
//   5. reconcile finished animations and fallen tiles

package game

import (
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zyedidia/generic/mapset"

	"github.com/robalobadob/hexgem/internal/config"
	"github.com/robalobadob/hexgem/internal/letters"
)

// Options configures a Session. Zero values pick sensible defaults.
type Options struct {
	Tuning     config.Tuning // zero value means config.Default()
	Physics    Physics
	Dictionary Dictionary
	Clock      Clock
	Logger     *zerolog.Logger
	// Seed drives the letter bag and every roll. 0 picks a random seed.
	// The same seed replays the same bag on every Start.
	Seed uint64
}

// Session holds all state of a run.
type Session struct {
	tun   config.Tuning
	phys  Physics
	dict  Dictionary
	clock Clock
	log   zerolog.Logger
	seed  uint64

	rng    *rand.Rand
	supply *letters.Supply
	sched  *scheduler
	spawn  *timer

	nextID   TileID
	tiles    map[TileID]*Tile
	order    []TileID // spawn order, used for iteration and drawing
	chain    []TileID
	anims    []PopAnimation
	inFlight mapset.Set[TileID]

	score          int
	level          int
	combo          int
	comboLeft      time.Duration
	lastWord       time.Time
	wordsFound     int
	wordsThisLevel int
	topWord        string
	topPoints      int

	startedAt time.Time
	running   bool
	over      bool
	rev       uint64
	warned    map[string]bool

	// OnChange, if set, is called with the new stats after every change.
	OnChange func(Stats)
}

// NewSession returns a stopped session.
func NewSession(opts Options) *Session {
	tun := opts.Tuning
	if tun.TileRadius == 0 {
		tun = config.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	lg := log.Logger
	if opts.Logger != nil {
		lg = *opts.Logger
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	s := &Session{
		tun:      tun,
		phys:     opts.Physics,
		dict:     opts.Dictionary,
		clock:    clock,
		log:      lg.With().Str("component", "session").Logger(),
		seed:     seed,
		sched:    newScheduler(),
		tiles:    make(map[TileID]*Tile),
		inFlight: mapset.New[TileID](),
		level:    1,
		warned:   make(map[string]bool),
	}
	s.rng = newRand(seed)
	s.supply = letters.NewSupply(s.rng)
	return s
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Tuning returns the session's constants.
func (s *Session) Tuning() config.Tuning { return s.tun }

// Seed returns the seed the bag is built from.
func (s *Session) Seed() uint64 { return s.seed }

// Now reads the session clock.
func (s *Session) Now() time.Time { return s.clock.Now() }

// Start begins a fresh run, discarding anything left from a previous one.
func (s *Session) Start() {
	s.teardown()
	now := s.clock.Now()

	s.rng = newRand(s.seed)
	s.supply = letters.NewSupply(s.rng)
	s.score, s.level, s.combo = 0, 1, 0
	s.comboLeft = 0
	s.lastWord = time.Time{}
	s.wordsFound, s.wordsThisLevel = 0, 0
	s.topWord, s.topPoints = "", 0
	s.startedAt = now
	s.over = false
	s.running = true

	s.armSpawn(now)
	s.log.Info().Uint64("seed", s.seed).Msg("session started")
	s.changed()
}

// Stop cancels every timer and discards all tiles, animations and bodies.
// Stats are kept until the next Start.
func (s *Session) Stop() {
	wasLive := s.running || s.over
	s.teardown()
	s.running = false
	s.over = false
	if wasLive {
		s.log.Info().Int("score", s.score).Msg("session stopped")
		s.changed()
	}
}

// End finishes the run. Tiles stay where they are and running animations
// complete, but nothing spawns and input is ignored.
func (s *Session) End() {
	if !s.running {
		return
	}
	s.spawn.Cancel()
	s.spawn = nil
	s.clearSelection()
	s.running = false
	s.over = true
	s.log.Info().Int("score", s.score).Int("level", s.level).Msg("game over")
	s.changed()
}

func (s *Session) teardown() {
	s.sched.reset()
	s.spawn = nil
	for _, id := range s.order {
		if t, ok := s.tiles[id]; ok && s.phys != nil {
			s.phys.RemoveFromWorld(t.Body)
		}
	}
	clear(s.tiles)
	s.order = s.order[:0]
	s.chain = s.chain[:0]
	s.anims = s.anims[:0]
	s.inFlight.Clear()
}

// Running reports whether the run accepts input.
func (s *Session) Running() bool { return s.running }

// Over reports whether the run has ended.
func (s *Session) Over() bool { return s.over }

// Tick advances the session to now.
func (s *Session) Tick(now time.Time) {
	if !s.running && !s.over {
		return
	}
	s.sched.run(now)
	s.decayCombo(now)
	if s.running {
		s.sweepFuses(now)
		if d := s.tun.RoundDuration; d > 0 && now.Sub(s.startedAt) >= d {
			s.End()
		}
	}
	s.Reconcile(now)
}

func (s *Session) decayCombo(now time.Time) {
	if s.combo <= 0 {
		return
	}
	left := s.tun.ComboWindow - now.Sub(s.lastWord)
	if left <= 0 {
		s.combo = 0
		s.comboLeft = 0
		s.changed()
		return
	}
	s.comboLeft = left
}

// Stats returns the observable fields.
func (s *Session) Stats() Stats {
	var elapsed time.Duration
	if !s.startedAt.IsZero() {
		elapsed = s.clock.Now().Sub(s.startedAt)
	}
	return Stats{
		Score:           s.score,
		Level:           s.level,
		Combo:           s.combo,
		ComboTimeLeftMs: s.comboLeft.Milliseconds(),
		WordsFound:      s.wordsFound,
		WordsThisLevel:  s.wordsThisLevel,
		TopWord:         s.topWord,
		TopWordPoints:   s.topPoints,
		Running:         s.running,
		Over:            s.over,
		ElapsedMs:       elapsed.Milliseconds(),
	}
}

// Revision increases every time Stats change.
func (s *Session) Revision() uint64 { return s.rev }

func (s *Session) changed() {
	s.rev++
	if s.OnChange != nil {
		s.OnChange(s.Stats())
	}
}

// Tile returns a live tile.
func (s *Session) Tile(id TileID) (*Tile, bool) {
	t, ok := s.tiles[id]
	return t, ok
}

// Tiles returns live tiles in spawn order.
func (s *Session) Tiles() []*Tile {
	out := make([]*Tile, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tiles[id])
	}
	return out
}

// Count returns the number of live tiles.
func (s *Session) Count() int { return len(s.tiles) }

// warnOnce logs a guard-path warning the first time key is hit.
func (s *Session) warnOnce(key, msg string) {
	if s.warned[key] {
		return
	}
	s.warned[key] = true
	s.log.Warn().Str("guard", key).Msg(msg)
}
