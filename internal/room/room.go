// internal/room/room.go
//
// A Room hosts one live game.Session on its own goroutine.
//
// Responsibilities:
//   - Run a fixed-rate frame loop: step physics, tick the session, apply
//     queued commands, publish a snapshot.
//   - Serialize every access to the session through the loop (Do / Post).
//   - Fan snapshots out to subscribers, latest wins.
//
// Constraints:
//   • The session is never touched outside the loop goroutine while it runs.
//   • Stop is idempotent; afterwards Do and Post return ErrClosed.

package room

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hexgem/internal/game"
)

var (
	ErrClosed = errors.New("room closed")
	ErrBusy   = errors.New("room busy")
)

// DefaultInterval is one frame at 60 Hz.
const DefaultInterval = time.Second / 60

// Stepper advances the physics world by dt seconds.
type Stepper interface {
	Step(dt float64)
}

// Config configures a Room.
type Config struct {
	ID        string
	Session   *game.Session
	World     Stepper       // may be nil
	Interval  time.Duration // 0 means DefaultInterval
	QueueSize int           // 0 means 64
	Logger    *zerolog.Logger
}

// Room owns a session and the goroutine that drives it.
type Room struct {
	id       string
	session  *game.Session
	world    Stepper
	interval time.Duration
	log      zerolog.Logger

	cmds chan func(*game.Session)

	subMu   sync.Mutex
	subs    map[int]chan game.Snapshot
	nextSub int

	lastActive atomic.Int64 // unix nanos
	frames     atomic.Uint64

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool
}

// New returns a room that is not yet running.
func New(cfg Config) *Room {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	qs := cfg.QueueSize
	if qs <= 0 {
		qs = 64
	}
	lg := log.Logger
	if cfg.Logger != nil {
		lg = *cfg.Logger
	}
	r := &Room{
		id:       cfg.ID,
		session:  cfg.Session,
		world:    cfg.World,
		interval: interval,
		log:      lg.With().Str("gameId", cfg.ID).Logger(),
		cmds:     make(chan func(*game.Session), qs),
		subs:     make(map[int]chan game.Snapshot),
		stopCh:   make(chan struct{}),
	}
	r.Touch()
	return r
}

// ID returns the room id.
func (r *Room) ID() string { return r.id }

// Start begins the run and the frame loop.
func (r *Room) Start() {
	if !r.running.CompareAndSwap(false, true) {
		return
	}
	r.session.Start()
	r.wg.Add(1)
	go r.loop()
	r.log.Info().Dur("interval", r.interval).Msg("room started")
}

// Stop halts the loop and tears the session down.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		r.wg.Wait()
		r.session.Stop()

		r.subMu.Lock()
		for id, ch := range r.subs {
			close(ch)
			delete(r.subs, id)
		}
		r.subMu.Unlock()
		r.log.Info().Uint64("frames", r.frames.Load()).Msg("room stopped")
	})
}

// Done is closed once Stop has been called.
func (r *Room) Done() <-chan struct{} { return r.stopCh }

func (r *Room) loop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.frame(r.session.Now())
		}
	}
}

// frame runs one step of the loop.
func (r *Room) frame(now time.Time) {
	if r.world != nil {
		r.world.Step(r.interval.Seconds())
	}
	r.session.Tick(now)
	r.drain()
	r.frames.Add(1)
	r.publish(now)
}

func (r *Room) drain() {
	for {
		select {
		case fn := <-r.cmds:
			fn(r.session)
		default:
			return
		}
	}
}

// Do runs fn on the loop goroutine and waits for it.
func (r *Room) Do(ctx context.Context, fn func(*game.Session)) error {
	done := make(chan struct{})
	wrapped := func(s *game.Session) {
		defer close(done)
		fn(s)
	}
	select {
	case <-r.stopCh:
		return ErrClosed
	default:
	}
	select {
	case r.cmds <- wrapped:
	case <-r.stopCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	r.Touch()

	select {
	case <-done:
		return nil
	case <-r.stopCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues fn without waiting. A full queue returns ErrBusy.
func (r *Room) Post(fn func(*game.Session)) error {
	select {
	case <-r.stopCh:
		return ErrClosed
	default:
	}
	select {
	case r.cmds <- fn:
		r.Touch()
		return nil
	default:
		return ErrBusy
	}
}

// Subscribe returns a channel of snapshots and a cancel func. The channel
// holds one frame; a slow reader only ever sees the newest.
func (r *Room) Subscribe() (<-chan game.Snapshot, func()) {
	ch := make(chan game.Snapshot, 1)
	r.subMu.Lock()
	select {
	case <-r.stopCh:
		r.subMu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.subMu.Unlock()
	r.Touch()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.subMu.Lock()
			if c, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(c)
			}
			r.subMu.Unlock()
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (r *Room) Subscribers() int {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	return len(r.subs)
}

func (r *Room) publish(now time.Time) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	if len(r.subs) == 0 {
		return
	}
	snap := r.session.Snapshot(now)
	for _, ch := range r.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Drop the stale frame and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Touch marks the room as active now.
func (r *Room) Touch() { r.lastActive.Store(time.Now().UnixNano()) }

// IdleFor reports how long ago the room was last used.
func (r *Room) IdleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, r.lastActive.Load()))
}

// Frames returns the number of frames run so far.
func (r *Room) Frames() uint64 { return r.frames.Load() }
