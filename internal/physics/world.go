// internal/physics/world.go
//
// Chipmunk2D-backed implementation of game.Physics.
//
// Responsibilities:
//   - Build a space with gravity, a floor and two side walls around the board.
//   - Create round tile bodies and add/remove them from the space.
//   - Apply impulses and spin, freeze bodies for pop animations.
//
// Constraints:
//   • The open top lets tiles spawn above the board and fall in.
//   • Bodies are only touched from the goroutine that steps the world.

package physics

import (
	"github.com/jakecoffman/cp"

	"github.com/robalobadob/hexgem/internal/config"
	"github.com/robalobadob/hexgem/internal/game"
)

// body wraps a cp body so it satisfies game.Body.
type body struct {
	b       *cp.Body
	shape   *cp.Shape
	inSpace bool
}

func (b *body) Position() game.Vec {
	p := b.b.Position()
	return game.Vec{X: p.X, Y: p.Y}
}

func (b *body) Angle() float64 { return b.b.Angle() }

// World is a rigid body space sized to the board.
type World struct {
	space *cp.Space
	cfg   config.PhysicsConfig
	count int
}

// New builds a world for the board in tun.
func New(tun config.Tuning) *World {
	pc := tun.Physics
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{X: 0, Y: pc.Gravity})
	if pc.Damping > 0 {
		space.SetDamping(pc.Damping)
	}

	w, h, t := tun.Board.Width, tun.Board.Height, pc.WallThickness
	top := -10 * tun.TileRadius // walls reach above the spawn line
	walls := []*cp.Shape{
		cp.NewSegment(space.StaticBody, cp.Vector{X: -t, Y: h + t/2}, cp.Vector{X: w + t, Y: h + t/2}, t/2),
		cp.NewSegment(space.StaticBody, cp.Vector{X: -t / 2, Y: top}, cp.Vector{X: -t / 2, Y: h + t}, t/2),
		cp.NewSegment(space.StaticBody, cp.Vector{X: w + t/2, Y: top}, cp.Vector{X: w + t/2, Y: h + t}, t/2),
	}
	for _, s := range walls {
		s.SetElasticity(pc.Elasticity)
		s.SetFriction(pc.Friction)
		space.AddShape(s)
	}
	return &World{space: space, cfg: pc}
}

// Step advances the simulation by dt seconds.
func (w *World) Step(dt float64) { w.space.Step(dt) }

// Count returns the number of tile bodies in the space.
func (w *World) Count() int { return w.count }

func (w *World) CreateBody(shape game.Shape, pos game.Vec) game.Body {
	mass := w.cfg.TileMass
	cb := cp.NewBody(mass, cp.MomentForCircle(mass, 0, shape.Radius, cp.Vector{}))
	cb.SetPosition(cp.Vector{X: pos.X, Y: pos.Y})
	cs := cp.NewCircle(cb, shape.Radius, cp.Vector{})
	cs.SetElasticity(w.cfg.Elasticity)
	cs.SetFriction(w.cfg.Friction)
	return &body{b: cb, shape: cs}
}

func (w *World) AddToWorld(gb game.Body) {
	b, ok := gb.(*body)
	if !ok || b.inSpace {
		return
	}
	w.space.AddBody(b.b)
	w.space.AddShape(b.shape)
	b.inSpace = true
	w.count++
}

func (w *World) RemoveFromWorld(gb game.Body) {
	b, ok := gb.(*body)
	if !ok || !b.inSpace {
		return
	}
	w.space.RemoveShape(b.shape)
	w.space.RemoveBody(b.b)
	b.inSpace = false
	w.count--
}

// ApplyImpulse pushes a body; impulse is in the game's force units and is
// scaled by ImpulseScale. Frozen bodies ignore it.
func (w *World) ApplyImpulse(gb game.Body, point, impulse game.Vec) {
	b, ok := gb.(*body)
	if !ok || b.b.GetType() != cp.BODY_DYNAMIC {
		return
	}
	k := w.cfg.ImpulseScale
	b.b.ApplyImpulseAtWorldPoint(cp.Vector{X: impulse.X * k, Y: impulse.Y * k}, cp.Vector{X: point.X, Y: point.Y})
}

func (w *World) SetAngularVelocity(gb game.Body, v float64) {
	if b, ok := gb.(*body); ok {
		b.b.SetAngularVelocity(v)
	}
}

func (w *World) AngularVelocity(gb game.Body) float64 {
	if b, ok := gb.(*body); ok {
		return b.b.AngularVelocity()
	}
	return 0
}

// SetImmobile freezes a body in place, or releases it back to gravity.
func (w *World) SetImmobile(gb game.Body, immobile bool) {
	b, ok := gb.(*body)
	if !ok {
		return
	}
	if immobile {
		b.b.SetType(cp.BODY_KINEMATIC)
		b.b.SetVelocity(0, 0)
		b.b.SetAngularVelocity(0)
		return
	}
	b.b.SetType(cp.BODY_DYNAMIC)
}
