package game

import "math"

// Vec is a 2D point or vector in board pixels; y grows downwards.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) Add(o Vec) Vec       { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec       { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec) Dist(o Vec) float64  { return v.Sub(o).Len() }

// Shape describes the collision outline of a tile. Tiles are round to the
// physics world; the hexagon is only drawn.
type Shape struct {
	Radius float64
}

// Body is a live physics handle. Position and angle are owned by the
// physics world and are read-only to the game.
type Body interface {
	Position() Vec
	Angle() float64
}

// Physics is the rigid body world the session spawns tiles into.
type Physics interface {
	CreateBody(shape Shape, pos Vec) Body
	AddToWorld(b Body)
	// RemoveFromWorld must tolerate bodies that were already removed.
	RemoveFromWorld(b Body)
	ApplyImpulse(b Body, point, impulse Vec)
	SetAngularVelocity(b Body, w float64)
	AngularVelocity(b Body) float64
	SetImmobile(b Body, immobile bool)
}

// Dictionary is the word-validity oracle.
type Dictionary interface {
	IsValid(word string) bool
}
