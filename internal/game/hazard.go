package game

import (
	"cmp"
	"slices"
	"time"
)

// pushExplosion shoves every nearby tile away from at. It never destroys.
// The bomb itself, selected tiles and animating tiles are not pushed.
func (s *Session) pushExplosion(bomb TileID, at Vec) int {
	if s.phys == nil {
		return 0
	}
	radius := s.tun.ExplosionRadius()
	pushed := 0
	for _, id := range s.order {
		if id == bomb || s.inFlight.Has(id) {
			continue
		}
		t := s.tiles[id]
		if t.selected {
			continue
		}
		pos := t.Position()
		d := pos.Sub(at)
		dist := d.Len()
		if dist <= 0 || dist >= radius {
			continue
		}
		force := s.tun.PushForce * (1 - dist/radius)
		impulse := d.Scale(force / dist).Add(Vec{Y: s.tun.PushBiasY})
		s.phys.ApplyImpulse(t.Body, pos, impulse)
		s.phys.SetAngularVelocity(t.Body, s.phys.AngularVelocity(t.Body)+(s.rng.Float64()-0.5)*s.tun.PushTorque)
		pushed++
	}
	return pushed
}

// destructiveExplosion pops the bomb at once and every tile in range after
// it, nearest first.
func (s *Session) destructiveExplosion(bomb *Tile, now time.Time) {
	at := bomb.Position()
	radius := s.tun.ExplosionRadius()

	type hit struct {
		id   TileID
		dist float64
	}
	var hits []hit
	for _, id := range s.order {
		if id == bomb.ID || s.inFlight.Has(id) {
			continue
		}
		if d := s.tiles[id].Position().Dist(at); d < radius {
			hits = append(hits, hit{id, d})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return cmp.Compare(a.dist, b.dist) })

	broke := false
	for i, h := range hits {
		if s.tiles[h.id].selected {
			broke = true
		}
		s.queuePop(h.id, now, time.Duration(i)*s.tun.ExplosionStagger)
	}
	s.queuePop(bomb.ID, now, 0)
	if broke {
		s.clearSelection()
	}
	s.log.Debug().Uint64("bomb", uint64(bomb.ID)).Int("destroyed", len(hits)).Msg("bomb detonated")
}

// sweepFuses detonates every bomb whose fuse ran out. Selected and
// animating bombs are skipped.
func (s *Session) sweepFuses(now time.Time) {
	var due []*Tile
	for _, id := range s.order {
		t := s.tiles[id]
		b, ok := t.Variant.(Bomb)
		if !ok || b.SpawnedAt.IsZero() || t.selected || s.inFlight.Has(id) {
			continue
		}
		if now.Sub(b.SpawnedAt) >= s.tun.BombFuse {
			due = append(due, t)
		}
	}
	for _, t := range due {
		// An earlier blast this sweep may already have claimed it.
		if s.inFlight.Has(t.ID) {
			continue
		}
		s.destructiveExplosion(t, now)
	}
}

// FuseProgress is how far a bomb's fuse has burnt, in [0,1].
// Non-bomb and unknown tiles report 0.
func (s *Session) FuseProgress(id TileID, now time.Time) float64 {
	t, ok := s.tiles[id]
	if !ok {
		return 0
	}
	b, ok := t.Variant.(Bomb)
	if !ok || b.SpawnedAt.IsZero() {
		return 0
	}
	return clamp01(float64(now.Sub(b.SpawnedAt)) / float64(s.tun.BombFuse))
}
