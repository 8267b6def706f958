package game

import (
	"slices"
	"time"

	"github.com/robalobadob/hexgem/internal/letters"
)

// armSpawn schedules the first spawn one interval after from.
func (s *Session) armSpawn(from time.Time) {
	s.spawnAt(from.Add(s.tun.SpawnDelay(s.level)))
}

// spawnAt schedules a spawn at fireAt. The next one is armed from fireAt,
// not from the tick that ran it, so the cadence does not round up to whole
// frames. Periods missed by a late tick are skipped. The interval shrinks
// with level.
func (s *Session) spawnAt(fireAt time.Time) {
	s.spawn = s.sched.at(fireAt, func(now time.Time) {
		s.spawnTile(now)
		if !s.running {
			return
		}
		d := s.tun.SpawnDelay(s.level)
		next := fireAt.Add(d)
		for !next.After(now) {
			next = next.Add(d)
		}
		s.spawnAt(next)
	})
}

// spawnTile drops one tile above the board. A full board skips the spawn.
func (s *Session) spawnTile(now time.Time) *Tile {
	if s.phys == nil {
		s.warnOnce("physics", "physics not ready, skipping spawn")
		return nil
	}
	if len(s.tiles) >= s.tun.MaxTiles {
		return nil
	}
	return s.addTile(s.rollVariant(now), s.spawnPoint())
}

// rollVariant checks one draw against the bomb, x3 and x2 bands in order.
func (s *Session) rollVariant(now time.Time) Variant {
	roll := s.rng.Float64()
	band := s.tun.BombChance
	if roll < band {
		return Bomb{SpawnedAt: now}
	}
	band += s.tun.Multiply3xChance
	if roll < band {
		return Multiplier{Factor: 3}
	}
	band += s.tun.Multiply2xChance
	if roll < band {
		return Multiplier{Factor: 2}
	}
	ch := s.supply.Draw()
	return Letter{Char: ch, Points: letters.PointsFor(ch)}
}

// spawnBonus drops a reward tile. Rewards ignore the tile ceiling.
func (s *Session) spawnBonus(k Kind, now time.Time) *Tile {
	if s.phys == nil {
		s.warnOnce("physics", "physics not ready, skipping spawn")
		return nil
	}
	v := variantFor(k, now)
	if v == nil {
		return nil
	}
	return s.addTile(v, s.spawnPoint())
}

func (s *Session) spawnPoint() Vec {
	r := s.tun.TileRadius
	return Vec{
		X: r + s.rng.Float64()*(s.tun.Board.Width-2*r),
		Y: -2 * r,
	}
}

func (s *Session) addTile(v Variant, pos Vec) *Tile {
	body := s.phys.CreateBody(Shape{Radius: s.tun.TileRadius}, pos)
	s.phys.AddToWorld(body)
	s.nextID++
	t := &Tile{ID: s.nextID, Variant: v, Body: body}
	s.tiles[t.ID] = t
	s.order = append(s.order, t.ID)
	return t
}

// removeTile deregisters the body and forgets the tile in one step.
// Unknown ids are already gone and report false.
func (s *Session) removeTile(id TileID) bool {
	t, ok := s.tiles[id]
	if !ok {
		return false
	}
	if s.phys != nil {
		s.phys.RemoveFromWorld(t.Body)
	}
	delete(s.tiles, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	s.inFlight.Remove(id)
	if t.selected {
		// The chain would no longer be connected.
		s.clearSelection()
	}
	return true
}

// Reconcile removes tiles whose pop finished and tiles that fell below the
// board. It returns how many tiles were removed; a second call with nothing
// new to do removes none.
func (s *Session) Reconcile(now time.Time) int {
	removed := 0
	for _, id := range s.reclaimAnimations(now) {
		if s.removeTile(id) {
			removed++
		}
	}

	limit := s.tun.Board.Height + 2*s.tun.TileRadius
	var fallen []TileID
	for _, id := range s.order {
		if s.inFlight.Has(id) {
			continue
		}
		if s.tiles[id].Position().Y > limit {
			fallen = append(fallen, id)
		}
	}
	for _, id := range fallen {
		if s.removeTile(id) {
			removed++
		}
	}
	return removed
}
