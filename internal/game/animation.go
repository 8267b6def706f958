package game

import "time"

// queuePop freezes a tile and schedules its pop. A tile already animating
// is left alone and false is returned.
func (s *Session) queuePop(id TileID, start time.Time, delay time.Duration) bool {
	t, ok := s.tiles[id]
	if !ok || s.inFlight.Has(id) {
		return false
	}
	if !t.static {
		t.static = true
		if s.phys != nil {
			s.phys.SetImmobile(t.Body, true)
		}
	}
	s.inFlight.Put(id)
	s.anims = append(s.anims, PopAnimation{Tile: id, Start: start, Delay: delay})
	return true
}

// progress is -1 before the delay has passed, then clamps to [0,1].
func (s *Session) progress(a PopAnimation, now time.Time) float64 {
	elapsed := now.Sub(a.Start) - a.Delay
	if elapsed < 0 {
		return -1
	}
	return clamp01(float64(elapsed) / float64(s.tun.PopDuration))
}

// reclaimAnimations drops finished records and returns their tiles.
func (s *Session) reclaimAnimations(now time.Time) []TileID {
	var done []TileID
	kept := s.anims[:0]
	for _, a := range s.anims {
		if s.progress(a, now) >= 1 {
			done = append(done, a.Tile)
			continue
		}
		kept = append(kept, a)
	}
	s.anims = kept
	return done
}

// PopProgress reports the pop of a tile: -1 when it is not animating,
// 0 while its delay runs, then up to 1.
func (s *Session) PopProgress(id TileID, now time.Time) float64 {
	if !s.inFlight.Has(id) {
		return -1
	}
	for _, a := range s.anims {
		if a.Tile == id {
			if p := s.progress(a, now); p > 0 {
				return p
			}
			return 0
		}
	}
	return -1
}

// Animating reports whether a tile is queued to pop.
func (s *Session) Animating(id TileID) bool { return s.inFlight.Has(id) }

// Animations returns a copy of the pending and running pops.
func (s *Session) Animations() []PopAnimation {
	return append([]PopAnimation(nil), s.anims...)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
