package game

import "strings"

// HitTest returns the nearest tile within the hit radius of p. Animating
// tiles are ignored; on a tie the earlier spawned tile wins.
func (s *Session) HitTest(p Vec) (TileID, bool) {
	var (
		best  TileID
		bestD = s.tun.HitDistance()
		found bool
	)
	for _, id := range s.order {
		if s.inFlight.Has(id) {
			continue
		}
		d := s.tiles[id].Position().Dist(p)
		if d < bestD || (!found && d == bestD) {
			best, bestD, found = id, d, true
		}
	}
	return best, found
}

// Adjacent reports whether two live tiles are touching.
func (s *Session) Adjacent(a, b TileID) bool {
	ta, ok := s.tiles[a]
	if !ok {
		return false
	}
	tb, ok := s.tiles[b]
	if !ok {
		return false
	}
	return ta.Position().Dist(tb.Position()) <= s.tun.AdjacencyDistance()
}

// Select appends a tile to the chain. It is a no-op, returning false, when
// the run is not live, the tile is unknown, animating or already selected,
// or it does not touch the last tile of the chain.
func (s *Session) Select(id TileID) bool {
	if !s.running {
		return false
	}
	t, ok := s.tiles[id]
	if !ok || t.selected || s.inFlight.Has(id) {
		return false
	}
	if n := len(s.chain); n > 0 && !s.Adjacent(s.chain[n-1], id) {
		return false
	}
	t.selected = true
	t.order = len(s.chain)
	s.chain = append(s.chain, id)
	return true
}

// DeselectLast pops the last tile of the chain.
func (s *Session) DeselectLast() (TileID, bool) {
	n := len(s.chain)
	if n == 0 {
		return 0, false
	}
	id := s.chain[n-1]
	s.chain = s.chain[:n-1]
	if t, ok := s.tiles[id]; ok {
		t.selected = false
		t.order = 0
	}
	return id, true
}

// ClearSelection empties the chain.
func (s *Session) ClearSelection() { s.clearSelection() }

func (s *Session) clearSelection() {
	for _, id := range s.chain {
		if t, ok := s.tiles[id]; ok {
			t.selected = false
			t.order = 0
		}
	}
	s.chain = s.chain[:0]
}

// Chain returns the selected tile ids in selection order.
func (s *Session) Chain() []TileID {
	return append([]TileID(nil), s.chain...)
}

// Word spells the chain. Special tiles add no letters.
func (s *Session) Word() string {
	var b strings.Builder
	for _, id := range s.chain {
		if t, ok := s.tiles[id]; ok {
			b.WriteString(t.Letter())
		}
	}
	return b.String()
}

func (s *Session) chainTiles() []*Tile {
	out := make([]*Tile, 0, len(s.chain))
	for _, id := range s.chain {
		if t, ok := s.tiles[id]; ok {
			out = append(out, t)
		}
	}
	return out
}
