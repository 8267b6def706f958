package game

import "time"

// TileView is the render state of one tile.
type TileView struct {
	ID       TileID  `json:"id"`
	Kind     Kind    `json:"kind"`
	Letter   string  `json:"letter,omitempty"`
	Points   int     `json:"points"`
	Pos      Vec     `json:"pos"`
	Angle    float64 `json:"angle"`
	Selected bool    `json:"selected"`
	Order    int     `json:"order"`
	Fuse     float64 `json:"fuse,omitempty"` // bombs only
	Pop      float64 `json:"pop"`            // -1 when not popping
}

// Snapshot is everything a render surface needs for one frame.
type Snapshot struct {
	Revision  uint64     `json:"revision"`
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Radius    float64    `json:"radius"`
	Tiles     []TileView `json:"tiles"`
	Chain     []TileID   `json:"chain"`
	Word      string     `json:"word"`
	Valid     bool       `json:"valid"`
	Potential int        `json:"potential"`
	Stats     Stats      `json:"stats"`
}

// Snapshot captures the session at now.
func (s *Session) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		Revision:  s.rev,
		Width:     s.tun.Board.Width,
		Height:    s.tun.Board.Height,
		Radius:    s.tun.TileRadius,
		Tiles:     make([]TileView, 0, len(s.order)),
		Chain:     s.Chain(),
		Word:      s.Word(),
		Valid:     s.CurrentWordValid(),
		Potential: s.PotentialScore(),
		Stats:     s.Stats(),
	}
	for _, id := range s.order {
		t := s.tiles[id]
		snap.Tiles = append(snap.Tiles, TileView{
			ID:       id,
			Kind:     t.Kind(),
			Letter:   t.Letter(),
			Points:   t.Points(),
			Pos:      t.Position(),
			Angle:    t.Angle(),
			Selected: t.selected,
			Order:    t.Order(),
			Fuse:     s.FuseProgress(id, now),
			Pop:      s.PopProgress(id, now),
		})
	}
	return snap
}
