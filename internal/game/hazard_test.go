package game

import (
	"testing"
	"time"
)

func TestDestructiveExplosionOrdersByDistance(t *testing.T) {
	h := newHarness(t, nil)
	bomb := h.place(Bomb{SpawnedAt: h.clock.Now()}, 180, 300)
	far := h.letter("C", 230, 300)  // 50
	near := h.letter("A", 190, 300) // 10
	mid := h.letter("B", 210, 300)  // 30
	out := h.letter("D", 180, 500)  // outside the radius

	h.advance(8 * time.Second)

	delays := map[TileID]time.Duration{}
	for _, a := range h.s.Animations() {
		delays[a.Tile] = a.Delay
	}
	if len(delays) != 4 {
		t.Fatalf("expected bomb + 3 tiles popping, got %v", delays)
	}
	if delays[bomb.ID] != 0 {
		t.Errorf("bomb should pop at once, got %v", delays[bomb.ID])
	}
	if !(delays[near.ID] < delays[mid.ID] && delays[mid.ID] < delays[far.ID]) {
		t.Errorf("expected delays increasing with distance, got near=%v mid=%v far=%v",
			delays[near.ID], delays[mid.ID], delays[far.ID])
	}
	if delays[mid.ID] != 30*time.Millisecond || delays[far.ID] != 60*time.Millisecond {
		t.Errorf("unexpected stagger: mid=%v far=%v", delays[mid.ID], delays[far.ID])
	}
	if _, ok := delays[out.ID]; ok {
		t.Error("tile outside the radius was destroyed")
	}
	for _, tile := range []*Tile{bomb, near, mid, far} {
		if !body(tile).immobile {
			t.Errorf("tile %d not frozen", tile.ID)
		}
	}

	// The blast is not scored and does not fire twice.
	h.advance(time.Second)
	if h.s.Stats().Score != 0 {
		t.Error("explosion changed the score")
	}
	if _, ok := h.s.Tile(out.ID); !ok {
		t.Error("survivor was removed")
	}
	if h.s.Count() != 1+countSpawned(h.s) {
		t.Errorf("expected only the survivor and spawned tiles, got %d", h.s.Count())
	}
}

func countSpawned(s *Session) int {
	n := 0
	for _, t := range s.Tiles() {
		if t.Position().Y < 0 {
			n++
		}
	}
	return n
}

func TestDestructiveExplosionAtZeroDistance(t *testing.T) {
	h := newHarness(t, nil)
	bomb := h.place(Bomb{SpawnedAt: h.clock.Now()}, 180, 300)
	stacked := h.letter("A", 180, 300)
	h.advance(8 * time.Second)
	if !h.s.Animating(bomb.ID) || !h.s.Animating(stacked.ID) {
		t.Error("expected the bomb and the stacked tile to pop")
	}
}

func TestFuseSkipsSelectedBomb(t *testing.T) {
	h := newHarness(t, nil)
	bomb := h.place(Bomb{SpawnedAt: h.clock.Now()}, 180, 300)
	h.letter("A", 220, 300)
	if !h.s.Select(bomb.ID) {
		t.Fatal("could not select bomb")
	}

	h.advance(9 * time.Second)
	if len(h.s.Animations()) != 0 {
		t.Fatal("selected bomb detonated")
	}

	h.s.ClearSelection()
	h.advance(time.Millisecond)
	if !h.s.Animating(bomb.ID) {
		t.Error("released bomb should detonate on the next sweep")
	}
}

func TestDetonationBreaksChain(t *testing.T) {
	h := newHarness(t, nil)
	h.place(Bomb{SpawnedAt: h.clock.Now()}, 180, 300)
	a := h.letter("A", 230, 300)
	b := h.letter("B", 320, 300)
	h.selectAll(t, a, b)

	h.advance(8 * time.Second)
	if len(h.s.Chain()) != 0 || a.Selected() || b.Selected() {
		t.Error("chain survived losing a tile")
	}
}

func TestPushExplosionExcludesSelfAndSelected(t *testing.T) {
	h := newHarness(t, nil, "CAT")
	c := h.letter("C", 50, 300)
	a := h.letter("A", 140, 300)
	tt := h.letter("T", 230, 300)
	bomb := h.place(Bomb{SpawnedAt: h.clock.Now()}, 230, 390)
	free := h.letter("E", 230, 480)
	held := h.letter("S", 320, 390)
	outside := h.letter("O", 230, 600)

	h.selectAll(t, c, a, tt, bomb)
	res := h.s.Submit()
	if !res.Accepted || res.Word != "CAT" || res.Bombs != 1 {
		t.Fatalf("expected CAT with one bomb, got %+v", res)
	}
	if !h.s.Select(held.ID) {
		t.Fatal("could not select a tile for the next word")
	}

	h.advance(319 * time.Millisecond)
	if len(body(free).impulses) != 0 {
		t.Fatal("push fired before every pop started")
	}
	h.advance(time.Millisecond)

	if got := len(body(free).impulses); got != 1 {
		t.Fatalf("expected 1 impulse on the free neighbour, got %d", got)
	}
	imp := body(free).impulses[0]
	// 90px below the bomb: radial push down, bias up.
	want := 0.15*(1-90.0/126) - 0.05
	if imp.X != 0 || !near(imp.Y, want) {
		t.Errorf("impulse = %+v, want (0, %v)", imp, want)
	}
	for name, tile := range map[string]*Tile{"bomb": bomb, "selected": held, "outside": outside, "word tile": tt} {
		if len(body(tile).impulses) != 0 {
			t.Errorf("%s tile received an impulse", name)
		}
	}
	if h.s.Animating(free.ID) {
		t.Error("push destroyed a tile")
	}
}

func TestFuseProgress(t *testing.T) {
	h := newHarness(t, nil)
	start := h.clock.Now()
	bomb := h.place(Bomb{SpawnedAt: start}, 100, 300)
	letter := h.letter("A", 300, 300)
	unset := h.place(Bomb{}, 200, 500)

	tests := []struct {
		id   TileID
		at   time.Duration
		want float64
	}{
		{bomb.ID, 0, 0},
		{bomb.ID, 4 * time.Second, 0.5},
		{bomb.ID, 20 * time.Second, 1},
		{letter.ID, 4 * time.Second, 0},
		{unset.ID, 4 * time.Second, 0},
		{999, 0, 0},
	}
	for _, tt := range tests {
		if got := h.s.FuseProgress(tt.id, start.Add(tt.at)); got != tt.want {
			t.Errorf("FuseProgress(%d, +%v) = %v, want %v", tt.id, tt.at, got, tt.want)
		}
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
