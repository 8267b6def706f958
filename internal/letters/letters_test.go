package letters

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
)

func TestPointsFor(t *testing.T) {
	tests := []struct {
		letter string
		want   int
	}{
		{"A", 1},
		{"a", 1},
		{"C", 3},
		{"QU", 11},
		{"qu", 11},
		{"Q", 10},
		{"Z", 10},
		{"", 0},
		{"?", 0},
	}
	for _, tt := range tests {
		if got := PointsFor(tt.letter); got != tt.want {
			t.Errorf("PointsFor(%q): expected %d, got %d", tt.letter, tt.want, got)
		}
	}
}

func TestNewBagMatchesTable(t *testing.T) {
	bag := NewBag()
	if len(bag) != BagSize() {
		t.Fatalf("expected %d tiles, got %d", BagSize(), len(bag))
	}
	counts := map[string]int{}
	for _, l := range bag {
		counts[l]++
	}
	for _, r := range Table {
		if counts[r.Letter] != r.Count {
			t.Errorf("letter %s: expected %d, got %d", r.Letter, r.Count, counts[r.Letter])
		}
	}
	if counts["Q"] != 0 {
		t.Errorf("bare Q should never be in the bag")
	}
}

func TestShuffleIsDeterministic(t *testing.T) {
	a, b := NewBag(), NewBag()
	Shuffle(rand.New(rand.NewPCG(7, 11)), a)
	Shuffle(rand.New(rand.NewPCG(7, 11)), b)
	if !slices.Equal(a, b) {
		t.Fatalf("same seed produced different orders")
	}

	sortedA := slices.Clone(a)
	slices.Sort(sortedA)
	orig := NewBag()
	slices.Sort(orig)
	if !slices.Equal(sortedA, orig) {
		t.Errorf("shuffle changed the multiset")
	}
}

func TestSupplyExhaustsIntoEndless(t *testing.T) {
	s := NewSupply(rand.New(rand.NewPCG(1, 2)))
	n := s.Remaining()
	if n != BagSize() {
		t.Fatalf("expected full bag of %d, got %d", BagSize(), n)
	}

	for i := 0; i < n; i++ {
		if s.Endless() {
			t.Fatalf("supply went endless after %d draws, bag had %d", i, n)
		}
		if l := s.Draw(); l == "" {
			t.Fatalf("draw %d returned empty letter", i)
		}
	}
	if s.Remaining() != 0 || !s.Endless() {
		t.Fatalf("expected empty bag in endless mode, remaining=%d endless=%v", s.Remaining(), s.Endless())
	}

	for i := 0; i < 50; i++ {
		l := s.Draw()
		if len(l) != 1 || !strings.Contains(EndlessAlphabet, l) {
			t.Errorf("endless draw %d: %q is not from the endless alphabet", i, l)
		}
	}
}
