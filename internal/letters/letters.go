// internal/letters/letters.go
//
// Scrabble-style letter table shared by every word game in the collection.
// Responsibilities:
//   - The fixed letter/points/count distribution (including the "QU" tile).
//   - Point lookup for a single letter or tile face.
//   - Building a full bag and shuffling it with a caller-supplied random source.
//
// Notes:
//   - "Q" is listed with a count of 0: the bag only ever contains the "QU" tile,
//     but a spelled word is scored per character so Q still needs a value.

package letters

import (
	"math/rand/v2"
	"strings"
)

// Row is one entry of the distribution table.
type Row struct {
	Letter string
	Points int
	Count  int
}

// Table is the letter distribution used to fill a fresh bag.
var Table = []Row{
	{Letter: "A", Points: 1, Count: 9},
	{Letter: "B", Points: 3, Count: 2},
	{Letter: "C", Points: 3, Count: 2},
	{Letter: "D", Points: 2, Count: 4},
	{Letter: "E", Points: 1, Count: 12},
	{Letter: "F", Points: 4, Count: 2},
	{Letter: "G", Points: 2, Count: 3},
	{Letter: "H", Points: 4, Count: 2},
	{Letter: "I", Points: 1, Count: 9},
	{Letter: "J", Points: 8, Count: 1},
	{Letter: "K", Points: 5, Count: 1},
	{Letter: "L", Points: 1, Count: 4},
	{Letter: "M", Points: 3, Count: 2},
	{Letter: "N", Points: 1, Count: 6},
	{Letter: "O", Points: 1, Count: 8},
	{Letter: "P", Points: 3, Count: 2},
	{Letter: "Q", Points: 10, Count: 0},
	{Letter: "QU", Points: 11, Count: 1},
	{Letter: "R", Points: 1, Count: 6},
	{Letter: "S", Points: 1, Count: 4},
	{Letter: "T", Points: 1, Count: 6},
	{Letter: "U", Points: 1, Count: 4},
	{Letter: "V", Points: 4, Count: 2},
	{Letter: "W", Points: 4, Count: 2},
	{Letter: "X", Points: 8, Count: 1},
	{Letter: "Y", Points: 4, Count: 2},
	{Letter: "Z", Points: 10, Count: 1},
}

var pointsByLetter = func() map[string]int {
	m := make(map[string]int, len(Table))
	for _, r := range Table {
		m[r.Letter] = r.Points
	}
	return m
}()

// PointsFor returns the point value of a letter or tile face ("QU").
// Lookup is case-insensitive; unknown input scores 0.
func PointsFor(letter string) int {
	return pointsByLetter[strings.ToUpper(letter)]
}

// BagSize is the number of tiles in a freshly built bag.
func BagSize() int {
	n := 0
	for _, r := range Table {
		n += r.Count
	}
	return n
}

// NewBag returns every tile of the distribution, unshuffled.
func NewBag() []string {
	bag := make([]string, 0, BagSize())
	for _, r := range Table {
		for i := 0; i < r.Count; i++ {
			bag = append(bag, r.Letter)
		}
	}
	return bag
}

// Shuffle performs an in-place Fisher–Yates shuffle using rng.
// The same seed always produces the same order.
func Shuffle(rng *rand.Rand, bag []string) {
	for i := len(bag) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		bag[i], bag[j] = bag[j], bag[i]
	}
}
