package letters

import "math/rand/v2"

// EndlessAlphabet is sampled once the bag runs dry. It is weighted towards
// vowels and common consonants so the board stays playable.
const EndlessAlphabet = "EEEEAAAAIIIIOOOOUUUURRRRTTTTNNNNSSSSLLLLDDDDCCCCMMMMPPPPBBBBGGGG"

// Supply hands out letters for new tiles: first from a shuffled bag, then,
// permanently, from EndlessAlphabet.
type Supply struct {
	rng     *rand.Rand
	bag     []string
	endless bool
}

// NewSupply builds and shuffles a fresh bag.
func NewSupply(rng *rand.Rand) *Supply {
	bag := NewBag()
	Shuffle(rng, bag)
	return &Supply{rng: rng, bag: bag}
}

// Draw returns the next letter. It never fails: an empty bag switches the
// supply to endless mode for the rest of the session.
func (s *Supply) Draw() string {
	if !s.endless && len(s.bag) > 0 {
		last := len(s.bag) - 1
		l := s.bag[last]
		s.bag = s.bag[:last]
		if len(s.bag) == 0 {
			s.endless = true
		}
		return l
	}
	s.endless = true
	i := s.rng.IntN(len(EndlessAlphabet))
	return EndlessAlphabet[i : i+1]
}

// Remaining reports how many tiles are left in the bag.
func (s *Supply) Remaining() int { return len(s.bag) }

// Endless reports whether the bag has been exhausted.
func (s *Supply) Endless() bool { return s.endless }
