package game

import (
	"math"
	"unicode/utf8"

	"github.com/robalobadob/hexgem/internal/letters"
)

// LengthMultiplier steps with word length: 2-3 letters x1, 4 x2, up to x7
// for nine letters or more.
func LengthMultiplier(n int) int {
	switch {
	case n >= 9:
		return 7
	case n >= 4:
		return n - 2
	}
	return 1
}

// ComboMultiplier grows by 0.5 per chained word after the first and caps at 5.
func ComboMultiplier(combo int) float64 {
	switch {
	case combo <= 1:
		return 1
	case combo == 2:
		return 1.5
	case combo == 3:
		return 2
	case combo == 4:
		return 2.5
	}
	return math.Min(5, 2.5+0.5*float64(combo-4))
}

// BaseScore is the letter sum of word times its length multiplier.
func BaseScore(word string) int {
	sum := 0
	for _, r := range word {
		sum += letters.PointsFor(string(r))
	}
	return sum * LengthMultiplier(utf8.RuneCountInString(word))
}

// GemMultiplier is the product of every multiplier tile's factor.
func GemMultiplier(vs ...Variant) int {
	m := 1
	for _, v := range vs {
		if mv, ok := v.(Multiplier); ok {
			m *= mv.Factor
		}
	}
	return m
}

// WordPoints is the final score of a word.
func WordPoints(word string, gemMult, combo int) int {
	return int(math.Floor(float64(BaseScore(word)) * float64(gemMult) * ComboMultiplier(combo)))
}

// LevelFor returns the 1-based level reached by score.
func LevelFor(score int, thresholds []int) int {
	for i := len(thresholds) - 1; i >= 0; i-- {
		if score >= thresholds[i] {
			return i + 1
		}
	}
	return 1
}

// Rewards lists the bonus tiles earned by a word of length n played at
// combo. The length and combo checks are independent.
func Rewards(n, combo int) []Kind {
	var out []Kind
	switch {
	case n >= 7:
		out = append(out, KindMultiply3x)
	case n >= 5:
		out = append(out, KindMultiply2x)
	}
	switch {
	case combo == 3:
		out = append(out, KindBomb)
	case combo == 5:
		out = append(out, KindMultiply2x)
	case combo >= 7 && combo%2 == 1:
		out = append(out, KindMultiply3x)
	}
	return out
}
