package game

import "time"

// Submit plays the current chain. A short or unknown word clears the chain
// and changes nothing else.
func (s *Session) Submit() Result {
	word := s.Word()
	res := Result{Word: word, Level: s.level, Combo: s.combo}
	if !s.running {
		res.Reason = ReasonNotRunning
		return res
	}
	if len(s.chain) == 0 {
		res.Reason = ReasonEmpty
		return res
	}
	if len(word) < s.tun.MinWordLength {
		s.clearSelection()
		res.Reason = ReasonTooShort
		return res
	}
	if !s.validWord(word) {
		s.clearSelection()
		res.Reason = ReasonNotAWord
		return res
	}

	now := s.clock.Now()
	played := s.chainTiles()

	if !s.lastWord.IsZero() && now.Sub(s.lastWord) <= s.tun.ComboWindow {
		s.combo++
	} else {
		s.combo = 1
	}
	s.lastWord = now
	s.comboLeft = s.tun.ComboWindow
	s.wordsFound++
	s.wordsThisLevel++

	vs := make([]Variant, len(played))
	for i, t := range played {
		vs[i] = t.Variant
	}
	res.Base = BaseScore(word)
	res.LengthMult = LengthMultiplier(len(word))
	res.GemMult = GemMultiplier(vs...)
	res.ComboMult = ComboMultiplier(s.combo)
	res.Points = WordPoints(word, res.GemMult, s.combo)
	res.Combo = s.combo
	res.Accepted = true
	s.score += res.Points

	if lvl := LevelFor(s.score, s.tun.LevelThresholds); lvl > s.level {
		s.level = lvl
		s.wordsThisLevel = 0
		res.LevelUp = true
		s.log.Info().Int("level", lvl).Int("score", s.score).Msg("level up")
	}
	res.Level = s.level

	for _, k := range Rewards(len(word), s.combo) {
		if s.spawnBonus(k, now) != nil {
			res.Rewards = append(res.Rewards, k)
		}
	}

	if s.topWord == "" || res.Points > s.topPoints {
		s.topWord, s.topPoints = word, res.Points
	}

	// Chain order is selection order.
	type blast struct {
		id TileID
		at Vec
	}
	var bombs []blast
	for i, t := range played {
		s.queuePop(t.ID, now, time.Duration(i)*s.tun.PopStagger)
		if t.Kind() == KindBomb {
			bombs = append(bombs, blast{t.ID, t.Position()})
		}
	}
	res.Bombs = len(bombs)
	if len(bombs) > 0 {
		after := time.Duration(len(played)) * s.tun.PopStagger
		s.sched.at(now.Add(after), func(time.Time) {
			for _, b := range bombs {
				s.pushExplosion(b.id, b.at)
			}
		})
	}

	s.clearSelection()
	s.log.Debug().Str("word", word).Int("points", res.Points).Int("combo", s.combo).Msg("word played")
	s.changed()
	return res
}

func (s *Session) validWord(word string) bool {
	if s.dict == nil {
		s.warnOnce("dictionary", "no dictionary, rejecting word")
		return false
	}
	return s.dict.IsValid(word)
}

// CurrentWordValid reports whether submitting now would be accepted.
func (s *Session) CurrentWordValid() bool {
	w := s.Word()
	if len(w) < s.tun.MinWordLength || s.dict == nil {
		return false
	}
	return s.dict.IsValid(w)
}

// PotentialScore is what the current chain would score if played now.
// It is 0 for a chain that would be rejected.
func (s *Session) PotentialScore() int {
	if !s.CurrentWordValid() {
		return 0
	}
	combo := 1
	if !s.lastWord.IsZero() && s.clock.Now().Sub(s.lastWord) <= s.tun.ComboWindow {
		combo = s.combo + 1
	}
	tiles := s.chainTiles()
	vs := make([]Variant, len(tiles))
	for i, t := range tiles {
		vs[i] = t.Variant
	}
	return WordPoints(s.Word(), GemMultiplier(vs...), combo)
}
