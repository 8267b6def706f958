package main

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/hexgem/internal/game"
)

const (
	saveObject   = "profile"
	saveProperty = "record"
)

// record is the player's local history, stored as YAML.
type record struct {
	BestScore      int            `yaml:"bestScore"`
	BestWord       string         `yaml:"bestWord"`
	BestWordPoints int            `yaml:"bestWordPoints"`
	Runs           int            `yaml:"runs"`
	WordsFound     int            `yaml:"wordsFound"`
	Daily          map[string]int `yaml:"daily,omitempty"` // date -> best score
}

// saves persists a record through gdata. A nil manager keeps it in memory only.
type saves struct {
	m   *gdata.Manager
	rec record
}

func openSaves(appName string) *saves {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Warn().Err(err).Msg("save data unavailable, progress will not persist")
		m = nil
	}
	s := &saves{m: m}
	if err := s.load(); err != nil {
		log.Warn().Err(err).Msg("failed to load save data")
	}
	return s
}

func (s *saves) load() error {
	if s.m == nil || !s.m.ObjectPropExists(saveObject, saveProperty) {
		return nil
	}
	data, err := s.m.LoadObjectProp(saveObject, saveProperty)
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}
	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	s.rec = rec
	return nil
}

func (s *saves) save() error {
	if s.m == nil {
		return nil
	}
	data, err := yaml.Marshal(s.rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return s.m.SaveObjectProp(saveObject, saveProperty, data)
}

// Best returns the best score so far.
func (s *saves) Best() int { return s.rec.BestScore }

// Record folds a finished run in and persists it. dailyKey is empty for free
// play. It reports whether the run set a new best score.
func (s *saves) Record(st game.Stats, dailyKey string) bool {
	s.rec.Runs++
	s.rec.WordsFound += st.WordsFound
	if st.TopWordPoints > s.rec.BestWordPoints {
		s.rec.BestWord, s.rec.BestWordPoints = st.TopWord, st.TopWordPoints
	}
	if dailyKey != "" {
		if s.rec.Daily == nil {
			s.rec.Daily = make(map[string]int)
		}
		if st.Score > s.rec.Daily[dailyKey] {
			s.rec.Daily[dailyKey] = st.Score
		}
	}
	best := st.Score > s.rec.BestScore
	if best {
		s.rec.BestScore = st.Score
	}
	if err := s.save(); err != nil {
		log.Warn().Err(err).Msg("failed to save record")
	}
	return best
}
