// internal/words/words.go
//
// Dictionary oracle for word validation.
//
// Responsibilities:
//   - Load the word list asynchronously (file from WORDS_FILE, or the embedded default).
//   - Answer IsValid(word) in O(1), case-insensitively.
//   - Fail closed: before the load completes every query is false (with a one-time warning).
//
// Load behavior:
//   1. If a path is given, read it one word per line.
//   2. Otherwise use the embedded list from the assets package.
//   3. A failed load is logged and replaced by an empty set, so every word is rejected
//      instead of the session crashing.
//
// Constraints:
//   • Lines that are blank, start with '#', or contain non-letters (e.g. a list header) are skipped.
//   • Words are stored uppercase.
//   • Load runs once per Dictionary (sync.Once).

package words

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hexgem/assets"
)

// Dictionary is a word-validity oracle that becomes usable after Load completes.
type Dictionary struct {
	once   sync.Once
	ready  chan struct{}
	set    atomic.Pointer[map[string]struct{}]
	warned atomic.Bool
	log    zerolog.Logger
}

// New returns an unloaded dictionary.
func New() *Dictionary {
	return &Dictionary{
		ready: make(chan struct{}),
		log:   log.With().Str("component", "dictionary").Logger(),
	}
}

// FromWords returns a dictionary that is already loaded with list.
func FromWords(list []string) *Dictionary {
	d := New()
	d.once.Do(func() { d.install(toSet(list)) })
	return d
}

// Load starts loading the dictionary in the background and returns immediately.
// path may be empty to use the embedded default. Only the first call has any effect.
func (d *Dictionary) Load(path string) {
	d.once.Do(func() {
		go func() {
			list, err := readList(path)
			if err != nil {
				d.log.Error().Err(err).Str("path", path).Msg("failed to load dictionary, rejecting all words")
				list = nil
			}
			d.install(toSet(list))
			d.log.Info().Int("words", d.Size()).Msg("dictionary loaded")
		}()
	})
}

func (d *Dictionary) install(set map[string]struct{}) {
	d.set.Store(&set)
	close(d.ready)
}

// Wait blocks until the dictionary is loaded or ctx is done.
func (d *Dictionary) Wait(ctx context.Context) error {
	select {
	case <-d.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Loaded reports whether a load has completed (successfully or not).
func (d *Dictionary) Loaded() bool {
	return d.set.Load() != nil
}

// IsValid reports whether word is in the dictionary.
// Before the load completes it returns false and logs a warning once.
func (d *Dictionary) IsValid(word string) bool {
	set := d.set.Load()
	if set == nil {
		if d.warned.CompareAndSwap(false, true) {
			d.log.Warn().Msg("dictionary not loaded yet")
		}
		return false
	}
	_, ok := (*set)[strings.ToUpper(word)]
	return ok
}

// Size returns the number of loaded words (0 before load).
func (d *Dictionary) Size() int {
	set := d.set.Load()
	if set == nil {
		return 0
	}
	return len(*set)
}

func readList(path string) ([]string, error) {
	if path == "" {
		return assets.WordList()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out, sc.Err()
}

// toSet normalizes list into an uppercase lookup set, dropping non-words.
func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, line := range list {
		w := strings.ToUpper(strings.TrimSpace(line))
		if w == "" || strings.HasPrefix(w, "#") || !isAlpha(w) {
			continue
		}
		m[w] = struct{}{}
	}
	return m
}

// isAlpha reports whether s is all uppercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
