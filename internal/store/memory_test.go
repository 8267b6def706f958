package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/hexgem/internal/game"
	"github.com/robalobadob/hexgem/internal/room"
)

func newEntry(id string) *Entry {
	nop := zerolog.Nop()
	s := game.NewSession(game.Options{Logger: &nop, Seed: 1})
	return &Entry{
		Room: room.New(room.Config{ID: id, Session: s, Logger: &nop}),
		Mode: "free",
	}
}

func TestPutGetRemove(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	e := newEntry("a")
	if err := m.Put(ctx, e); err != nil {
		t.Fatal(err)
	}
	got, err := m.Get(ctx, "a")
	if err != nil || got != e {
		t.Fatalf("Get: %v %v", got, err)
	}
	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := m.Remove(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-e.Room.Done():
	default:
		t.Error("removed room was not stopped")
	}
	if err := m.Remove(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove: %v", err)
	}
	if m.Len() != 0 {
		t.Errorf("expected empty store, got %d", m.Len())
	}
}

func TestReap(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	a, b := newEntry("a"), newEntry("b")
	_ = m.Put(ctx, a)
	_ = m.Put(ctx, b)

	if n := m.Reap(time.Now().Add(10*time.Minute), 5*time.Minute); n != 2 {
		t.Fatalf("expected both rooms reaped at +10m, got %d", n)
	}
	if m.Len() != 0 {
		t.Errorf("expected empty store, got %d", m.Len())
	}
	select {
	case <-a.Room.Done():
	default:
		t.Error("reaped room was not stopped")
	}

	keep := newEntry("keep")
	_ = m.Put(ctx, keep)
	if n := m.Reap(time.Now(), time.Minute); n != 0 {
		t.Errorf("reaped an active room")
	}
	m.Close()
	select {
	case <-keep.Room.Done():
	default:
		t.Error("Close did not stop rooms")
	}
}
