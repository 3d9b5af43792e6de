// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"errors"
	"sync"
	"time"

	"github.com/grindhall/partyfinder/lib/ref"
)

// ErrDuplicateSurface is returned when a roster is added under a
// surface that already has one.
var ErrDuplicateSurface = errors.New("a party already exists for this surface")

// Store holds the active rosters, keyed by their display surface.
//
// Each roster has its own lock, held for the whole of a With call.
// Mutation and the platform calls that publish it happen under that
// lock, so two actions on the same roster can never interleave, while
// actions on different rosters run concurrently.
type Store struct {
	mu      sync.Mutex
	entries map[ref.EventID]*storeEntry
}

type storeEntry struct {
	mu      sync.Mutex
	roster  *Roster
	removed bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[ref.EventID]*storeEntry)}
}

// Add registers a roster under its surface.
func (s *Store) Add(roster *Roster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[roster.Surface]; exists {
		return ErrDuplicateSurface
	}
	s.entries[roster.Surface] = &storeEntry{roster: roster}
	return nil
}

// With runs fn against the roster for surface, holding that roster's
// lock for the duration. If fn returns remove=true the roster is
// unregistered before the lock is released, regardless of fn's error.
// A caller that raced a removal gets ErrUnknownSurface.
func (s *Store) With(surface ref.EventID, fn func(roster *Roster) (remove bool, err error)) error {
	s.mu.Lock()
	entry, ok := s.entries[surface]
	s.mu.Unlock()
	if !ok {
		return ErrUnknownSurface
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	// The entry may have been removed between the map lookup and
	// acquiring its lock.
	if entry.removed {
		return ErrUnknownSurface
	}

	remove, err := fn(entry.roster)
	if remove {
		entry.removed = true
		s.mu.Lock()
		delete(s.entries, surface)
		s.mu.Unlock()
	}
	return err
}

// Len returns the number of active rosters.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Summary is a point-in-time snapshot of one roster, for the control
// socket.
type Summary struct {
	Surface   ref.EventID `cbor:"surface" json:"surface"`
	Room      ref.RoomID  `cbor:"room" json:"room"`
	Owner     ref.UserID  `cbor:"owner" json:"owner"`
	Archetype string      `cbor:"archetype" json:"archetype"`
	Size      int         `cbor:"size" json:"size"`
	Capacity  int         `cbor:"capacity" json:"capacity"`
	State     State       `cbor:"state" json:"state"`
	CreatedAt time.Time   `cbor:"created_at" json:"created_at"`
}

func summarize(roster *Roster) Summary {
	return Summary{
		Surface:   roster.Surface,
		Room:      roster.Room,
		Owner:     roster.Owner,
		Archetype: roster.Archetype.Name,
		Size:      roster.Size(),
		Capacity:  roster.Capacity,
		State:     roster.State(),
		CreatedAt: roster.CreatedAt,
	}
}

// Snapshot returns summaries of all active rosters. Each roster's
// lock is taken briefly; the result is consistent per roster, not
// across rosters.
func (s *Store) Snapshot() []Summary {
	s.mu.Lock()
	entries := make([]*storeEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	s.mu.Unlock()

	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		if !entry.removed {
			summaries = append(summaries, summarize(entry.roster))
		}
		entry.mu.Unlock()
	}
	return summaries
}

// SurfacesInRoom returns the surfaces of active rosters in a room, in
// no particular order.
func (s *Store) SurfacesInRoom(room ref.RoomID) []ref.EventID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var surfaces []ref.EventID
	for surface, entry := range s.entries {
		if entry.roster.Room == room {
			surfaces = append(surfaces, surface)
		}
	}
	return surfaces
}
