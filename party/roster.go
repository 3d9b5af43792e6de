// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"errors"
	"fmt"
	"time"

	"github.com/grindhall/partyfinder/lib/ref"
)

// State is the lifecycle state of a roster.
type State string

const (
	// Forming accepts joins, class picks, and cancellation.
	Forming State = "forming"
	// Ready is terminal: the party was finalized and announced.
	Ready State = "ready"
	// Cancelled is terminal: the owner tore the party down.
	Cancelled State = "cancelled"
)

// Rejection reasons returned by roster and store operations. The
// router turns these into private notices; they are worded for the
// user who triggered them.
var (
	ErrCapacityRange    = fmt.Errorf("party size must be between %d and %d", MinCapacity, MaxCapacity)
	ErrPartyFull        = errors.New("this party is already full")
	ErrAlreadyJoined    = errors.New("you are already in this party")
	ErrNotMember        = errors.New("you are not in this party")
	ErrNotOwner         = errors.New("only the party owner can do that")
	ErrClosed           = errors.New("this party is no longer forming")
	ErrNeedUnsupported  = errors.New("this party type does not take a needed class")
	ErrUnknownClass     = errors.New("that is not a recognized class")
	ErrUnknownArchetype = errors.New("that is not a recognized party type")
	ErrUnknownSurface   = errors.New("that party no longer exists")
)

// Member is one roster slot: a user and the class they declared.
type Member struct {
	User  ref.UserID
	Class string
}

// Roster is a single party session. It is pure state: no locking (the
// Store serializes access) and no platform calls.
type Roster struct {
	Room      ref.RoomID
	Owner     ref.UserID
	Archetype Archetype
	Capacity  int
	CreatedAt time.Time

	// Surface is the display message the roster is keyed by. Set
	// once the initial view has been posted.
	Surface ref.EventID

	// Discussion is the thread opened when the party became ready.
	// Zero until promotion, and zero afterward if opening the thread
	// failed.
	Discussion ref.EventID

	// NeededClass is the owner's declared want, for archetypes that
	// support it.
	NeededClass string

	state   State
	members []Member
	index   map[ref.UserID]int
}

// NewRoster opens a forming roster. The owner occupies the first slot
// with the pending class placeholder.
func NewRoster(archetype Archetype, room ref.RoomID, owner ref.UserID, capacity int, now time.Time) (*Roster, error) {
	if capacity < MinCapacity || capacity > MaxCapacity {
		return nil, ErrCapacityRange
	}
	roster := &Roster{
		Room:      room,
		Owner:     owner,
		Archetype: archetype,
		Capacity:  capacity,
		CreatedAt: now,
		state:     Forming,
		index:     make(map[ref.UserID]int),
	}
	roster.members = append(roster.members, Member{User: owner, Class: PendingClass})
	roster.index[owner] = 0
	return roster, nil
}

// State returns the lifecycle state.
func (r *Roster) State() State {
	return r.state
}

// Members returns the roster slots in join order. The returned slice
// is a copy.
func (r *Roster) Members() []Member {
	return append([]Member(nil), r.members...)
}

// Size returns the number of filled slots.
func (r *Roster) Size() int {
	return len(r.members)
}

// IsFull reports whether every slot is taken.
func (r *Roster) IsFull() bool {
	return len(r.members) >= r.Capacity
}

// Has reports whether the user holds a slot.
func (r *Roster) Has(user ref.UserID) bool {
	_, ok := r.index[user]
	return ok
}

// Join admits a user into the next free slot. Capacity and membership
// are checked here, under the store's entry lock, so concurrent joins
// can never overshoot the capacity.
func (r *Roster) Join(user ref.UserID, class string) error {
	if r.state != Forming {
		return ErrClosed
	}
	if r.Has(user) {
		return ErrAlreadyJoined
	}
	if r.IsFull() {
		return ErrPartyFull
	}
	r.index[user] = len(r.members)
	r.members = append(r.members, Member{User: user, Class: class})
	return nil
}

// SetClass updates the class of an existing member, the owner
// included. Picking again overwrites the previous choice.
func (r *Roster) SetClass(user ref.UserID, class string) error {
	if r.state != Forming {
		return ErrClosed
	}
	position, ok := r.index[user]
	if !ok {
		return ErrNotMember
	}
	r.members[position].Class = class
	return nil
}

// SetNeededClass records the owner's wanted class. Only valid for
// archetypes that declare needed-class support; may be changed any
// number of times while forming.
func (r *Roster) SetNeededClass(class string) error {
	if r.state != Forming {
		return ErrClosed
	}
	if !r.Archetype.NeedsClass {
		return ErrNeedUnsupported
	}
	if !r.Archetype.NeededChoice(class) {
		return fmt.Errorf("%w: pick one of %v", ErrUnknownClass, r.Archetype.NeededChoices)
	}
	r.NeededClass = class
	return nil
}

// IsReady reports whether a completion condition holds: every slot
// filled, or some member holding the needed class. Recomputed after
// every accepted mutation; the caller fires the Ready transition at
// most once because promotion removes the roster from the store.
func (r *Roster) IsReady() bool {
	if r.IsFull() {
		return true
	}
	if r.NeededClass == "" {
		return false
	}
	for _, member := range r.members {
		if member.Class == r.NeededClass {
			return true
		}
	}
	return false
}

// MarkReady transitions the roster to its terminal Ready state.
func (r *Roster) MarkReady() error {
	if r.state != Forming {
		return ErrClosed
	}
	r.state = Ready
	return nil
}

// MarkCancelled transitions the roster to its terminal Cancelled
// state.
func (r *Roster) MarkCancelled() error {
	if r.state != Forming {
		return ErrClosed
	}
	r.state = Cancelled
	return nil
}
