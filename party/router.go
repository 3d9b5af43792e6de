// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/grindhall/partyfinder/lib/ref"
)

// ActionKind identifies an inbound user action.
type ActionKind string

const (
	ActionCreate   ActionKind = "create"
	ActionJoin     ActionKind = "join"
	ActionSetClass ActionKind = "class"
	ActionSetNeed  ActionKind = "need"
	ActionCancel   ActionKind = "cancel"
)

// Action is one inbound user action, already parsed by the transport.
type Action struct {
	Kind  ActionKind
	Actor ref.UserID
	Room  ref.RoomID

	// Surface targets an existing roster. Unused for ActionCreate.
	Surface ref.EventID

	// Archetype and Capacity apply to ActionCreate.
	Archetype string
	Capacity  int

	// Class applies to ActionJoin (optional), ActionSetClass, and
	// ActionSetNeed.
	Class string
}

// Router validates inbound actions, applies them against the store,
// and publishes the results through the platform. Rejections go back
// to the acting user as private notices, never into the room.
type Router struct {
	store    *Store
	config   *Config
	platform Platform
	teardown *Teardown
	logger   *slog.Logger
	now      func() time.Time
}

// NewRouter creates a router. now supplies roster creation
// timestamps.
func NewRouter(store *Store, config *Config, platform Platform, teardown *Teardown, logger *slog.Logger, now func() time.Time) *Router {
	return &Router{
		store:    store,
		config:   config,
		platform: platform,
		teardown: teardown,
		logger:   logger,
		now:      now,
	}
}

// HandleAction applies one action. A nil return means the action was
// fully handled, including the rejection path; a non-nil return means
// something beyond the user's control failed (a platform call, not a
// rule violation).
func (rt *Router) HandleAction(ctx context.Context, action Action) error {
	if action.Kind == ActionCreate {
		return rt.handleCreate(ctx, action)
	}

	err := rt.store.With(action.Surface, func(roster *Roster) (bool, error) {
		return rt.applyToRoster(ctx, action, roster)
	})
	if errors.Is(err, ErrUnknownSurface) {
		return rt.reject(ctx, action.Actor, err)
	}
	return err
}

func (rt *Router) handleCreate(ctx context.Context, action Action) error {
	archetype, ok := rt.config.Archetype(action.Archetype)
	if !ok {
		return rt.reject(ctx, action.Actor, fmt.Errorf("%w: %q", ErrUnknownArchetype, action.Archetype))
	}
	roster, err := NewRoster(archetype, action.Room, action.Actor, action.Capacity, rt.now())
	if err != nil {
		return rt.reject(ctx, action.Actor, err)
	}

	view := Render(roster, rt.config)
	surface, err := rt.platform.ShowInitial(ctx, action.Room, view)
	if err != nil {
		return fmt.Errorf("publishing roster: %w", err)
	}
	roster.Surface = surface
	if err := rt.store.Add(roster); err != nil {
		return fmt.Errorf("registering roster %s: %w", surface, err)
	}

	// The recruitment ping: subscribers of the notify role learn a
	// party is forming while there are still slots to fill.
	ping := Announcement{
		Body:       fmt.Sprintf("%s party created!", archetype.Name),
		NotifyRole: archetype.NotifyRole,
	}
	if _, err := rt.platform.Announce(ctx, action.Room, ping); err != nil {
		rt.logger.Warn("creation announcement failed",
			"surface", surface,
			"error", err)
	}

	rt.logger.Info("party created",
		"surface", surface,
		"room", action.Room,
		"owner", action.Actor,
		"archetype", archetype.Name,
		"capacity", roster.Capacity)
	return nil
}

// applyToRoster runs under the roster's store lock. It returns
// remove=true for the terminal transitions.
func (rt *Router) applyToRoster(ctx context.Context, action Action, roster *Roster) (bool, error) {
	switch action.Kind {
	case ActionJoin:
		// Joining always commits to a class; the pending placeholder
		// is reserved for the owner's auto-filled slot.
		if !rt.config.KnownClass(action.Class) {
			return false, rt.reject(ctx, action.Actor, fmt.Errorf("%w: %q", ErrUnknownClass, action.Class))
		}
		if err := roster.Join(action.Actor, action.Class); err != nil {
			return false, rt.reject(ctx, action.Actor, err)
		}

	case ActionSetClass:
		// The class pick is the owner refining their own reserved
		// slot; everyone else commits to a class when joining.
		if action.Actor != roster.Owner {
			return false, rt.reject(ctx, action.Actor, ErrNotOwner)
		}
		if !rt.config.KnownClass(action.Class) {
			return false, rt.reject(ctx, action.Actor, fmt.Errorf("%w: %q", ErrUnknownClass, action.Class))
		}
		if err := roster.SetClass(action.Actor, action.Class); err != nil {
			return false, rt.reject(ctx, action.Actor, err)
		}

	case ActionSetNeed:
		if action.Actor != roster.Owner {
			return false, rt.reject(ctx, action.Actor, ErrNotOwner)
		}
		if err := roster.SetNeededClass(action.Class); err != nil {
			return false, rt.reject(ctx, action.Actor, err)
		}

	case ActionCancel:
		if action.Actor != roster.Owner {
			return false, rt.reject(ctx, action.Actor, ErrNotOwner)
		}
		rt.teardown.Cancel(ctx, roster)
		return true, nil

	default:
		return false, fmt.Errorf("unhandled action kind %q", action.Kind)
	}

	// Completion is recomputed after every accepted mutation: a join
	// can fill the party, and an owner pick or needed-class change
	// can satisfy the needed-class condition.
	if roster.IsReady() {
		return true, rt.teardown.Promote(ctx, roster)
	}

	// Mutation applied; publish the new view before releasing the
	// roster lock so surface updates are never reordered.
	view := Render(roster, rt.config)
	if err := rt.platform.UpdateSurface(ctx, roster.Room, roster.Surface, view); err != nil {
		return false, fmt.Errorf("updating surface %s: %w", roster.Surface, err)
	}
	return false, nil
}

// reject delivers a rule violation to the acting user privately. The
// rejection itself succeeding is all that matters; delivery failures
// are logged and swallowed.
func (rt *Router) reject(ctx context.Context, actor ref.UserID, reason error) error {
	if err := rt.platform.NotifyPrivately(ctx, actor, reason.Error()); err != nil {
		rt.logger.Warn("failed to deliver rejection notice",
			"user", actor,
			"reason", reason,
			"error", err)
	}
	return nil
}
