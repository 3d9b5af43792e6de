// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"context"

	"github.com/grindhall/partyfinder/lib/ref"
)

// Announcement is what the teardown coordinator publishes when a
// party becomes ready.
type Announcement struct {
	// Body is the announcement text, without mention markup; the
	// platform adds its own mention rendering.
	Body string
	// Members are mentioned individually.
	Members []ref.UserID
	// NotifyRole is the archetype's subscriber role.
	NotifyRole string
}

// Platform is the display surface the roster lives on. All rendering
// side effects go through it; the Matrix implementation lives in
// cmd/partyfinder, tests use a fake.
type Platform interface {
	// ShowInitial publishes a new roster view and returns the
	// surface identifier the roster will be keyed by.
	ShowInitial(ctx context.Context, room ref.RoomID, view View) (ref.EventID, error)

	// UpdateSurface replaces the view on an existing surface.
	UpdateSurface(ctx context.Context, room ref.RoomID, surface ref.EventID, view View) error

	// DeleteSurface removes the surface entirely.
	DeleteSurface(ctx context.Context, room ref.RoomID, surface ref.EventID, reason string) error

	// NotifyPrivately delivers a rejection notice to one user,
	// invisible to the rest of the room.
	NotifyPrivately(ctx context.Context, user ref.UserID, text string) error

	// Announce publishes a ready announcement in the room and
	// returns its event, which anchors the discussion thread.
	Announce(ctx context.Context, room ref.RoomID, announcement Announcement) (ref.EventID, error)

	// OpenDiscussion starts a discussion thread on the root event
	// and posts the greeting into it.
	OpenDiscussion(ctx context.Context, room ref.RoomID, root ref.EventID, greeting string) error

	// DeleteDiscussion removes a discussion thread, or locks it away
	// as best it can where deletion is not permitted.
	DeleteDiscussion(ctx context.Context, room ref.RoomID, root ref.EventID) error

	// PostNotice posts an inline warning in the room, visible to
	// everyone.
	PostNotice(ctx context.Context, room ref.RoomID, text string) error
}
