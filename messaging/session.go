// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"

	"github.com/grindhall/partyfinder/lib/ref"
)

// Session is an authenticated Matrix session. It covers the
// operations the partyfinder service performs; tests substitute a
// fake, production uses DirectSession.
type Session interface {
	// UserID returns the user this session is authenticated as.
	UserID() ref.UserID

	// WhoAmI verifies the session's token with the homeserver.
	WhoAmI(ctx context.Context) (*WhoAmIResponse, error)

	// SendMessage sends an m.room.message event and returns its
	// event ID.
	SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error)

	// SendEvent sends an arbitrary event of the given type.
	SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content any) (ref.EventID, error)

	// RedactEvent redacts an event, removing its content.
	RedactEvent(ctx context.Context, roomID ref.RoomID, eventID ref.EventID, reason string) (ref.EventID, error)

	// CreateRoom creates a new room.
	CreateRoom(ctx context.Context, request CreateRoomRequest) (ref.RoomID, error)

	// InviteUser invites a user to a room.
	InviteUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error

	// JoinRoom joins a room the session was invited to.
	JoinRoom(ctx context.Context, roomID ref.RoomID) error

	// GetDisplayName fetches a user's profile display name.
	GetDisplayName(ctx context.Context, userID ref.UserID) (string, error)

	// Sync long-polls /sync. since is empty for the initial sync;
	// timeout is the server-side wait in milliseconds.
	Sync(ctx context.Context, since, filter string, timeout int) (*SyncResponse, error)

	// Close releases session resources. It does not log out; the
	// access token stays valid.
	Close() error
}

var _ Session = (*DirectSession)(nil)
