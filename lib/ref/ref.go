// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// RoomID is a validated Matrix room ID (e.g., "!abc123:grindhall.gg").
//
// Room IDs are server-assigned opaque identifiers. They always start
// with '!' and contain a ':' separating the opaque local part from the
// server name. Partyfinder never constructs room IDs itself — they
// arrive from the homeserver via room creation and /sync responses and
// are parsed into this type at the boundary.
//
// RoomID is an immutable value type. The zero value is not valid; use
// IsZero to check.
type RoomID struct {
	id string
}

// ParseRoomID validates and wraps a raw Matrix room ID string.
func ParseRoomID(raw string) (RoomID, error) {
	if raw == "" {
		return RoomID{}, fmt.Errorf("empty room ID")
	}
	if raw[0] != '!' {
		return RoomID{}, fmt.Errorf("room ID must start with '!': %q", raw)
	}
	local, server, found := strings.Cut(raw[1:], ":")
	if !found {
		return RoomID{}, fmt.Errorf("room ID missing ':server' suffix: %q", raw)
	}
	if local == "" {
		return RoomID{}, fmt.Errorf("room ID has empty local part: %q", raw)
	}
	if server == "" {
		return RoomID{}, fmt.Errorf("room ID has empty server name: %q", raw)
	}
	return RoomID{id: raw}, nil
}

// MustParseRoomID parses a known-good room ID, panicking on error.
// For test setup and compile-time constants only.
func MustParseRoomID(raw string) RoomID {
	roomID, err := ParseRoomID(raw)
	if err != nil {
		panic(fmt.Sprintf("MustParseRoomID(%q): %v", raw, err))
	}
	return roomID
}

// String returns the full room ID string.
func (r RoomID) String() string { return r.id }

// IsZero reports whether the RoomID is the zero value (uninitialized).
func (r RoomID) IsZero() bool { return r.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (r RoomID) MarshalText() ([]byte, error) { return []byte(r.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler with validation.
func (r *RoomID) UnmarshalText(text []byte) error {
	parsed, err := ParseRoomID(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UserID is a validated Matrix user ID (e.g., "@koozy:grindhall.gg").
//
// A Matrix user ID always starts with '@' and contains a ':'
// separating the localpart from the server name. The type validates
// structure only — any homeserver's users are acceptable.
//
// UserID is an immutable value type. The zero value is not valid; use
// IsZero to check.
type UserID struct {
	id string
}

// ParseUserID validates and wraps a raw Matrix user ID string.
func ParseUserID(raw string) (UserID, error) {
	if raw == "" {
		return UserID{}, fmt.Errorf("empty user ID")
	}
	if raw[0] != '@' {
		return UserID{}, fmt.Errorf("user ID must start with '@': %q", raw)
	}
	local, server, found := strings.Cut(raw[1:], ":")
	if !found {
		return UserID{}, fmt.Errorf("user ID missing ':server' suffix: %q", raw)
	}
	if local == "" {
		return UserID{}, fmt.Errorf("user ID has empty localpart: %q", raw)
	}
	if server == "" {
		return UserID{}, fmt.Errorf("user ID has empty server name: %q", raw)
	}
	return UserID{id: raw}, nil
}

// MustParseUserID parses a known-good user ID, panicking on error.
// For test setup and compile-time constants only.
func MustParseUserID(raw string) UserID {
	userID, err := ParseUserID(raw)
	if err != nil {
		panic(fmt.Sprintf("MustParseUserID(%q): %v", raw, err))
	}
	return userID
}

// String returns the full user ID string.
func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is the zero value (uninitialized).
func (u UserID) IsZero() bool { return u.id == "" }

// Localpart returns the localpart portion of the user ID (without the
// '@' prefix or ':server' suffix). Panics on a zero-value UserID.
func (u UserID) Localpart() string {
	if u.id == "" {
		panic("UserID.Localpart called on zero value")
	}
	local, _, _ := strings.Cut(u.id[1:], ":")
	return local
}

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) { return []byte(u.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler with validation.
func (u *UserID) UnmarshalText(text []byte) error {
	parsed, err := ParseUserID(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// EventID is a validated Matrix event ID
// (e.g., "$Rqnc-F-dvnEYJTyHq_iKxU2bZ1CI92-kuZq3a5lr5Zg").
//
// Event IDs are server-assigned and always start with '$'. Room
// version 3+ event IDs carry no server name, so only the sigil is
// checked. Display surfaces are keyed by the event ID of the roster
// message, so this type doubles as the party store key.
//
// EventID is an immutable value type. The zero value is not valid; use
// IsZero to check.
type EventID struct {
	id string
}

// ParseEventID validates and wraps a raw Matrix event ID string.
func ParseEventID(raw string) (EventID, error) {
	if raw == "" {
		return EventID{}, fmt.Errorf("empty event ID")
	}
	if raw[0] != '$' {
		return EventID{}, fmt.Errorf("event ID must start with '$': %q", raw)
	}
	if len(raw) == 1 {
		return EventID{}, fmt.Errorf("event ID has no content: %q", raw)
	}
	return EventID{id: raw}, nil
}

// MustParseEventID parses a known-good event ID, panicking on error.
// For test setup and compile-time constants only.
func MustParseEventID(raw string) EventID {
	eventID, err := ParseEventID(raw)
	if err != nil {
		panic(fmt.Sprintf("MustParseEventID(%q): %v", raw, err))
	}
	return eventID
}

// String returns the full event ID string.
func (e EventID) String() string { return e.id }

// IsZero reports whether the EventID is the zero value (uninitialized).
func (e EventID) IsZero() bool { return e.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (e EventID) MarshalText() ([]byte, error) { return []byte(e.id), nil }

// UnmarshalText implements encoding.TextUnmarshaler with validation.
func (e *EventID) UnmarshalText(text []byte) error {
	parsed, err := ParseEventID(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// EventType identifies a Matrix event type (e.g., "m.room.message").
//
// EventType is a named string type, not a struct wrapper: event types
// are opaque identifiers that need no parsing. The type exists purely
// for compile-time safety — preventing accidental use of a state key
// or message body where an event type is expected.
type EventType string

// String returns the event type string.
func (t EventType) String() string { return string(t) }
