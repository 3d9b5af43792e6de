// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"

	"github.com/grindhall/partyfinder/lib/ref"
)

// MessageContent is the content of an m.room.message event.
type MessageContent struct {
	MsgType       string          `json:"msgtype"`
	Body          string          `json:"body"`
	Format        string          `json:"format,omitempty"`
	FormattedBody string          `json:"formatted_body,omitempty"`
	RelatesTo     *RelatesTo      `json:"m.relates_to,omitempty"`
	Mentions      *Mentions       `json:"m.mentions,omitempty"`
	NewContent    *MessageContent `json:"m.new_content,omitempty"`
}

// Mentions declares which users (or the whole room) a message
// intentionally mentions, per the m.mentions spec.
type Mentions struct {
	UserIDs []ref.UserID `json:"user_ids,omitempty"`
	Room    bool         `json:"room,omitempty"`
}

// RelatesTo describes a relationship to another event: a thread, an
// edit (m.replace), or a rich reply.
type RelatesTo struct {
	RelType   string      `json:"rel_type,omitempty"`
	EventID   ref.EventID `json:"event_id,omitzero"`
	InReplyTo *InReplyTo  `json:"m.in_reply_to,omitempty"`
	// IsFallingBack marks the in_reply_to on a thread message as a
	// fallback for clients without thread support.
	IsFallingBack bool `json:"is_falling_back,omitempty"`
}

// InReplyTo identifies the event a rich reply targets.
type InReplyTo struct {
	EventID ref.EventID `json:"event_id"`
}

// Relation type constants.
const (
	RelThread  = "m.thread"
	RelReplace = "m.replace"
)

// FormatHTML is the only format value defined by the Matrix spec for
// formatted_body.
const FormatHTML = "org.matrix.custom.html"

// NewTextMessage builds a plain m.text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{MsgType: "m.text", Body: body}
}

// NewNotice builds an m.notice message. Notices are for automated
// output; clients render them dimmed and bots ignore them, which
// prevents feedback loops between bots.
func NewNotice(body string) MessageContent {
	return MessageContent{MsgType: "m.notice", Body: body}
}

// NewHTMLMessage builds an m.text message with an HTML rendering. The
// plain body is the fallback for clients that do not render HTML.
func NewHTMLMessage(body, htmlBody string) MessageContent {
	return MessageContent{
		MsgType:       "m.text",
		Body:          body,
		Format:        FormatHTML,
		FormattedBody: htmlBody,
	}
}

// NewThreadReply builds a message posted into the thread rooted at
// root. The in_reply_to fallback points at the root so thread-unaware
// clients show it as a reply.
func NewThreadReply(root ref.EventID, body string) MessageContent {
	content := NewTextMessage(body)
	content.RelatesTo = &RelatesTo{
		RelType:       RelThread,
		EventID:       root,
		InReplyTo:     &InReplyTo{EventID: root},
		IsFallingBack: true,
	}
	return content
}

// NewEdit builds an m.replace edit of the event target. The outer
// body carries the conventional "* " fallback prefix; m.new_content
// holds the replacement.
func NewEdit(target ref.EventID, replacement MessageContent) MessageContent {
	inner := replacement
	content := replacement
	content.Body = "* " + replacement.Body
	if replacement.FormattedBody != "" {
		content.FormattedBody = "* " + replacement.FormattedBody
	}
	content.RelatesTo = &RelatesTo{RelType: RelReplace, EventID: target}
	content.NewContent = &inner
	return content
}

// Event is a single event in a room timeline or state section.
type Event struct {
	Type     ref.EventType   `json:"type"`
	Sender   ref.UserID      `json:"sender"`
	EventID  ref.EventID     `json:"event_id"`
	StateKey *string         `json:"state_key,omitempty"`
	Content  json.RawMessage `json:"content"`
	Origin   int64           `json:"origin_server_ts"`
}

// SyncResponse is the body of a /sync response, trimmed to the
// sections this service consumes.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection holds per-room sync data.
type RoomsSection struct {
	Join   map[ref.RoomID]JoinedRoom  `json:"join"`
	Invite map[ref.RoomID]InvitedRoom `json:"invite"`
}

// JoinedRoom is the sync data for a room the session has joined.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// InvitedRoom is the sync data for a pending invite.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// TimelineSection holds new timeline events for a room.
type TimelineSection struct {
	Events    []Event `json:"events"`
	Limited   bool    `json:"limited"`
	PrevBatch string  `json:"prev_batch"`
}

// StateSection holds state events for a room.
type StateSection struct {
	Events []Event `json:"events"`
}

// CreateRoomRequest is the body of POST /createRoom, trimmed to the
// fields this service uses.
type CreateRoomRequest struct {
	Name     string       `json:"name,omitempty"`
	Topic    string       `json:"topic,omitempty"`
	Preset   string       `json:"preset,omitempty"`
	Invite   []ref.UserID `json:"invite,omitempty"`
	IsDirect bool         `json:"is_direct,omitempty"`
}

// CreateRoomResponse is the body of a successful /createRoom.
type CreateRoomResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

// SendEventResponse is the body of a successful event send.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// RedactRequest is the body of a redaction PUT.
type RedactRequest struct {
	Reason string `json:"reason,omitempty"`
}

// LoginRequest is the body of POST /login with password credentials.
type LoginRequest struct {
	Type       string          `json:"type"`
	Identifier LoginIdentifier `json:"identifier"`
	Password   string          `json:"password"`
	DeviceName string          `json:"initial_device_display_name,omitempty"`
}

// LoginIdentifier names the account logging in.
type LoginIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// AuthResponse is the body of a successful /login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// WhoAmIResponse is the body of GET /account/whoami.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// DisplayNameResponse is the body of GET /profile/{userId}/displayname.
type DisplayNameResponse struct {
	DisplayName string `json:"displayname"`
}
