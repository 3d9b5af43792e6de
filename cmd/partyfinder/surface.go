// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/yuin/goldmark"

	"github.com/grindhall/partyfinder/lib/ref"
	"github.com/grindhall/partyfinder/messaging"
	"github.com/grindhall/partyfinder/party"
)

// matrixPlatform renders party views onto Matrix: roster messages are
// HTML-formatted m.room.message events, updates are m.replace edits,
// deletion is redaction, the discussion is a thread, and private
// notices go to per-user direct-message rooms.
type matrixPlatform struct {
	session messaging.Session
	logger  *slog.Logger

	markdown goldmark.Markdown

	mu      sync.Mutex
	dmRooms map[ref.UserID]ref.RoomID
}

func newMatrixPlatform(session messaging.Session, logger *slog.Logger) *matrixPlatform {
	return &matrixPlatform{
		session:  session,
		logger:   logger,
		markdown: goldmark.New(),
		dmRooms:  make(map[ref.UserID]ref.RoomID),
	}
}

var _ party.Platform = (*matrixPlatform)(nil)

// renderView turns a View into message content: a markdown plain body
// with an HTML formatted_body.
func (p *matrixPlatform) renderView(view party.View) messaging.MessageContent {
	var builder strings.Builder
	fmt.Fprintf(&builder, "## %s\n\n%s", view.Title, view.Body)
	if len(view.Commands) > 0 {
		builder.WriteString("\n**Commands** (reply to this message):\n")
		for _, command := range view.Commands {
			fmt.Fprintf(&builder, "- `%s`\n", command)
		}
	}
	source := builder.String()
	return messaging.NewHTMLMessage(source, p.toHTML(source))
}

func (p *matrixPlatform) toHTML(markdown string) string {
	var buffer bytes.Buffer
	if err := p.markdown.Convert([]byte(markdown), &buffer); err != nil {
		p.logger.Warn("markdown conversion failed", "error", err)
		return ""
	}
	return strings.TrimSpace(buffer.String())
}

func (p *matrixPlatform) ShowInitial(ctx context.Context, room ref.RoomID, view party.View) (ref.EventID, error) {
	return p.session.SendMessage(ctx, room, p.renderView(view))
}

func (p *matrixPlatform) UpdateSurface(ctx context.Context, room ref.RoomID, surface ref.EventID, view party.View) error {
	edit := messaging.NewEdit(surface, p.renderView(view))
	_, err := p.session.SendMessage(ctx, room, edit)
	return err
}

func (p *matrixPlatform) DeleteSurface(ctx context.Context, room ref.RoomID, surface ref.EventID, reason string) error {
	_, err := p.session.RedactEvent(ctx, room, surface, reason)
	return err
}

// NotifyPrivately sends a notice into a direct-message room with the
// user, creating and caching the room on first use.
func (p *matrixPlatform) NotifyPrivately(ctx context.Context, user ref.UserID, text string) error {
	room, err := p.dmRoom(ctx, user)
	if err != nil {
		return err
	}
	_, err = p.session.SendMessage(ctx, room, messaging.NewNotice(text))
	return err
}

func (p *matrixPlatform) dmRoom(ctx context.Context, user ref.UserID) (ref.RoomID, error) {
	p.mu.Lock()
	room, ok := p.dmRooms[user]
	p.mu.Unlock()
	if ok {
		return room, nil
	}

	room, err := p.session.CreateRoom(ctx, messaging.CreateRoomRequest{
		Preset:   "trusted_private_chat",
		Invite:   []ref.UserID{user},
		IsDirect: true,
	})
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("opening direct room with %s: %w", user, err)
	}

	p.mu.Lock()
	p.dmRooms[user] = room
	p.mu.Unlock()
	return room, nil
}

// Announce posts the ready announcement, mentioning every member by
// user ID and the notify role as a room mention.
func (p *matrixPlatform) Announce(ctx context.Context, room ref.RoomID, announcement party.Announcement) (ref.EventID, error) {
	var builder strings.Builder
	builder.WriteString(announcement.Body)
	if announcement.NotifyRole != "" {
		fmt.Fprintf(&builder, " @%s", announcement.NotifyRole)
	}
	for _, member := range announcement.Members {
		builder.WriteString(" ")
		builder.WriteString(member.String())
	}

	content := messaging.NewTextMessage(builder.String())
	content.Mentions = &messaging.Mentions{
		UserIDs: announcement.Members,
		// The role is a room-level audience; @room is how Matrix
		// reaches subscribers without per-user mentions.
		Room: announcement.NotifyRole != "",
	}
	return p.session.SendMessage(ctx, room, content)
}

func (p *matrixPlatform) OpenDiscussion(ctx context.Context, room ref.RoomID, root ref.EventID, greeting string) error {
	_, err := p.session.SendMessage(ctx, room, messaging.NewThreadReply(root, greeting))
	return err
}

// DeleteDiscussion redacts the thread root. Where redaction of other
// users' thread activity is forbidden, the thread stays but gets a
// closing notice, the closest Matrix has to archiving it.
func (p *matrixPlatform) DeleteDiscussion(ctx context.Context, room ref.RoomID, root ref.EventID) error {
	_, err := p.session.RedactEvent(ctx, room, root, "party cancelled")
	if err == nil {
		return nil
	}
	if !messaging.IsMatrixError(err, messaging.ErrCodeForbidden) {
		return err
	}
	p.logger.Warn("redaction forbidden, closing thread instead", "root", root)
	closing := messaging.NewThreadReply(root, "This party was cancelled. The discussion is closed.")
	if _, closeErr := p.session.SendMessage(ctx, room, closing); closeErr != nil {
		return fmt.Errorf("closing thread after forbidden redaction: %w", closeErr)
	}
	return nil
}

func (p *matrixPlatform) PostNotice(ctx context.Context, room ref.RoomID, text string) error {
	_, err := p.session.SendMessage(ctx, room, messaging.NewNotice(text))
	return err
}
