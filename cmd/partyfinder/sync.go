// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/grindhall/partyfinder/lib/clock"
	"github.com/grindhall/partyfinder/lib/ref"
	"github.com/grindhall/partyfinder/lib/service"
	"github.com/grindhall/partyfinder/messaging"
	"github.com/grindhall/partyfinder/party"
)

// partyService wires the store, router, and Matrix adapter together
// and dispatches sync events into them.
type partyService struct {
	session  messaging.Session
	config   *party.Config
	store    *party.Store
	platform *matrixPlatform
	router   *party.Router
	logger   *slog.Logger
	clock    clock.Clock
	started  time.Time
}

func newService(session messaging.Session, config *party.Config, logger *slog.Logger, clk clock.Clock) *partyService {
	store := party.NewStore()
	platform := newMatrixPlatform(session, logger)
	teardown := party.NewTeardown(platform, config, logger)
	router := party.NewRouter(store, config, platform, teardown, logger, clk.Now)
	return &partyService{
		session:  session,
		config:   config,
		store:    store,
		platform: platform,
		router:   router,
		logger:   logger,
		clock:    clk,
		started:  clk.Now(),
	}
}

// syncFilter limits /sync to room message timelines. State events and
// ephemeral data are noise for this service.
func syncFilter() string {
	filter := map[string]any{
		"room": map[string]any{
			"timeline": map[string]any{
				"types": []string{"m.room.message"},
				"limit": 50,
			},
			"ephemeral":    map[string]any{"types": []string{}},
			"account_data": map[string]any{"types": []string{}},
		},
		"presence":     map[string]any{"types": []string{}},
		"account_data": map[string]any{"types": []string{}},
	}
	encoded, err := json.Marshal(filter)
	if err != nil {
		panic("building sync filter: " + err.Error())
	}
	return string(encoded)
}

// handleSync processes one /sync response: join pending invites, then
// scan timelines for party commands.
func (s *partyService) handleSync(ctx context.Context, response *messaging.SyncResponse) error {
	service.AcceptInvites(ctx, s.session, response, s.logger)

	for roomID, room := range response.Rooms.Join {
		for _, event := range room.Timeline.Events {
			if event.Type != "m.room.message" {
				continue
			}
			// Never react to our own output.
			if event.Sender == s.session.UserID() {
				continue
			}
			s.handleMessage(ctx, roomID, event)
		}
	}
	return nil
}

func (s *partyService) handleMessage(ctx context.Context, roomID ref.RoomID, event messaging.Event) {
	var content messaging.MessageContent
	if err := json.Unmarshal(event.Content, &content); err != nil {
		return
	}
	// Edits carry their text in m.new_content; commands are only
	// taken from original messages.
	if content.RelatesTo != nil && content.RelatesTo.RelType == messaging.RelReplace {
		return
	}

	command, ok, err := parseCommand(content.Body)
	if err != nil {
		if notifyErr := s.notifyUsage(ctx, event.Sender, err); notifyErr != nil {
			s.logger.Warn("failed to deliver usage notice",
				"user", event.Sender,
				"error", notifyErr)
		}
		return
	}
	if !ok {
		return
	}

	action := party.Action{
		Kind:      command.kind,
		Actor:     event.Sender,
		Room:      roomID,
		Archetype: command.archetype,
		Capacity:  command.capacity,
		Class:     command.class,
	}
	if command.kind != party.ActionCreate {
		surface, ok := s.resolveSurface(roomID, content)
		if !ok {
			if notifyErr := s.notifyUsage(ctx, event.Sender, errAmbiguousTarget); notifyErr != nil {
				s.logger.Warn("failed to deliver usage notice",
					"user", event.Sender,
					"error", notifyErr)
			}
			return
		}
		action.Surface = surface
	}

	if err := s.router.HandleAction(ctx, action); err != nil {
		s.logger.Error("action failed",
			"kind", action.Kind,
			"room", roomID,
			"actor", event.Sender,
			"error", err)
	}
}

// resolveSurface picks the roster a command targets: the replied-to
// message when the command is a reply, otherwise the room's only
// active roster. With several active rosters a bare command is
// ambiguous and rejected.
func (s *partyService) resolveSurface(roomID ref.RoomID, content messaging.MessageContent) (ref.EventID, bool) {
	if content.RelatesTo != nil && content.RelatesTo.InReplyTo != nil {
		return content.RelatesTo.InReplyTo.EventID, true
	}
	surfaces := s.store.SurfacesInRoom(roomID)
	if len(surfaces) == 1 {
		return surfaces[0], true
	}
	return ref.EventID{}, false
}

func (s *partyService) notifyUsage(ctx context.Context, user ref.UserID, reason error) error {
	return s.platform.NotifyPrivately(ctx, user, reason.Error())
}
