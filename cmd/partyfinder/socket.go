// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/grindhall/partyfinder/lib/codec"
	"github.com/grindhall/partyfinder/lib/ref"
	"github.com/grindhall/partyfinder/lib/service"
	"github.com/grindhall/partyfinder/party"
)

// statusInfo is the "status" control response.
type statusInfo struct {
	UserID        ref.UserID `cbor:"user_id"`
	ActiveParties int        `cbor:"active_parties"`
	UptimeSeconds int64      `cbor:"uptime_seconds"`
}

// partyDetail is the "show-party" control response.
type partyDetail struct {
	Summary party.Summary `cbor:"summary"`
	Needed  string        `cbor:"needed,omitempty"`
	Members []memberInfo  `cbor:"members"`
}

type memberInfo struct {
	User  ref.UserID `cbor:"user"`
	Class string     `cbor:"class"`
}

type showPartyArgs struct {
	Surface ref.EventID `cbor:"surface"`
}

func (s *partyService) registerControlActions(socket *service.SocketServer) {
	socket.Handle("status", s.controlStatus)
	socket.Handle("list-parties", s.controlListParties)
	socket.Handle("show-party", s.controlShowParty)
}

func (s *partyService) controlStatus(ctx context.Context, args codec.RawMessage) (any, error) {
	return statusInfo{
		UserID:        s.session.UserID(),
		ActiveParties: s.store.Len(),
		UptimeSeconds: int64(s.clock.Now().Sub(s.started) / time.Second),
	}, nil
}

func (s *partyService) controlListParties(ctx context.Context, args codec.RawMessage) (any, error) {
	return s.store.Snapshot(), nil
}

func (s *partyService) controlShowParty(ctx context.Context, args codec.RawMessage) (any, error) {
	var request showPartyArgs
	if err := codec.Unmarshal(args, &request); err != nil {
		return nil, fmt.Errorf("bad show-party args: %w", err)
	}
	if request.Surface.IsZero() {
		return nil, fmt.Errorf("show-party needs a surface")
	}

	var detail partyDetail
	err := s.store.With(request.Surface, func(roster *party.Roster) (bool, error) {
		detail = partyDetail{Needed: roster.NeededClass}
		summary := party.Summary{
			Surface:   roster.Surface,
			Room:      roster.Room,
			Owner:     roster.Owner,
			Archetype: roster.Archetype.Name,
			Size:      roster.Size(),
			Capacity:  roster.Capacity,
			State:     roster.State(),
			CreatedAt: roster.CreatedAt,
		}
		detail.Summary = summary
		for _, member := range roster.Members() {
			detail.Members = append(detail.Members, memberInfo{User: member.User, Class: member.Class})
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}
