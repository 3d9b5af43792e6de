// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/grindhall/partyfinder/lib/ref"
)

// DirectSession is an authenticated session talking straight to the
// homeserver over HTTP. Safe for concurrent use.
type DirectSession struct {
	client      *Client
	userID      ref.UserID
	accessToken string
	txnCounter  atomic.Uint64
}

func newDirectSession(client *Client, userID ref.UserID, accessToken string) *DirectSession {
	return &DirectSession{
		client:      client,
		userID:      userID,
		accessToken: accessToken,
	}
}

// UserID returns the authenticated user.
func (s *DirectSession) UserID() ref.UserID {
	return s.userID
}

// AccessToken returns the raw token, for persisting to session.json.
func (s *DirectSession) AccessToken() string {
	return s.accessToken
}

// nextTransactionID produces a transaction ID unique within this
// process lifetime. Matrix uses transaction IDs to deduplicate event
// sends across retries.
func (s *DirectSession) nextTransactionID() string {
	return fmt.Sprintf("partyfinder-%d-%d", time.Now().UnixMilli(), s.txnCounter.Add(1))
}

// WhoAmI verifies the token with the homeserver.
func (s *DirectSession) WhoAmI(ctx context.Context) (*WhoAmIResponse, error) {
	var response WhoAmIResponse
	if err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", s.accessToken, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// SendMessage sends an m.room.message event.
func (s *DirectSession) SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error) {
	return s.SendEvent(ctx, roomID, "m.room.message", content)
}

// SendEvent sends an event via the transaction-ID PUT endpoint.
func (s *DirectSession) SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content any) (ref.EventID, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/send/%s/%s",
		url.PathEscape(roomID.String()), url.PathEscape(string(eventType)), s.nextTransactionID())
	var response SendEventResponse
	if err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content, &response); err != nil {
		return ref.EventID{}, fmt.Errorf("sending %s to %s: %w", eventType, roomID, err)
	}
	return response.EventID, nil
}

// RedactEvent redacts an event.
func (s *DirectSession) RedactEvent(ctx context.Context, roomID ref.RoomID, eventID ref.EventID, reason string) (ref.EventID, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/redact/%s/%s",
		url.PathEscape(roomID.String()), url.PathEscape(eventID.String()), s.nextTransactionID())
	var response SendEventResponse
	if err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, RedactRequest{Reason: reason}, &response); err != nil {
		return ref.EventID{}, fmt.Errorf("redacting %s in %s: %w", eventID, roomID, err)
	}
	return response.EventID, nil
}

// CreateRoom creates a room.
func (s *DirectSession) CreateRoom(ctx context.Context, request CreateRoomRequest) (ref.RoomID, error) {
	var response CreateRoomResponse
	if err := s.client.doRequest(ctx, http.MethodPost, "/_matrix/client/v3/createRoom", s.accessToken, request, &response); err != nil {
		return ref.RoomID{}, fmt.Errorf("creating room: %w", err)
	}
	return response.RoomID, nil
}

// InviteUser invites a user to a room.
func (s *DirectSession) InviteUser(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/invite", url.PathEscape(roomID.String()))
	body := map[string]string{"user_id": userID.String()}
	if err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, body, nil); err != nil {
		return fmt.Errorf("inviting %s to %s: %w", userID, roomID, err)
	}
	return nil
}

// JoinRoom joins a room.
func (s *DirectSession) JoinRoom(ctx context.Context, roomID ref.RoomID) error {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/join", url.PathEscape(roomID.String()))
	if err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{}, nil); err != nil {
		return fmt.Errorf("joining %s: %w", roomID, err)
	}
	return nil
}

// GetDisplayName fetches a user's display name. A user with no
// profile display name resolves to their localpart.
func (s *DirectSession) GetDisplayName(ctx context.Context, userID ref.UserID) (string, error) {
	path := fmt.Sprintf("/_matrix/client/v3/profile/%s/displayname", url.PathEscape(userID.String()))
	var response DisplayNameResponse
	err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, &response)
	if IsMatrixError(err, ErrCodeNotFound) {
		return userID.Localpart(), nil
	}
	if err != nil {
		return "", fmt.Errorf("fetching display name for %s: %w", userID, err)
	}
	if response.DisplayName == "" {
		return userID.Localpart(), nil
	}
	return response.DisplayName, nil
}

// Sync long-polls /sync.
func (s *DirectSession) Sync(ctx context.Context, since, filter string, timeout int) (*SyncResponse, error) {
	query := url.Values{}
	query.Set("timeout", strconv.Itoa(timeout))
	if since != "" {
		query.Set("since", since)
	}
	if filter != "" {
		query.Set("filter", filter)
	}
	var response SyncResponse
	if err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/sync?"+query.Encode(), s.accessToken, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Close is a no-op for a direct session; the access token remains
// valid for later reuse from session.json.
func (s *DirectSession) Close() error {
	return nil
}
