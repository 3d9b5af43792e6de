// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/grindhall/partyfinder/lib/clock"
	"github.com/grindhall/partyfinder/messaging"
)

// SyncHandler receives each /sync response. Errors are logged and the
// loop continues; a handler error never stops the loop.
type SyncHandler func(ctx context.Context, response *messaging.SyncResponse) error

// SyncConfig configures RunSyncLoop.
type SyncConfig struct {
	Session messaging.Session
	Handler SyncHandler
	Logger  *slog.Logger
	Clock   clock.Clock

	// Filter is the inline JSON filter passed to /sync. Empty means
	// no filter.
	Filter string

	// Timeout is the server-side long-poll wait. Zero means 30
	// seconds.
	Timeout time.Duration
}

func (c *SyncConfig) timeoutMillis() int {
	if c.Timeout <= 0 {
		return 30000
	}
	return int(c.Timeout / time.Millisecond)
}

// InitialSync performs one short /sync to establish the next_batch
// token. Its response carries historical timeline events, so callers
// typically discard everything but the token: processing old events
// would replay commands that were already handled.
func InitialSync(ctx context.Context, config SyncConfig) (string, error) {
	response, err := config.Session.Sync(ctx, "", config.Filter, 0)
	if err != nil {
		return "", fmt.Errorf("initial sync: %w", err)
	}
	return response.NextBatch, nil
}

// RunSyncLoop long-polls /sync until ctx is cancelled, invoking the
// handler for each response. Transient errors back off exponentially
// from one second to a minute; any successful sync resets the
// backoff.
func RunSyncLoop(ctx context.Context, since string, config SyncConfig) error {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	const (
		minBackoff = time.Second
		maxBackoff = time.Minute
	)
	backoff := minBackoff

	for {
		response, err := config.Session.Sync(ctx, since, config.Filter, config.timeoutMillis())
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if messaging.IsMatrixError(err, messaging.ErrCodeUnknownToken) {
				// Token revocation is not recoverable by retrying.
				return fmt.Errorf("sync: %w", err)
			}
			logger.Warn("sync failed, backing off",
				"error", err,
				"backoff", backoff)
			select {
			case <-config.Clock.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff
		since = response.NextBatch

		if err := config.Handler(ctx, response); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error("sync handler failed", "error", err)
		}
	}
}

// AcceptInvites joins every room the session has a pending invite
// for. The daemon only operates in rooms it has been invited to, so
// this runs on each sync response.
func AcceptInvites(ctx context.Context, session messaging.Session, response *messaging.SyncResponse, logger *slog.Logger) {
	for roomID := range response.Rooms.Invite {
		if err := session.JoinRoom(ctx, roomID); err != nil {
			logger.Warn("failed to join invited room",
				"room_id", roomID,
				"error", err)
			continue
		}
		logger.Info("joined room", "room_id", roomID)
	}
}
