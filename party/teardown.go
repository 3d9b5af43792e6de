// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"context"
	"fmt"
	"log/slog"
)

// Teardown drives the two ways a roster leaves the store: promotion
// to Ready and cancellation.
type Teardown struct {
	platform Platform
	config   *Config
	logger   *slog.Logger
}

// NewTeardown creates a teardown coordinator.
func NewTeardown(platform Platform, config *Config, logger *slog.Logger) *Teardown {
	return &Teardown{platform: platform, config: config, logger: logger}
}

// Promote finalizes a forming roster: it becomes Ready, the surface
// freezes into its non-interactive form, the room gets an
// announcement mentioning every member and the archetype's notify
// role, and a discussion thread opens under the announcement.
//
// The state transition always commits. Announcement or thread
// failures degrade to an inline warning in the room; they never roll
// the roster back to Forming.
func (t *Teardown) Promote(ctx context.Context, roster *Roster) error {
	if err := roster.MarkReady(); err != nil {
		return err
	}

	frozen := Render(roster, t.config)
	if err := t.platform.UpdateSurface(ctx, roster.Room, roster.Surface, frozen); err != nil {
		t.logger.Warn("failed to freeze roster view",
			"surface", roster.Surface,
			"error", err)
	}

	announcement := Announcement{
		Body:       fmt.Sprintf("%s party is ready!", roster.Archetype.Name),
		NotifyRole: roster.Archetype.NotifyRole,
	}
	for _, member := range roster.Members() {
		announcement.Members = append(announcement.Members, member.User)
	}

	root, err := t.platform.Announce(ctx, roster.Room, announcement)
	if err != nil {
		t.logger.Error("ready announcement failed",
			"surface", roster.Surface,
			"error", err)
		t.warnInline(ctx, roster, "The party is ready, but the announcement could not be posted.")
		return nil
	}

	if err := t.platform.OpenDiscussion(ctx, roster.Room, root, "Coordinate here!"); err != nil {
		t.logger.Error("discussion thread failed",
			"surface", roster.Surface,
			"root", root,
			"error", err)
		t.warnInline(ctx, roster, "The party is ready, but the discussion thread could not be created.")
		return nil
	}
	roster.Discussion = root

	t.logger.Info("party ready",
		"surface", roster.Surface,
		"archetype", roster.Archetype.Name,
		"size", roster.Size(),
		"capacity", roster.Capacity)
	return nil
}

// Cancel tears a roster down: the surface is deleted and any
// discussion thread cleaned up. Both are best effort; the roster
// leaves the store whether or not the platform cooperated, so a
// half-deleted party can never be acted on again.
func (t *Teardown) Cancel(ctx context.Context, roster *Roster) {
	if err := roster.MarkCancelled(); err != nil {
		// Already terminal; still clean up the artifacts.
		t.logger.Warn("cancelling non-forming roster",
			"surface", roster.Surface,
			"state", roster.State())
	}

	if err := t.platform.DeleteSurface(ctx, roster.Room, roster.Surface, "party cancelled"); err != nil {
		t.logger.Warn("failed to delete roster surface",
			"surface", roster.Surface,
			"error", err)
	}

	if !roster.Discussion.IsZero() {
		if err := t.platform.DeleteDiscussion(ctx, roster.Room, roster.Discussion); err != nil {
			t.logger.Warn("failed to clean up discussion thread",
				"surface", roster.Surface,
				"root", roster.Discussion,
				"error", err)
		}
	}

	t.logger.Info("party cancelled",
		"surface", roster.Surface,
		"archetype", roster.Archetype.Name)
}

func (t *Teardown) warnInline(ctx context.Context, roster *Roster, text string) {
	if err := t.platform.PostNotice(ctx, roster.Room, text); err != nil {
		t.logger.Error("inline warning failed",
			"surface", roster.Surface,
			"error", err)
	}
}
