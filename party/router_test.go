// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/grindhall/partyfinder/lib/ref"
)

// fakePlatform records every platform call and can be told to fail
// specific ones.
type fakePlatform struct {
	surfaces    int
	updates     []View
	deleted     []ref.EventID
	notices     []string // private, "<user>: <text>"
	announced   []Announcement
	discussions []ref.EventID
	posted      []string // inline room notices

	failAnnounce   error
	failDiscussion error
	failDelete     error
}

func (f *fakePlatform) ShowInitial(ctx context.Context, room ref.RoomID, view View) (ref.EventID, error) {
	f.surfaces++
	return ref.MustParseEventID(fmt.Sprintf("$surface%d", f.surfaces)), nil
}

func (f *fakePlatform) UpdateSurface(ctx context.Context, room ref.RoomID, surface ref.EventID, view View) error {
	f.updates = append(f.updates, view)
	return nil
}

func (f *fakePlatform) DeleteSurface(ctx context.Context, room ref.RoomID, surface ref.EventID, reason string) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deleted = append(f.deleted, surface)
	return nil
}

func (f *fakePlatform) NotifyPrivately(ctx context.Context, user ref.UserID, text string) error {
	f.notices = append(f.notices, user.String()+": "+text)
	return nil
}

func (f *fakePlatform) Announce(ctx context.Context, room ref.RoomID, announcement Announcement) (ref.EventID, error) {
	if f.failAnnounce != nil {
		return ref.EventID{}, f.failAnnounce
	}
	f.announced = append(f.announced, announcement)
	return ref.MustParseEventID("$announce"), nil
}

func (f *fakePlatform) OpenDiscussion(ctx context.Context, room ref.RoomID, root ref.EventID, greeting string) error {
	if f.failDiscussion != nil {
		return f.failDiscussion
	}
	f.discussions = append(f.discussions, root)
	return nil
}

func (f *fakePlatform) DeleteDiscussion(ctx context.Context, room ref.RoomID, root ref.EventID) error {
	return nil
}

func (f *fakePlatform) PostNotice(ctx context.Context, room ref.RoomID, text string) error {
	f.posted = append(f.posted, text)
	return nil
}

func newTestRouter(t *testing.T) (*Router, *Store, *fakePlatform) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	config := DefaultConfig()
	store := NewStore()
	platform := &fakePlatform{}
	teardown := NewTeardown(platform, config, logger)
	now := func() time.Time { return time.Unix(1700000000, 0) }
	return NewRouter(store, config, platform, teardown, logger, now), store, platform
}

func createParty(t *testing.T, router *Router, store *Store, archetype string, capacity int) ref.EventID {
	t.Helper()
	err := router.HandleAction(context.Background(), Action{
		Kind:      ActionCreate,
		Actor:     testOwner,
		Room:      testRoom,
		Archetype: archetype,
		Capacity:  capacity,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	surfaces := store.SurfacesInRoom(testRoom)
	if len(surfaces) != 1 {
		t.Fatalf("got %d surfaces after create, want 1", len(surfaces))
	}
	return surfaces[0]
}

func TestCreateParty(t *testing.T) {
	router, store, platform := newTestRouter(t)
	createParty(t, router, store, "Dungeon", 5)
	if platform.surfaces != 1 {
		t.Errorf("published %d surfaces, want 1", platform.surfaces)
	}
	if store.Len() != 1 {
		t.Errorf("store length = %d, want 1", store.Len())
	}
	// Creation pings the notify role so subscribers can come join.
	if len(platform.announced) != 1 {
		t.Fatalf("got %d announcements, want the creation ping", len(platform.announced))
	}
	ping := platform.announced[0]
	if ping.Body != "Dungeon party created!" {
		t.Errorf("creation ping body = %q", ping.Body)
	}
	if ping.NotifyRole != "dungeon" {
		t.Errorf("creation ping role = %q, want dungeon", ping.NotifyRole)
	}
	if len(ping.Members) != 0 {
		t.Errorf("creation ping mentions %d members, want none", len(ping.Members))
	}
}

func TestCreateUnknownArchetypeRejectedPrivately(t *testing.T) {
	router, store, platform := newTestRouter(t)
	err := router.HandleAction(context.Background(), Action{
		Kind:      ActionCreate,
		Actor:     testOwner,
		Room:      testRoom,
		Archetype: "Raid",
		Capacity:  5,
	})
	if err != nil {
		t.Fatalf("HandleAction: %v", err)
	}
	if store.Len() != 0 {
		t.Error("rejected create must not register a roster")
	}
	if len(platform.notices) != 1 || !strings.Contains(platform.notices[0], "party type") {
		t.Errorf("notices = %v, want one archetype rejection", platform.notices)
	}
}

func TestCreateCapacityOutOfRangeRejected(t *testing.T) {
	router, _, platform := newTestRouter(t)
	err := router.HandleAction(context.Background(), Action{
		Kind:      ActionCreate,
		Actor:     testOwner,
		Room:      testRoom,
		Archetype: "Dungeon",
		Capacity:  25,
	})
	if err != nil {
		t.Fatalf("HandleAction: %v", err)
	}
	if len(platform.notices) != 1 {
		t.Fatalf("notices = %v, want one capacity rejection", platform.notices)
	}
	if platform.surfaces != 0 {
		t.Error("rejected create must not publish a surface")
	}
}

func TestJoinUpdatesSurface(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Dungeon", 5)

	err := router.HandleAction(context.Background(), Action{
		Kind:    ActionJoin,
		Actor:   ref.MustParseUserID("@alice:grindhall.gg"),
		Room:    testRoom,
		Surface: surface,
		Class:   "Witch",
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(platform.updates) != 1 {
		t.Fatalf("got %d surface updates, want 1", len(platform.updates))
	}
	if !strings.Contains(platform.updates[0].Body, "**Size:** 2/5") {
		t.Errorf("updated view body:\n%s", platform.updates[0].Body)
	}
	if len(platform.notices) != 0 {
		t.Errorf("unexpected private notices: %v", platform.notices)
	}
}

// A join against a full party is rejected privately; the roster and
// its surface stay untouched.
func TestJoinFullPartyPrivateRejection(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Dungeon", 1)

	err := router.HandleAction(context.Background(), Action{
		Kind:    ActionJoin,
		Actor:   ref.MustParseUserID("@late:grindhall.gg"),
		Room:    testRoom,
		Surface: surface,
		Class:   "Witch",
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(platform.notices) != 1 || !strings.Contains(platform.notices[0], "@late:grindhall.gg: ") {
		t.Fatalf("notices = %v, want one private rejection for @late", platform.notices)
	}
	if !strings.Contains(platform.notices[0], "full") {
		t.Errorf("rejection text = %q, want full-party reason", platform.notices[0])
	}
	if len(platform.updates) != 0 {
		t.Error("rejected join must not re-render the surface")
	}
	if len(platform.posted) != 0 {
		t.Error("rejection must never reach the room")
	}
}

func TestSetClassUnknownRejected(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Dungeon", 5)

	err := router.HandleAction(context.Background(), Action{
		Kind:    ActionSetClass,
		Actor:   testOwner,
		Room:    testRoom,
		Surface: surface,
		Class:   "Paladin",
	})
	if err != nil {
		t.Fatalf("HandleAction: %v", err)
	}
	if len(platform.notices) != 1 || !strings.Contains(platform.notices[0], "recognized class") {
		t.Errorf("notices = %v, want unknown class rejection", platform.notices)
	}
}

// Only the owner may pick the owner class, set the needed class, or
// cancel; everyone else gets a private rejection and nothing changes.
func TestOwnerOnlyActions(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Doluns", 5)
	intruder := ref.MustParseUserID("@intruder:grindhall.gg")

	for _, kind := range []ActionKind{ActionSetClass, ActionSetNeed, ActionCancel} {
		err := router.HandleAction(context.Background(), Action{
			Kind:    kind,
			Actor:   intruder,
			Room:    testRoom,
			Surface: surface,
			Class:   "Shai",
		})
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
	}
	if store.Len() != 1 {
		t.Error("non-owner actions must not remove the roster")
	}
	if len(platform.notices) != 3 {
		t.Fatalf("notices = %v, want 3 owner rejections", platform.notices)
	}
	for _, notice := range platform.notices {
		if !strings.Contains(notice, "owner") {
			t.Errorf("notice %q, want owner rejection", notice)
		}
	}
}

// Filling the last slot promotes the party: frozen view,
// announcement with member mentions and the notify role, and a
// discussion thread anchored on the announcement.
func TestJoinToCapacityPromotes(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Doluns", 2)

	if err := router.HandleAction(context.Background(), Action{
		Kind: ActionJoin, Actor: ref.MustParseUserID("@alice:grindhall.gg"),
		Room: testRoom, Surface: surface, Class: "Witch",
	}); err != nil {
		t.Fatalf("join: %v", err)
	}

	if store.Len() != 0 {
		t.Error("a full party must leave the store")
	}
	// Creation ping plus the ready announcement.
	if len(platform.announced) != 2 {
		t.Fatalf("got %d announcements, want 2", len(platform.announced))
	}
	announcement := platform.announced[1]
	if announcement.Body != "Doluns party is ready!" {
		t.Errorf("announcement body = %q", announcement.Body)
	}
	if announcement.NotifyRole != "doluns" {
		t.Errorf("notify role = %q, want doluns", announcement.NotifyRole)
	}
	if len(announcement.Members) != 2 {
		t.Errorf("announcement mentions %d members, want 2", len(announcement.Members))
	}
	if len(platform.discussions) != 1 || platform.discussions[0].String() != "$announce" {
		t.Errorf("discussions = %v, want thread on $announce", platform.discussions)
	}
	// The frozen view is the last surface update and has no controls.
	last := platform.updates[len(platform.updates)-1]
	if len(last.Pickers) != 0 || len(last.Commands) != 0 {
		t.Error("frozen view must have no interactive elements")
	}
}

// A matched needed class completes the party below capacity.
func TestNeededClassMatchPromotesEarly(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Doluns", 5)

	if err := router.HandleAction(context.Background(), Action{
		Kind: ActionSetNeed, Actor: testOwner, Room: testRoom, Surface: surface, Class: "Shai",
	}); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 1 {
		t.Fatal("unmatched needed class must not promote")
	}

	if err := router.HandleAction(context.Background(), Action{
		Kind: ActionJoin, Actor: ref.MustParseUserID("@alice:grindhall.gg"),
		Room: testRoom, Surface: surface, Class: "Shai",
	}); err != nil {
		t.Fatalf("join: %v", err)
	}

	if store.Len() != 0 {
		t.Error("matched needed class must promote at 2/5")
	}
	if len(platform.announced) != 2 {
		t.Errorf("got %d announcements, want creation ping plus ready", len(platform.announced))
	}
}

// The owner picking a class that matches their own declared need
// completes the party through the same recompute path as a join.
func TestOwnerClassPickPromotes(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Doluns", 5)

	if err := router.HandleAction(context.Background(), Action{
		Kind: ActionSetNeed, Actor: testOwner, Room: testRoom, Surface: surface, Class: "Shai",
	}); err != nil {
		t.Fatal(err)
	}
	if err := router.HandleAction(context.Background(), Action{
		Kind: ActionSetClass, Actor: testOwner, Room: testRoom, Surface: surface, Class: "Shai",
	}); err != nil {
		t.Fatalf("class pick: %v", err)
	}

	if store.Len() != 0 {
		t.Error("owner class pick matching the need must promote")
	}
	if len(platform.announced) != 2 {
		t.Errorf("got %d announcements, want creation ping plus ready", len(platform.announced))
	}
	if len(platform.discussions) != 1 {
		t.Errorf("got %d discussions, want 1", len(platform.discussions))
	}
}

// Joining without a class is rejected; the pending placeholder is the
// owner's alone.
func TestJoinWithoutClassRejected(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Dungeon", 5)

	err := router.HandleAction(context.Background(), Action{
		Kind: ActionJoin, Actor: ref.MustParseUserID("@alice:grindhall.gg"), Room: testRoom, Surface: surface,
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(platform.notices) != 1 || !strings.Contains(platform.notices[0], "recognized class") {
		t.Errorf("notices = %v, want unknown class rejection", platform.notices)
	}
	if len(platform.updates) != 0 {
		t.Error("rejected join must not re-render the surface")
	}
}

// Promotion commits even when the announcement fails: the room gets
// an inline warning and the roster still leaves the store.
func TestPromotionAnnouncementFailureDegrades(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Dungeon", 2)
	platform.failAnnounce = errors.New("homeserver unavailable")

	if err := router.HandleAction(context.Background(), Action{
		Kind: ActionJoin, Actor: ref.MustParseUserID("@alice:grindhall.gg"),
		Room: testRoom, Surface: surface, Class: "Witch",
	}); err != nil {
		t.Fatalf("join: %v", err)
	}

	if store.Len() != 0 {
		t.Error("roster must leave the store despite the failed announcement")
	}
	if len(platform.posted) != 1 || !strings.Contains(platform.posted[0], "announcement") {
		t.Errorf("posted = %v, want one inline warning", platform.posted)
	}
	if len(platform.discussions) != 0 {
		t.Error("no thread without an announcement to anchor it")
	}
}

func TestPromotionDiscussionFailureDegrades(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Dungeon", 2)
	platform.failDiscussion = errors.New("threads disabled")

	if err := router.HandleAction(context.Background(), Action{
		Kind: ActionJoin, Actor: ref.MustParseUserID("@alice:grindhall.gg"),
		Room: testRoom, Surface: surface, Class: "Witch",
	}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if store.Len() != 0 {
		t.Error("roster must leave the store despite the failed thread")
	}
	if len(platform.announced) != 2 {
		t.Error("ready announcement must still go out")
	}
	if len(platform.posted) != 1 || !strings.Contains(platform.posted[0], "thread") {
		t.Errorf("posted = %v, want one inline warning about the thread", platform.posted)
	}
}

func TestCancelRemovesAndDeletes(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Dungeon", 5)

	if err := router.HandleAction(context.Background(), Action{
		Kind: ActionCancel, Actor: testOwner, Room: testRoom, Surface: surface,
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if store.Len() != 0 {
		t.Error("cancel must remove the roster")
	}
	if len(platform.deleted) != 1 || platform.deleted[0] != surface {
		t.Errorf("deleted = %v, want [%s]", platform.deleted, surface)
	}
}

// Store removal is unconditional: a surface the platform refuses to
// delete still leaves the store.
func TestCancelSurvivesDeleteFailure(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Dungeon", 5)
	platform.failDelete = errors.New("not permitted")

	if err := router.HandleAction(context.Background(), Action{
		Kind: ActionCancel, Actor: testOwner, Room: testRoom, Surface: surface,
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if store.Len() != 0 {
		t.Error("cancel must remove the roster even when deletion fails")
	}
}

func TestActionOnRemovedRosterRejected(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Dungeon", 5)
	if err := router.HandleAction(context.Background(), Action{
		Kind: ActionCancel, Actor: testOwner, Room: testRoom, Surface: surface,
	}); err != nil {
		t.Fatal(err)
	}

	err := router.HandleAction(context.Background(), Action{
		Kind: ActionJoin, Actor: ref.MustParseUserID("@late:grindhall.gg"), Room: testRoom, Surface: surface, Class: "Witch",
	})
	if err != nil {
		t.Fatalf("join after cancel: %v", err)
	}
	found := false
	for _, notice := range platform.notices {
		if strings.Contains(notice, "no longer exists") {
			found = true
		}
	}
	if !found {
		t.Errorf("notices = %v, want unknown-party rejection", platform.notices)
	}
}

func TestSetNeedFlow(t *testing.T) {
	router, store, platform := newTestRouter(t)
	surface := createParty(t, router, store, "Doluns", 5)

	if err := router.HandleAction(context.Background(), Action{
		Kind: ActionSetNeed, Actor: testOwner, Room: testRoom, Surface: surface, Class: "Shai",
	}); err != nil {
		t.Fatalf("need: %v", err)
	}
	if len(platform.updates) != 1 || !strings.Contains(platform.updates[0].Body, "**Looking for:** Shai") {
		t.Errorf("updates = %+v, want needed class rendered", platform.updates)
	}

	dungeonSurface := func() ref.EventID {
		err := router.HandleAction(context.Background(), Action{
			Kind: ActionCreate, Actor: testOwner, Room: testRoom, Archetype: "Dungeon", Capacity: 5,
		})
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range store.SurfacesInRoom(testRoom) {
			if s != surface {
				return s
			}
		}
		t.Fatal("dungeon surface not found")
		return ref.EventID{}
	}()

	if err := router.HandleAction(context.Background(), Action{
		Kind: ActionSetNeed, Actor: testOwner, Room: testRoom, Surface: dungeonSurface, Class: "Shai",
	}); err != nil {
		t.Fatalf("need on dungeon: %v", err)
	}
	found := false
	for _, notice := range platform.notices {
		if strings.Contains(notice, "does not take a needed class") {
			found = true
		}
	}
	if !found {
		t.Errorf("notices = %v, want unsupported-need rejection", platform.notices)
	}
}
