// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"strings"
	"testing"
	"time"

	"github.com/grindhall/partyfinder/lib/ref"
)

func TestRenderFormingView(t *testing.T) {
	config := DefaultConfig()
	roster := newTestRoster(t, 5)
	if err := roster.Join(ref.MustParseUserID("@alice:grindhall.gg"), "Witch"); err != nil {
		t.Fatal(err)
	}

	view := Render(roster, config)
	if view.Title != "Dungeon Party" {
		t.Errorf("title = %q, want Dungeon Party", view.Title)
	}
	if !strings.Contains(view.Body, "**Size:** 2/5") {
		t.Errorf("body missing size line:\n%s", view.Body)
	}
	if !strings.Contains(view.Body, "@koozy:grindhall.gg — TBD") {
		t.Errorf("body missing owner line:\n%s", view.Body)
	}
	if !strings.Contains(view.Body, "@alice:grindhall.gg — Witch") {
		t.Errorf("body missing member line:\n%s", view.Body)
	}
	if len(view.Commands) == 0 {
		t.Error("forming view must list commands")
	}
	if len(view.Pickers) == 0 {
		t.Error("forming view must offer class pickers")
	}
}

func TestRenderClassPickerBuckets(t *testing.T) {
	config := DefaultConfig()
	// 29 classes with a 25-option cap splits into buckets of 25 and 4.
	roster := newTestRoster(t, 5)
	view := Render(roster, config)

	for _, kind := range []string{"join:", "owner-class:"} {
		var buckets []Picker
		for _, picker := range view.Pickers {
			if strings.HasPrefix(picker.ID, kind) {
				buckets = append(buckets, picker)
			}
		}
		if len(buckets) != 2 {
			t.Fatalf("%s got %d pickers, want 2", kind, len(buckets))
		}
		if len(buckets[0].Options) != MaxPickerOptions {
			t.Errorf("%s first bucket holds %d options, want %d", kind, len(buckets[0].Options), MaxPickerOptions)
		}
		if len(buckets[1].Options) != len(config.Classes)-MaxPickerOptions {
			t.Errorf("%s second bucket holds %d options, want %d",
				kind, len(buckets[1].Options), len(config.Classes)-MaxPickerOptions)
		}
		if buckets[0].OwnerOnly != (kind == "owner-class:") {
			t.Errorf("%s OwnerOnly = %v", kind, buckets[0].OwnerOnly)
		}
	}
}

func TestRenderIconsBestEffort(t *testing.T) {
	config := DefaultConfig()
	config.Icons = map[string]string{"Witch": "🧙"}

	roster := newTestRoster(t, 5)
	if err := roster.Join(ref.MustParseUserID("@alice:grindhall.gg"), "Witch"); err != nil {
		t.Fatal(err)
	}
	body := Render(roster, config).Body
	if !strings.Contains(body, "🧙 Witch") {
		t.Errorf("body missing icon for Witch:\n%s", body)
	}
	// The owner's pending class has no icon entry and renders bare.
	if !strings.Contains(body, "— TBD") {
		t.Errorf("body missing bare pending class:\n%s", body)
	}
}

func TestRenderNeedPickerOnlyWhenSupported(t *testing.T) {
	config := DefaultConfig()

	doluns, err := NewRoster(testArchetype(t, "Doluns"), testRoom, testOwner, 5, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	view := Render(doluns, config)
	found := false
	for _, picker := range view.Pickers {
		if picker.ID == "need" {
			found = true
			if len(picker.Options) != 2 {
				t.Errorf("need picker options = %v, want [Shai DPS]", picker.Options)
			}
		}
	}
	if !found {
		t.Error("Doluns view missing need picker")
	}

	dungeon := newTestRoster(t, 5)
	for _, picker := range Render(dungeon, config).Pickers {
		if picker.ID == "need" {
			t.Error("Dungeon view must not offer a need picker")
		}
	}
}

func TestRenderNeededClassShown(t *testing.T) {
	doluns, err := NewRoster(testArchetype(t, "Doluns"), testRoom, testOwner, 5, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if err := doluns.SetNeededClass("Shai"); err != nil {
		t.Fatal(err)
	}
	view := Render(doluns, DefaultConfig())
	if !strings.Contains(view.Body, "**Looking for:** Shai") {
		t.Errorf("body missing needed class:\n%s", view.Body)
	}
}

func TestRenderTerminalStatesFrozen(t *testing.T) {
	config := DefaultConfig()

	ready := newTestRoster(t, 5)
	if err := ready.MarkReady(); err != nil {
		t.Fatal(err)
	}
	view := Render(ready, config)
	if len(view.Pickers) != 0 || len(view.Commands) != 0 {
		t.Error("ready view must have no interactive elements")
	}
	if !strings.Contains(view.Body, "**Status:** Ready") {
		t.Errorf("ready body missing status:\n%s", view.Body)
	}

	cancelled := newTestRoster(t, 5)
	if err := cancelled.MarkCancelled(); err != nil {
		t.Fatal(err)
	}
	view = Render(cancelled, config)
	if len(view.Pickers) != 0 || len(view.Commands) != 0 {
		t.Error("cancelled view must have no interactive elements")
	}
}
