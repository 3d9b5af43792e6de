// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package party

import (
	"fmt"
	"strings"
)

// Picker is a selectable option list shown with the roster view.
// Option lists longer than MaxPickerOptions are split across several
// pickers.
type Picker struct {
	// ID distinguishes pickers of the same kind, for example
	// "join:0" and "join:1" for a split class list.
	ID          string
	Placeholder string
	Options     []string
	// OwnerOnly marks pickers that only the roster owner may use.
	OwnerOnly bool
}

// View is the rendered form of a roster: a markdown body plus the
// interactive elements valid in the roster's current state. Terminal
// states render with no interactive elements.
type View struct {
	Title   string
	Body    string
	Pickers []Picker
	// Commands are the text commands accepted against this view,
	// shown as a footer while the roster is forming.
	Commands []string
}

// Render produces the view for a roster's current state. It is a pure
// function of the roster and config: no platform calls, no side
// effects, so a failed publish can simply be retried.
func Render(roster *Roster, config *Config) View {
	view := View{
		Title: fmt.Sprintf("%s Party", roster.Archetype.Name),
		Body:  renderBody(roster, config),
	}
	if roster.State() != Forming {
		return view
	}

	view.Pickers = classPickers("join", "Join as", false, config.Classes)
	view.Pickers = append(view.Pickers, classPickers("owner-class", "Pick your class", true, config.Classes)...)
	if roster.Archetype.NeedsClass {
		view.Pickers = append(view.Pickers, Picker{
			ID:          "need",
			Placeholder: "Looking for...",
			Options:     append([]string(nil), roster.Archetype.NeededChoices...),
			OwnerOnly:   true,
		})
	}

	view.Commands = []string{
		"!party join <class>",
		"!party class <class>",
	}
	if roster.Archetype.NeedsClass {
		view.Commands = append(view.Commands,
			fmt.Sprintf("!party need <%s>", strings.Join(roster.Archetype.NeededChoices, "|")))
	}
	view.Commands = append(view.Commands, "!party cancel")
	return view
}

func renderBody(roster *Roster, config *Config) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "**Size:** %d/%d\n", roster.Size(), roster.Capacity)
	if roster.NeededClass != "" {
		fmt.Fprintf(&builder, "**Looking for:** %s\n", classLabel(config, roster.NeededClass))
	}
	switch roster.State() {
	case Ready:
		builder.WriteString("**Status:** Ready\n")
	case Cancelled:
		builder.WriteString("**Status:** Cancelled\n")
	}
	builder.WriteString("\n")

	members := roster.Members()
	if len(members) == 0 {
		builder.WriteString("*No one yet*\n")
		return builder.String()
	}
	for _, member := range members {
		fmt.Fprintf(&builder, "%s — %s\n", member.User, classLabel(config, member.Class))
	}
	return builder.String()
}

// classLabel prefixes a class name with its configured icon. Classes
// without an icon render as the bare name.
func classLabel(config *Config, class string) string {
	if icon := config.Icon(class); icon != "" {
		return icon + " " + class
	}
	return class
}

// classPickers splits the class list into pickers of at most
// MaxPickerOptions entries each.
func classPickers(kind, placeholder string, ownerOnly bool, classes []string) []Picker {
	var pickers []Picker
	for start := 0; start < len(classes); start += MaxPickerOptions {
		end := min(start+MaxPickerOptions, len(classes))
		index := len(pickers)
		label := placeholder + "..."
		if index > 0 {
			label = fmt.Sprintf("%s (%d)...", placeholder, index+1)
		}
		pickers = append(pickers, Picker{
			ID:          fmt.Sprintf("%s:%d", kind, index),
			Placeholder: label,
			Options:     append([]string(nil), classes[start:end]...),
			OwnerOnly:   ownerOnly,
		})
	}
	return pickers
}
