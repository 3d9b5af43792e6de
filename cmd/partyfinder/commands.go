// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/grindhall/partyfinder/party"
)

const commandPrefix = "!party"

var (
	errUsageCreate = errors.New(
		"usage: !party create <type> <size>, for example !party create Dungeon 5")
	errUsageJoin = errors.New(
		"usage: !party join <class>, for example !party join Witch")
	errUsageClass = errors.New(
		"usage: !party class <class>, replying to the party message")
	errUsageNeed = errors.New(
		"usage: !party need <class>, replying to the party message")
	errUnknownVerb = errors.New(
		"unknown command; try create, join, class, need, or cancel")
	errAmbiguousTarget = errors.New(
		"reply to the party message so I know which party you mean")
)

// parsedCommand is a recognized "!party" command before surface
// resolution.
type parsedCommand struct {
	kind      party.ActionKind
	archetype string
	capacity  int
	class     string
}

// parseCommand recognizes "!party ..." in a message body. ok is false
// for ordinary chatter; a non-nil error means the message was
// addressed to us but malformed, and carries the usage hint for the
// sender.
func parseCommand(body string) (parsedCommand, bool, error) {
	fields := strings.Fields(strings.TrimSpace(body))
	if len(fields) == 0 || fields[0] != commandPrefix {
		return parsedCommand{}, false, nil
	}
	if len(fields) == 1 {
		return parsedCommand{}, false, errUnknownVerb
	}

	verb := strings.ToLower(fields[1])
	args := fields[2:]

	switch verb {
	case "create":
		// The final argument is the size; everything between the
		// verb and the size is the archetype name, which may contain
		// spaces ("Boss Blitz").
		if len(args) < 2 {
			return parsedCommand{}, false, errUsageCreate
		}
		capacity, err := strconv.Atoi(args[len(args)-1])
		if err != nil {
			return parsedCommand{}, false, errUsageCreate
		}
		return parsedCommand{
			kind:      party.ActionCreate,
			archetype: strings.Join(args[:len(args)-1], " "),
			capacity:  capacity,
		}, true, nil

	case "join":
		// "Dark Knight" style names span multiple fields.
		if len(args) == 0 {
			return parsedCommand{}, false, errUsageJoin
		}
		return parsedCommand{
			kind:  party.ActionJoin,
			class: strings.Join(args, " "),
		}, true, nil

	case "class":
		if len(args) == 0 {
			return parsedCommand{}, false, errUsageClass
		}
		return parsedCommand{
			kind:  party.ActionSetClass,
			class: strings.Join(args, " "),
		}, true, nil

	case "need":
		if len(args) == 0 {
			return parsedCommand{}, false, errUsageNeed
		}
		return parsedCommand{
			kind:  party.ActionSetNeed,
			class: strings.Join(args, " "),
		}, true, nil

	case "cancel":
		return parsedCommand{kind: party.ActionCancel}, true, nil

	default:
		return parsedCommand{}, false, fmt.Errorf("%w (got %q)", errUnknownVerb, verb)
	}
}
