// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

// partyfinder-status inspects a running partyfinder daemon over its
// control socket.
//
// Usage:
//
//	partyfinder-status [--socket PATH]             daemon status
//	partyfinder-status [--socket PATH] list        active parties
//	partyfinder-status [--socket PATH] show EVENT  one party in detail
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/grindhall/partyfinder/lib/ref"
	"github.com/grindhall/partyfinder/lib/service"
	"github.com/grindhall/partyfinder/party"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	stateStyles = map[party.State]lipgloss.Style{
		party.Forming: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

func main() {
	socketPath := pflag.String("socket", "partyfinder.sock", "path to the daemon's control socket")
	timeout := pflag.Duration("timeout", 10*time.Second, "request timeout")
	pflag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	args := pflag.Args()
	var err error
	switch {
	case len(args) == 0:
		err = showStatus(ctx, *socketPath)
	case args[0] == "list":
		err = listParties(ctx, *socketPath)
	case args[0] == "show" && len(args) == 2:
		err = showParty(ctx, *socketPath, args[1])
	default:
		fmt.Fprintln(os.Stderr, "usage: partyfinder-status [list | show <event-id>]")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "partyfinder-status:", err)
		os.Exit(1)
	}
}

type statusInfo struct {
	UserID        ref.UserID `cbor:"user_id"`
	ActiveParties int        `cbor:"active_parties"`
	UptimeSeconds int64      `cbor:"uptime_seconds"`
}

type partyDetail struct {
	Summary party.Summary `cbor:"summary"`
	Needed  string        `cbor:"needed,omitempty"`
	Members []memberInfo  `cbor:"members"`
}

type memberInfo struct {
	User  ref.UserID `cbor:"user"`
	Class string     `cbor:"class"`
}

func showStatus(ctx context.Context, socketPath string) error {
	var status statusInfo
	if err := service.Call(ctx, socketPath, "status", nil, &status); err != nil {
		return err
	}
	fmt.Println(headerStyle.Render("partyfinder"))
	printField("user", status.UserID.String())
	printField("active parties", fmt.Sprintf("%d", status.ActiveParties))
	printField("uptime", (time.Duration(status.UptimeSeconds) * time.Second).String())
	return nil
}

func listParties(ctx context.Context, socketPath string) error {
	var summaries []party.Summary
	if err := service.Call(ctx, socketPath, "list-parties", nil, &summaries); err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println(labelStyle.Render("no active parties"))
		return nil
	}
	for _, summary := range summaries {
		fmt.Printf("%s %s %s\n",
			renderState(summary.State),
			headerStyle.Render(fmt.Sprintf("%s %d/%d", summary.Archetype, summary.Size, summary.Capacity)),
			labelStyle.Render(fmt.Sprintf("%s in %s by %s", summary.Surface, summary.Room, summary.Owner)))
	}
	return nil
}

func showParty(ctx context.Context, socketPath, rawSurface string) error {
	surface, err := ref.ParseEventID(rawSurface)
	if err != nil {
		return fmt.Errorf("bad event ID %q: %w", rawSurface, err)
	}
	var detail partyDetail
	args := map[string]string{"surface": surface.String()}
	if err := service.Call(ctx, socketPath, "show-party", args, &detail); err != nil {
		return err
	}

	summary := detail.Summary
	fmt.Println(headerStyle.Render(fmt.Sprintf("%s Party", summary.Archetype)))
	printField("state", string(summary.State))
	printField("size", fmt.Sprintf("%d/%d", summary.Size, summary.Capacity))
	printField("owner", summary.Owner.String())
	printField("room", summary.Room.String())
	printField("created", summary.CreatedAt.Format(time.RFC3339))
	if detail.Needed != "" {
		printField("looking for", detail.Needed)
	}
	fmt.Println()
	for _, member := range detail.Members {
		fmt.Printf("  %s %s\n",
			valueStyle.Render(member.User.String()),
			labelStyle.Render(member.Class))
	}
	return nil
}

func printField(label, value string) {
	fmt.Printf("  %s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

func renderState(state party.State) string {
	if style, ok := stateStyles[state]; ok {
		return style.Render(string(state))
	}
	return string(state)
}
