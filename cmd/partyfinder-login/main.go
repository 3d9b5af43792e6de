// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

// partyfinder-login authenticates against a Matrix homeserver and
// writes the session.json the partyfinder daemon starts from.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/grindhall/partyfinder/lib/service"
	"github.com/grindhall/partyfinder/messaging"
)

func main() {
	homeserverURL := pflag.String("homeserver", "", "homeserver base URL (required)")
	username := pflag.String("user", "", "account localpart or full user ID (required)")
	sessionPath := pflag.String("session", "session.json", "where to write the session file")
	deviceName := pflag.String("device-name", "partyfinder", "device display name for the new session")
	pflag.Parse()

	if *homeserverURL == "" || *username == "" {
		fmt.Fprintln(os.Stderr, "usage: partyfinder-login --homeserver URL --user NAME [--session PATH]")
		os.Exit(2)
	}

	if err := run(*homeserverURL, *username, *sessionPath, *deviceName); err != nil {
		fmt.Fprintln(os.Stderr, "partyfinder-login:", err)
		os.Exit(1)
	}
}

func run(homeserverURL, username, sessionPath, deviceName string) error {
	password, err := readPassword()
	if err != nil {
		return err
	}

	client, err := messaging.NewClient(messaging.ClientConfig{HomeserverURL: homeserverURL})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := client.Login(ctx, username, password, deviceName)
	if err != nil {
		return err
	}
	defer session.Close()

	data := &service.SessionData{
		HomeserverURL: client.HomeserverURL(),
		UserID:        session.UserID(),
		AccessToken:   session.AccessToken(),
	}
	if err := service.SaveSession(sessionPath, data); err != nil {
		return err
	}
	fmt.Printf("logged in as %s, session written to %s\n", session.UserID(), sessionPath)
	return nil
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// Piped input: read the password from stdin directly.
		var password string
		if _, err := fmt.Scanln(&password); err != nil {
			return "", fmt.Errorf("reading password from stdin: %w", err)
		}
		return password, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimSpace(string(raw))
	if password == "" {
		return "", fmt.Errorf("empty password")
	}
	return password, nil
}
