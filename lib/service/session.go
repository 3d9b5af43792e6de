// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grindhall/partyfinder/lib/ref"
)

// SessionData is the on-disk credential file written by
// partyfinder-login and read by the daemon at startup.
type SessionData struct {
	HomeserverURL string     `json:"homeserver_url"`
	UserID        ref.UserID `json:"user_id"`
	AccessToken   string     `json:"access_token"`
}

// Validate checks that all fields are present.
func (s *SessionData) Validate() error {
	if s.HomeserverURL == "" {
		return fmt.Errorf("session missing homeserver_url")
	}
	if s.UserID.IsZero() {
		return fmt.Errorf("session missing user_id")
	}
	if s.AccessToken == "" {
		return fmt.Errorf("session missing access_token")
	}
	return nil
}

// LoadSession reads and validates a session file.
func LoadSession(path string) (*SessionData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", path, err)
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session file %s: %w", path, err)
	}
	return &session, nil
}

// SaveSession writes a session file with owner-only permissions. The
// file holds a live access token, so 0600 matters.
func SaveSession(path string, session *SessionData) error {
	if err := session.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}
