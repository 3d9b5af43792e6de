// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grindhall/partyfinder/lib/codec"
)

func startSocketServer(t *testing.T) (*SocketServer, string) {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "control.sock")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server, err := NewSocketServer(socketPath, logger)
	if err != nil {
		t.Fatalf("NewSocketServer: %v", err)
	}
	return server, socketPath
}

func TestSocketRoundTrip(t *testing.T) {
	server, socketPath := startSocketServer(t)
	server.Handle("status", func(ctx context.Context, args codec.RawMessage) (any, error) {
		return map[string]any{"active_parties": 3}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()

	var result map[string]any
	if err := Call(ctx, socketPath, "status", nil, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got, ok := result["active_parties"].(uint64); !ok || got != 3 {
		t.Errorf("active_parties = %v (%T), want 3", result["active_parties"], result["active_parties"])
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v after cancel, want nil", err)
	}
}

func TestSocketUnknownAction(t *testing.T) {
	server, socketPath := startSocketServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Serve(ctx)

	err := Call(ctx, socketPath, "no-such-action", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown action") {
		t.Errorf("Call error = %v, want unknown action", err)
	}
}

func TestSocketHandlerError(t *testing.T) {
	server, socketPath := startSocketServer(t)
	server.Handle("boom", func(ctx context.Context, args codec.RawMessage) (any, error) {
		return nil, errors.New("store unavailable")
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Serve(ctx)

	err := Call(ctx, socketPath, "boom", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "store unavailable") {
		t.Errorf("Call error = %v, want handler error surfaced", err)
	}
}

func TestSocketArgsDecoded(t *testing.T) {
	type showArgs struct {
		Surface string `cbor:"surface"`
	}
	server, socketPath := startSocketServer(t)
	server.Handle("show-party", func(ctx context.Context, args codec.RawMessage) (any, error) {
		var decoded showArgs
		if err := codec.Unmarshal(args, &decoded); err != nil {
			return nil, err
		}
		return map[string]string{"surface": decoded.Surface}, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Serve(ctx)

	var result map[string]string
	if err := Call(ctx, socketPath, "show-party", showArgs{Surface: "$evt1"}, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result["surface"] != "$evt1" {
		t.Errorf("surface = %q, want $evt1", result["surface"])
	}
}
