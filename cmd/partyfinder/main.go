// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

// The partyfinder daemon runs the group-finding service on a Matrix
// homeserver: it watches joined rooms for party commands, keeps the
// roster messages current, and exposes a local control socket for
// inspection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grindhall/partyfinder/lib/clock"
	"github.com/grindhall/partyfinder/lib/service"
	"github.com/grindhall/partyfinder/messaging"
	"github.com/grindhall/partyfinder/party"
)

func main() {
	sessionPath := flag.String("session", "session.json", "path to the session credentials file")
	configPath := flag.String("config", "", "path to the party config file (empty for built-in defaults)")
	socketPath := flag.String("socket", "partyfinder.sock", "path for the control socket")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(*sessionPath, *configPath, *socketPath, logger); err != nil {
		logger.Error("partyfinder failed", "error", err)
		os.Exit(1)
	}
}

func run(sessionPath, configPath, socketPath string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessionData, err := service.LoadSession(sessionPath)
	if err != nil {
		return err
	}

	config, err := party.LoadConfig(configPath)
	if err != nil {
		return err
	}

	client, err := messaging.NewClient(messaging.ClientConfig{HomeserverURL: sessionData.HomeserverURL})
	if err != nil {
		return err
	}
	session, err := client.SessionFromToken(ctx, sessionData.AccessToken)
	if err != nil {
		return err
	}
	defer session.Close()
	logger.Info("session established",
		"homeserver", sessionData.HomeserverURL,
		"user_id", session.UserID())

	svc := newService(session, config, logger, clock.Real())

	socket, err := service.NewSocketServer(socketPath, logger)
	if err != nil {
		return err
	}
	svc.registerControlActions(socket)
	socketDone := make(chan error, 1)
	go func() { socketDone <- socket.Serve(ctx) }()
	logger.Info("control socket listening", "path", socketPath)

	syncConfig := service.SyncConfig{
		Session: session,
		Handler: svc.handleSync,
		Logger:  logger,
		Clock:   svc.clock,
		Filter:  syncFilter(),
		Timeout: 30 * time.Second,
	}
	since, err := service.InitialSync(ctx, syncConfig)
	if err != nil {
		return err
	}
	logger.Info("initial sync complete")

	err = service.RunSyncLoop(ctx, since, syncConfig)
	if ctx.Err() != nil {
		logger.Info("shutting down")
		if socketErr := <-socketDone; socketErr != nil {
			logger.Warn("control socket error on shutdown", "error", socketErr)
		}
		return nil
	}
	return fmt.Errorf("sync loop: %w", err)
}
