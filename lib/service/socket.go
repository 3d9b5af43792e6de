// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/grindhall/partyfinder/lib/codec"
)

// Request is a single control-socket request: an action name plus
// action-specific arguments.
type Request struct {
	Action string           `cbor:"action"`
	Args   codec.RawMessage `cbor:"args,omitempty"`
}

// Response is the reply to a control-socket request.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// ActionFunc handles one control action. The returned value is CBOR
// encoded into Response.Data; a returned error becomes an error
// response.
type ActionFunc func(ctx context.Context, args codec.RawMessage) (any, error)

// SocketServer serves one-shot CBOR request/response exchanges over a
// Unix domain socket. Each connection carries exactly one request.
// The socket file's permissions (0600) are the access control: only
// the daemon's own user can connect.
type SocketServer struct {
	path     string
	logger   *slog.Logger
	actions  map[string]ActionFunc
	listener net.Listener

	mu     sync.Mutex
	closed bool
	conns  map[net.Conn]struct{}
}

// NewSocketServer creates a server for the given socket path. A stale
// socket file from a previous run is removed.
func NewSocketServer(path string, logger *slog.Logger) (*SocketServer, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing stale socket %s: %w", path, err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restricting socket permissions: %w", err)
	}
	return &SocketServer{
		path:     path,
		logger:   logger,
		actions:  make(map[string]ActionFunc),
		listener: listener,
		conns:    make(map[net.Conn]struct{}),
	}, nil
}

// Handle registers the handler for an action name. Must be called
// before Serve.
func (s *SocketServer) Handle(action string, fn ActionFunc) {
	s.actions[action] = fn
}

// Serve accepts connections until ctx is cancelled or Close is
// called.
func (s *SocketServer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting connection: %w", err)
		}

		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		go s.handleConn(ctx, conn)
	}
}

// Close stops the listener and closes in-flight connections.
func (s *SocketServer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.listener.Close()
	os.Remove(s.path)
}

func (s *SocketServer) handleConn(ctx context.Context, conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	conn.SetDeadline(time.Now().Add(30 * time.Second))

	var request Request
	if err := codec.NewDecoder(conn).Decode(&request); err != nil {
		if !errors.Is(err, io.EOF) {
			s.logger.Warn("malformed control request", "error", err)
		}
		return
	}

	response := s.dispatch(ctx, request)
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Warn("failed to write control response",
			"action", request.Action,
			"error", err)
	}
}

func (s *SocketServer) dispatch(ctx context.Context, request Request) Response {
	fn, ok := s.actions[request.Action]
	if !ok {
		return Response{Error: fmt.Sprintf("unknown action %q", request.Action)}
	}
	result, err := fn(ctx, request.Args)
	if err != nil {
		return Response{Error: err.Error()}
	}
	data, err := codec.Marshal(result)
	if err != nil {
		s.logger.Error("failed to encode control response",
			"action", request.Action,
			"error", err)
		return Response{Error: "internal encoding error"}
	}
	return Response{OK: true, Data: data}
}

// Call performs a one-shot request against a control socket. It is
// the client half used by the status CLI.
func Call(ctx context.Context, socketPath, action string, args, result any) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	request := Request{Action: action}
	if args != nil {
		encoded, err := codec.Marshal(args)
		if err != nil {
			return fmt.Errorf("encoding request args: %w", err)
		}
		request.Args = encoded
	}
	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return fmt.Errorf("sending request: %w", err)
	}

	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if !response.OK {
		return fmt.Errorf("%s: %s", action, response.Error)
	}
	if result != nil && response.Data != nil {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}
