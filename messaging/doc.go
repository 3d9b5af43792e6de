// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is a Matrix client for the partyfinder service.
//
// It is a thin, hand-rolled layer over the Matrix client-server API:
// no generated bindings, no third-party SDK. Client handles
// authentication against a homeserver; the Session interface covers
// the operations the service needs (sending and editing messages,
// redacting events, creating direct-message rooms, long-polling
// /sync). DirectSession is the concrete implementation, talking to
// the homeserver over net/http.
//
// All API errors surface as *MatrixError carrying the server's error
// code (M_FORBIDDEN and friends), so callers can branch on failure
// cause rather than string-matching.
package messaging
