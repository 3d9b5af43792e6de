// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

// Package service holds the shared scaffolding for the partyfinder
// daemon: loading credentials from session.json, running the /sync
// long-poll loop with backoff, and serving the local CBOR control
// socket that the status CLI talks to.
package service
