// Copyright 2026 The Grindhall Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec centralizes CBOR encoding for the control socket
// protocol. One deterministic encoder configuration for the whole
// codebase: callers use Marshal/Unmarshal/NewEncoder/NewDecoder and
// never touch encoder options themselves.
package codec
