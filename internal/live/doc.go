// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

// Package live keeps a near-real-time view of one user's recent scans and
// notifications by polling the platform feed.
//
// # Ownership
//
// A Poller exclusively owns its Buffer and NotificationStore. Readers get a
// *Snapshot, an immutable value that is replaced wholesale after every
// merge; nothing ever mutates a published snapshot. A merge completes and is
// published before any subscriber is notified, so aggregation never sees a
// half-merged buffer.
//
// # Scheduling
//
// Each Poller runs a single goroutine. Polls are serialised: the next fetch
// is not issued until the previous one has returned or hit its timeout.
// Failures are counted, never propagated; after FailureThreshold consecutive
// failures the poller reports itself disconnected and recovers on the next
// success. After Stop returns no further updates are published.
//
// Manager multiplexes pollers across users, keeps them alive while a
// WebSocket subscriber or recent REST caller needs them, and reaps idle ones.
package live
