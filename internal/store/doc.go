// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

/*
Package store keeps the notification state QRPulse owns locally in BadgerDB.

The platform is the source of truth for notifications themselves, but which
ones a user has read or cleared is decided here. Store implements
live.NotificationBacking so that state survives both idle poller sweeps and
process restarts.

# Key Layout

	notif:read:<userID>\x00<notificationID>     read marker
	notif:cleared:<userID>\x00<notificationID>  cleared tombstone

Each value is a small JSON record with the time it was written. Every key
carries Config.Retention as its Badger TTL, so expired markers disappear
without a compaction pass.

# Usage

	st, err := store.Open(store.Config{Path: cfg.Store.Path})
	if err != nil {
		return err
	}
	defer st.Close()

	manager := live.NewManager(platform, live.ManagerConfig{Backing: st})

An empty Path opens an in-memory database, which tests use.
*/
package store
