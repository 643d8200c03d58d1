// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

/*
Package websocket pushes live dashboard updates to browsers.

A Hub owns every connected Client and indexes them by user. Messages are
never broadcast across users: BroadcastToUser and RenderToUser deliver only to
the connections of one user, and RenderToUser lets each connection receive a
view built for it (plan gating and counter animation state differ between
tabs).

	hub := websocket.NewHub()
	hub.SetHooks(websocket.Hooks{
	    OnConnect:    func(c *websocket.Client) { manager.Acquire(c.UserID()) },
	    OnDisconnect: func(c *websocket.Client) { manager.Release(c.UserID()) },
	})
	tree.AddMessagingService(hub)

Each client runs a read pump and a write pump. The write pump pings every
54 seconds and the read pump drops the connection when no pong arrives within
60 seconds. Clients that cannot keep up with their 64 message buffer are
disconnected rather than allowed to stall the hub.

Wire format is JSON, {"type": ..., "data": ...}, encoded with goccy/go-json.
Server messages: live_update, notification, error, pong. Client messages:
ping, mark_read {"id": ...}, mark_all_read.
*/
package websocket
