// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

/*
Command server runs the QRPulse API.

QRPulse sits in front of a QR platform's REST API. It polls each signed-in
user's scan feed, aggregates the recent scans into dashboard panels, pushes
updates over WebSocket and renders styled QR code images.

# Startup

 1. .env is loaded if present (joho/godotenv)
 2. Configuration: defaults, then config.yaml or CONFIG_PATH, then environment (koanf)
 3. Logging is reconfigured from the logging section
 4. The plan policy is loaded and the notification state store is opened
 5. The platform client, live manager, WebSocket hub and renderer are built
 6. The chi router is mounted on an http.Server
 7. Everything runs under the suture tree until SIGINT or SIGTERM

# Environment

Commonly set variables:
  - BACKEND_URL, BACKEND_API_KEY: platform API location and key
  - JWT_SECRET: HS256 secret shared with the platform's auth service
  - HTTP_PORT: listener port (default 3857)
  - LIVE_POLL_INTERVAL: feed poll cadence (default 5s)
  - STORE_PATH: BadgerDB directory for read and cleared notifications (empty keeps it in memory)
  - STORE_SYNC_WRITES, STORE_GC_INTERVAL: fsync every write and value log GC cadence (default 10m)
  - LOG_LEVEL, LOG_FORMAT: zerolog level and json/console output
*/
package main
