// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

/*
Package supervisor runs QRPulse's long-lived services under suture v4.

# Overview

Services are grouped into three layers so a crash in one restarts only its
own subtree:

	qrpulse
	├── live-layer
	│   ├── live.Manager         (per-user pollers and idle sweep)
	│   ├── render-cache-sweeper (services.PeriodicService)
	│   └── store-gc             (services.PeriodicService)
	├── messaging-layer
	│   └── websocket.Hub
	└── api-layer
	    └── services.HTTPServerService

live.Manager and websocket.Hub implement suture.Service directly. Anything
else is wrapped by the services subpackage.

# Failure Handling

Each supervisor keeps a decaying failure counter. Once it passes
FailureThreshold, restarts wait FailureBackoff. The counter decays over
FailureDecay seconds. DefaultTreeConfig uses suture's own defaults.

Any return from Serve while the tree is running counts as a stop and the
service is restarted, unless it returns suture.ErrDoNotRestart. Services must
return promptly once their context ends.

# Usage

	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddLiveService(manager)
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))
	errCh := tree.ServeBackground(ctx)

Supervisor events go through sutureslog to the slog.Logger passed in, which
in production is the zerolog bridge from the logging package.

After shutdown, UnstoppedServiceReport names services that ignored their
context past ShutdownTimeout.
*/
package supervisor
