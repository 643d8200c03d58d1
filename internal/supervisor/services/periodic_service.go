// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package services

import (
	"context"
	"time"

	"github.com/tomtom215/qrpulse/internal/logging"
)

// PeriodicService runs a task on a fixed interval until its context ends.
type PeriodicService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) int
}

// NewPeriodicService returns a service that calls task every interval. The
// task returns how many items it handled; non-zero counts are logged at debug.
// A non-positive interval means one minute.
func NewPeriodicService(name string, interval time.Duration, task func(ctx context.Context) int) *PeriodicService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PeriodicService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service.
func (p *PeriodicService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := p.task(ctx); n > 0 {
				logging.Debug().Str("service", p.name).Int("handled", n).Msg("periodic task ran")
			}
		}
	}
}

func (p *PeriodicService) String() string {
	return p.name
}
