// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package live

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/qrpulse/internal/cache"
	"github.com/tomtom215/qrpulse/internal/metrics"
	"github.com/tomtom215/qrpulse/internal/models"
)

// Snapshot is an immutable view of the live buffer. Callers must not modify
// Scans.
type Snapshot struct {
	// Scans are ordered newest first. Events without a valid timestamp sort
	// after every timestamped event, by receipt time.
	Scans []models.ScanEvent `json:"scans"`

	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`

	// TotalScans is the platform's lifetime count, nil until reported.
	TotalScans *int64 `json:"totalScans,omitempty"`

	// QRCodeCount is the number of codes the user owns, nil until reported.
	QRCodeCount *int `json:"qrCodeCount,omitempty"`

	// HasEverScanned is true once any scan has been observed, either in the
	// buffer or via a positive lifetime total.
	HasEverScanned bool `json:"hasEverScanned"`
}

// BufferConfig bounds a Buffer.
type BufferConfig struct {
	MaxSize   int
	Retention time.Duration
}

// FeedMeta carries platform counters alongside a merge. Nil fields keep the
// previous value.
type FeedMeta struct {
	TotalScans  *int64
	QRCodeCount *int
}

// MergeResult reports what a merge changed.
type MergeResult struct {
	Added      int
	Duplicates int
	Expired    int
	Evicted    int
}

// Changed reports whether the merge produced a different scan list.
func (r MergeResult) Changed() bool {
	return r.Added > 0 || r.Expired > 0 || r.Evicted > 0
}

// Buffer is a bounded, de-duplicated window of recent scans. Writers are
// serialised; readers load the current snapshot without locking.
type Buffer struct {
	cfg  BufferConfig
	mu   sync.Mutex
	seen *cache.LRU[struct{}]
	snap atomic.Pointer[Snapshot]
}

// NewBuffer returns an empty buffer. Zero config values fall back to 500
// events and 24 hours.
func NewBuffer(cfg BufferConfig) *Buffer {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 500
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	b := &Buffer{
		cfg: cfg,
		// Remembers ids after they are evicted so a lagging platform page
		// cannot reintroduce them.
		seen: cache.NewLRU[struct{}](cfg.MaxSize*4, cfg.Retention),
	}
	b.snap.Store(&Snapshot{Scans: []models.ScanEvent{}})
	return b
}

// Snapshot returns the current snapshot. It is never nil.
func (b *Buffer) Snapshot() *Snapshot {
	return b.snap.Load()
}

// Merge folds events into the buffer as of now and publishes a new snapshot.
// Duplicate ids, within the batch or against anything already accepted, are
// dropped. Events older than the retention window are dropped. When the
// buffer overflows the oldest events are evicted.
func (b *Buffer) Merge(events []models.ScanEvent, now time.Time, meta FeedMeta) MergeResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur := b.snap.Load()
	cutoff := now.Add(-b.cfg.Retention)

	var res MergeResult
	present := make(map[string]struct{}, len(cur.Scans)+len(events))
	next := make([]models.ScanEvent, 0, len(cur.Scans)+len(events))

	for i := range cur.Scans {
		e := cur.Scans[i]
		if e.EffectiveTime().Before(cutoff) {
			res.Expired++
			continue
		}
		present[e.ID] = struct{}{}
		next = append(next, e)
	}

	for i := range events {
		e := events[i]
		if _, dup := present[e.ID]; dup {
			res.Duplicates++
			continue
		}
		if e.EffectiveTime().Before(cutoff) {
			res.Expired++
			continue
		}
		if b.seen.Seen(e.ID) {
			res.Duplicates++
			continue
		}
		present[e.ID] = struct{}{}
		next = append(next, e)
		res.Added++
	}

	sortNewestFirst(next)
	if len(next) > b.cfg.MaxSize {
		res.Evicted = len(next) - b.cfg.MaxSize
		next = next[:b.cfg.MaxSize:b.cfg.MaxSize]
	}

	snap := &Snapshot{
		Scans:          next,
		Version:        cur.Version,
		UpdatedAt:      cur.UpdatedAt,
		TotalScans:     cur.TotalScans,
		QRCodeCount:    cur.QRCodeCount,
		HasEverScanned: cur.HasEverScanned || len(next) > 0 || res.Added > 0,
	}
	if meta.TotalScans != nil {
		v := *meta.TotalScans
		snap.TotalScans = &v
		if v > 0 {
			snap.HasEverScanned = true
		}
	}
	if meta.QRCodeCount != nil {
		v := *meta.QRCodeCount
		snap.QRCodeCount = &v
	}

	metaChanged := meta.TotalScans != nil || meta.QRCodeCount != nil
	if res.Changed() || metaChanged || cur.Version == 0 {
		snap.Version = cur.Version + 1
		snap.UpdatedAt = now
		b.snap.Store(snap)
	}

	if res.Duplicates > 0 {
		metrics.DuplicateScans.Add(float64(res.Duplicates))
	}
	metrics.BufferedScans.Observe(float64(len(next)))
	return res
}

// sortNewestFirst orders timestamped events by scan time descending, then
// untimestamped events by receipt time descending. Ids break ties so the
// order is deterministic.
func sortNewestFirst(s []models.ScanEvent) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := &s[i], &s[j]
		if a.HasTimestamp() != b.HasTimestamp() {
			return a.HasTimestamp()
		}
		ta, tb := a.EffectiveTime(), b.EffectiveTime()
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return a.ID < b.ID
	})
}
