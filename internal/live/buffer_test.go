// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package live

import (
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/qrpulse/internal/models"
)

var t0 = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func ev(id string, ts time.Time) models.ScanEvent {
	return models.ScanEvent{ID: id, Timestamp: ts, ReceivedAt: t0, Device: models.Device{Type: models.DeviceMobile}}
}

func ids(s *Snapshot) []string {
	out := make([]string, len(s.Scans))
	for i := range s.Scans {
		out[i] = s.Scans[i].ID
	}
	return out
}

func TestBufferMergeDeduplicates(t *testing.T) {
	t.Parallel()

	b := NewBuffer(BufferConfig{})
	r := b.Merge([]models.ScanEvent{ev("1", t0), ev("1", t0), ev("2", t0.Add(-time.Minute))}, t0, FeedMeta{})
	if r.Added != 2 || r.Duplicates != 1 {
		t.Fatalf("MergeResult = %+v", r)
	}

	r = b.Merge([]models.ScanEvent{ev("2", t0.Add(-time.Minute))}, t0, FeedMeta{})
	if r.Added != 0 || r.Duplicates != 1 {
		t.Fatalf("second MergeResult = %+v", r)
	}
	if n := len(b.Snapshot().Scans); n != 2 {
		t.Errorf("len = %d, want 2", n)
	}
}

func TestBufferOrderingNewestFirst(t *testing.T) {
	t.Parallel()

	b := NewBuffer(BufferConfig{})
	bad := models.ScanEvent{ID: "bad", ReceivedAt: t0}
	b.Merge([]models.ScanEvent{
		ev("old", t0.Add(-3*time.Hour)),
		bad,
		ev("new", t0.Add(-time.Minute)),
		ev("mid", t0.Add(-time.Hour)),
	}, t0, FeedMeta{})

	got := fmt.Sprint(ids(b.Snapshot()))
	if got != "[new mid old bad]" {
		t.Errorf("order = %s", got)
	}
}

func TestBufferRetention(t *testing.T) {
	t.Parallel()

	b := NewBuffer(BufferConfig{Retention: 24 * time.Hour})
	r := b.Merge([]models.ScanEvent{ev("stale", t0.Add(-25*time.Hour)), ev("fresh", t0.Add(-23*time.Hour))}, t0, FeedMeta{})
	if r.Added != 1 || r.Expired != 1 {
		t.Fatalf("MergeResult = %+v", r)
	}

	// Two hours later the remaining event ages out on an empty merge.
	r = b.Merge(nil, t0.Add(2*time.Hour), FeedMeta{})
	if r.Expired != 1 || len(b.Snapshot().Scans) != 0 {
		t.Errorf("MergeResult = %+v, len = %d", r, len(b.Snapshot().Scans))
	}
}

func TestBufferMaxSizeAndEvictedIDsStayDead(t *testing.T) {
	t.Parallel()

	b := NewBuffer(BufferConfig{MaxSize: 3})
	var batch []models.ScanEvent
	for i := 0; i < 5; i++ {
		batch = append(batch, ev(fmt.Sprintf("s%d", i), t0.Add(time.Duration(-i)*time.Minute)))
	}
	r := b.Merge(batch, t0, FeedMeta{})
	if r.Evicted != 2 {
		t.Fatalf("Evicted = %d, want 2", r.Evicted)
	}
	if got := fmt.Sprint(ids(b.Snapshot())); got != "[s0 s1 s2]" {
		t.Fatalf("ids = %s", got)
	}

	r = b.Merge([]models.ScanEvent{ev("s4", t0.Add(-4*time.Minute))}, t0, FeedMeta{})
	if r.Added != 0 || r.Duplicates != 1 {
		t.Errorf("evicted id re-added: %+v", r)
	}
}

func TestBufferSnapshotsAreImmutable(t *testing.T) {
	t.Parallel()

	b := NewBuffer(BufferConfig{})
	b.Merge([]models.ScanEvent{ev("1", t0)}, t0, FeedMeta{})
	first := b.Snapshot()
	firstIDs := fmt.Sprint(ids(first))

	b.Merge([]models.ScanEvent{ev("2", t0.Add(time.Second))}, t0.Add(time.Second), FeedMeta{})
	second := b.Snapshot()

	if fmt.Sprint(ids(first)) != firstIDs {
		t.Error("earlier snapshot was modified")
	}
	if second == first || second.Version <= first.Version {
		t.Errorf("expected a new snapshot version: %d -> %d", first.Version, second.Version)
	}
}

func TestBufferUnchangedMergeKeepsVersion(t *testing.T) {
	t.Parallel()

	b := NewBuffer(BufferConfig{})
	b.Merge([]models.ScanEvent{ev("1", t0)}, t0, FeedMeta{})
	v := b.Snapshot().Version
	b.Merge([]models.ScanEvent{ev("1", t0)}, t0, FeedMeta{})
	if b.Snapshot().Version != v {
		t.Error("duplicate-only merge should not publish a new snapshot")
	}
}

func TestBufferFeedMeta(t *testing.T) {
	t.Parallel()

	b := NewBuffer(BufferConfig{})
	codes := 0
	b.Merge(nil, t0, FeedMeta{QRCodeCount: &codes})
	s := b.Snapshot()
	if s.QRCodeCount == nil || *s.QRCodeCount != 0 || s.HasEverScanned {
		t.Fatalf("snapshot = %+v", s)
	}

	total := int64(12)
	b.Merge(nil, t0, FeedMeta{TotalScans: &total})
	s = b.Snapshot()
	if !s.HasEverScanned || s.TotalScans == nil || *s.TotalScans != 12 || s.QRCodeCount == nil {
		t.Errorf("snapshot = %+v", s)
	}
}
