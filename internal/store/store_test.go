// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package store

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/qrpulse/internal/live"
	"github.com/tomtom215/qrpulse/internal/models"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadNotificationState(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	if err := s.SaveNotificationRead("u1", []string{"b", "a"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveNotificationCleared("u1", []string{"c"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveNotificationRead("u10", []string{"x"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		user    string
		read    []string
		cleared []string
	}{
		{"u1", []string{"a", "b"}, []string{"c"}},
		{"u10", []string{"x"}, nil},
		{"nobody", nil, nil},
	}
	for _, tt := range tests {
		st, err := s.LoadNotificationState(tt.user)
		if err != nil {
			t.Fatalf("LoadNotificationState(%s) error = %v", tt.user, err)
		}
		if !reflect.DeepEqual(st.Read, tt.read) || !reflect.DeepEqual(st.Cleared, tt.cleared) {
			t.Errorf("%s: state = %+v, want read %v cleared %v", tt.user, st, tt.read, tt.cleared)
		}
	}
}

func TestSaveIgnoresEmptyIDs(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	if err := s.SaveNotificationRead("u1", nil); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveNotificationRead("u1", []string{""}); err != nil {
		t.Fatal(err)
	}
	st, _ := s.LoadNotificationState("u1")
	if len(st.Read) != 0 {
		t.Errorf("Read = %v, want none", st.Read)
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first, err := Open(Config{Path: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := first.SaveNotificationCleared("u1", []string{"n1", "n2"}); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := Open(Config{Path: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	st, err := second.LoadNotificationState("u1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(st.Cleared, []string{"n1", "n2"}) {
		t.Errorf("Cleared = %v after reopen", st.Cleared)
	}
	if _, err := second.RunGC(); err != nil {
		t.Errorf("RunGC() error = %v", err)
	}
}

func TestClosedStore(t *testing.T) {
	t.Parallel()

	s, err := Open(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := s.SaveNotificationRead("u1", []string{"a"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Save after Close = %v, want ErrClosed", err)
	}
	if _, err := s.LoadNotificationState("u1"); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after Close = %v, want ErrClosed", err)
	}
	if _, err := s.RunGC(); !errors.Is(err, ErrClosed) {
		t.Errorf("RunGC after Close = %v, want ErrClosed", err)
	}
}

func TestNotificationStoreWritesThrough(t *testing.T) {
	t.Parallel()

	s := openMemory(t)
	ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	feed := []models.Notification{
		{ID: "n1", Title: "first", Timestamp: ts},
		{ID: "n2", Title: "second", Timestamp: ts.Add(time.Minute)},
		{ID: "n3", Title: "third", Timestamp: ts.Add(2 * time.Minute)},
	}

	notes, err := live.OpenNotificationStore("u1", s)
	if err != nil {
		t.Fatal(err)
	}
	notes.Merge(feed[:2])
	notes.MarkRead("n1")
	notes.Clear()

	// A restarted process sees the same feed again plus one new item.
	again, err := live.OpenNotificationStore("u1", s)
	if err != nil {
		t.Fatal(err)
	}
	again.Merge(feed)
	list := again.List()
	if len(list) != 1 || list[0].ID != "n3" || again.UnreadCount() != 1 {
		t.Fatalf("list = %+v, unread = %d", list, again.UnreadCount())
	}

	again.MarkRead("n3")
	third, _ := live.OpenNotificationStore("u1", s)
	third.Merge(feed)
	if third.UnreadCount() != 0 {
		t.Errorf("UnreadCount = %d, want read state restored", third.UnreadCount())
	}
}
