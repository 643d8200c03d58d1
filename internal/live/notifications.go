// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package live

import (
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/qrpulse/internal/cache"
	"github.com/tomtom215/qrpulse/internal/logging"
	"github.com/tomtom215/qrpulse/internal/models"
)

// clearedMemory is how long a cleared notification id is remembered so the
// platform cannot resurrect it on a later poll.
const clearedMemory = 30 * 24 * time.Hour

// NotificationBacking persists the locally owned part of a user's
// notifications. It must be safe for concurrent use.
type NotificationBacking interface {
	LoadNotificationState(userID string) (NotificationState, error)
	SaveNotificationRead(userID string, ids []string) error
	SaveNotificationCleared(userID string, ids []string) error
}

// NotificationState is what survives a poller restart: ids the user has
// read and ids the user has cleared.
type NotificationState struct {
	Read    []string
	Cleared []string
}

// NotificationStore holds a user's notifications until they are cleared.
// Read state is local and optimistic: once marked read here, a notification
// stays read regardless of what the platform reports.
type NotificationStore struct {
	userID  string
	backing NotificationBacking

	mu      sync.RWMutex
	items   map[string]models.Notification
	read    *cache.LRU[struct{}]
	cleared *cache.LRU[struct{}]
}

// NewNotificationStore returns an empty store that keeps state in memory.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		items:   make(map[string]models.Notification),
		read:    cache.NewLRU[struct{}](4096, clearedMemory),
		cleared: cache.NewLRU[struct{}](4096, clearedMemory),
	}
}

// OpenNotificationStore returns userID's store with read and cleared ids
// loaded from backing. Later changes are written through. On a load error the
// returned store is still usable and starts from whatever was loaded.
func OpenNotificationStore(userID string, backing NotificationBacking) (*NotificationStore, error) {
	s := NewNotificationStore()
	if backing == nil {
		return s, nil
	}
	s.userID = userID
	s.backing = backing

	st, err := backing.LoadNotificationState(userID)
	for _, id := range st.Read {
		s.read.Set(id, struct{}{})
	}
	for _, id := range st.Cleared {
		s.cleared.Set(id, struct{}{})
	}
	return s, err
}

// Merge adds or refreshes notifications and returns how many were new.
func (s *NotificationStore) Merge(list []models.Notification) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, n := range list {
		if n.ID == "" || s.cleared.Contains(n.ID) {
			continue
		}
		if s.read.Contains(n.ID) {
			n.Read = true
		}
		if prev, ok := s.items[n.ID]; ok {
			n.Read = n.Read || prev.Read
		} else {
			added++
		}
		s.items[n.ID] = n
	}
	return added
}

// MarkRead marks one notification read. It reports whether id was known.
func (s *NotificationStore) MarkRead(id string) bool {
	s.mu.Lock()
	n, ok := s.items[id]
	if ok {
		n.Read = true
		s.items[id] = n
		s.read.Set(id, struct{}{})
	}
	s.mu.Unlock()

	if ok {
		s.persist("read", []string{id})
	}
	return ok
}

// MarkAllRead marks everything read and returns how many changed.
func (s *NotificationStore) MarkAllRead() int {
	s.mu.Lock()
	var changed []string
	for id, n := range s.items {
		if !n.Read {
			n.Read = true
			s.items[id] = n
			s.read.Set(id, struct{}{})
			changed = append(changed, id)
		}
	}
	s.mu.Unlock()

	s.persist("read", changed)
	return len(changed)
}

// Clear removes every notification and returns how many were removed.
func (s *NotificationStore) Clear() int {
	s.mu.Lock()
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		s.cleared.Set(id, struct{}{})
		s.read.Remove(id)
		ids = append(ids, id)
	}
	s.items = make(map[string]models.Notification)
	s.mu.Unlock()

	s.persist("clear", ids)
	return len(ids)
}

// persist writes changed ids through to the backing store. Failures are
// logged; the in-memory state stays authoritative for this process.
func (s *NotificationStore) persist(op string, ids []string) {
	if s.backing == nil || len(ids) == 0 {
		return
	}
	sort.Strings(ids)

	var err error
	if op == "clear" {
		err = s.backing.SaveNotificationCleared(s.userID, ids)
	} else {
		err = s.backing.SaveNotificationRead(s.userID, ids)
	}
	if err != nil {
		logging.Warn().Err(err).Str("user_id", s.userID).Str("op", op).Int("ids", len(ids)).
			Msg("failed to persist notification state")
	}
}

// UnreadCount is derived, never stored.
func (s *NotificationStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := 0
	for _, n := range s.items {
		if !n.Read {
			c++
		}
	}
	return c
}

// List returns a copy ordered newest first. Priority does not affect order.
func (s *NotificationStore) List() []models.Notification {
	s.mu.RLock()
	out := make([]models.Notification, 0, len(s.items))
	for _, n := range s.items {
		out = append(out, n)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
