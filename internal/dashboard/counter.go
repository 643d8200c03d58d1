// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package dashboard

import (
	"math"
	"sync"
	"time"
)

const (
	// DefaultCounterDuration is how long a counter takes to reach its target.
	DefaultCounterDuration = 800 * time.Millisecond

	frameInterval = 16 * time.Millisecond
)

// Frame is one step of a counter animation, At after the animation starts.
type Frame struct {
	At    time.Duration `json:"at"`
	Value int64         `json:"value"`
}

// Counter animates a displayed number towards its latest value.
// The value itself changes immediately; frames are cosmetic.
type Counter struct {
	mu       sync.Mutex
	duration time.Duration
	value    int64
	set      bool
}

func NewCounter(duration time.Duration) *Counter {
	if duration <= 0 {
		duration = DefaultCounterDuration
	}
	return &Counter{duration: duration}
}

func (c *Counter) Value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set moves the counter to target and returns the frames to display. When
// unmounted, on the first value, or when nothing changed, a single final frame
// is returned. The last frame always equals target.
func (c *Counter) Set(target int64, rc RenderContext) []Frame {
	c.mu.Lock()
	from, wasSet := c.value, c.set
	c.value, c.set = target, true
	c.mu.Unlock()

	if !rc.Mounted || !wasSet || from == target {
		return []Frame{{Value: target}}
	}
	return easeOutFrames(from, target, c.duration)
}

func easeOutFrames(from, to int64, d time.Duration) []Frame {
	steps := int(d / frameInterval)
	if steps < 1 {
		steps = 1
	}
	frames := make([]Frame, 0, steps)
	delta := float64(to - from)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		eased := 1 - math.Pow(1-t, 3)
		frames = append(frames, Frame{
			At:    time.Duration(i) * d / time.Duration(steps),
			Value: from + int64(math.Round(delta*eased)),
		})
	}
	frames[len(frames)-1].Value = to
	return frames
}

// CounterView is a named counter ready for display.
type CounterView struct {
	Name   string  `json:"name"`
	Value  int64   `json:"value"`
	Frames []Frame `json:"frames"`
}

// Counters keeps one Counter per name, typically per connected client.
type Counters struct {
	mu       sync.Mutex
	duration time.Duration
	byName   map[string]*Counter
}

func NewCounters(duration time.Duration) *Counters {
	return &Counters{duration: duration, byName: make(map[string]*Counter)}
}

// Set updates the named counter. A nil Counters yields a single frame.
func (cs *Counters) Set(name string, target int64, rc RenderContext) CounterView {
	if cs == nil {
		return CounterView{Name: name, Value: target, Frames: []Frame{{Value: target}}}
	}
	cs.mu.Lock()
	c, ok := cs.byName[name]
	if !ok {
		c = NewCounter(cs.duration)
		cs.byName[name] = c
	}
	cs.mu.Unlock()
	return CounterView{Name: name, Value: target, Frames: c.Set(target, rc)}
}
