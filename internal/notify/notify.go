// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notify is the user-facing notification boundary.
//
// The coordinator produces short human-readable messages (a server-provided
// 401 message, the inactivity-logout warning). How they are rendered is the
// host's concern; sinks are registered on a Dispatcher.
package notify

import "sync"

// Level indicates the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns a string representation of the Level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notifier receives user-facing notifications.
type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a plain function to the Notifier interface.
type Func func(level Level, message string)

// Notify implements Notifier.
func (f Func) Notify(level Level, message string) {
	f(level, message)
}

// Discard is a Notifier that drops everything.
var Discard Notifier = Func(func(Level, string) {})

// Dispatcher fans notifications out to every registered sink.
// The zero value is usable and drops notifications until a sink registers.
type Dispatcher struct {
	mu    sync.RWMutex
	sinks []Notifier
}

// Register adds a sink. Nil sinks are ignored.
func (d *Dispatcher) Register(n Notifier) {
	if n == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, n)
}

// Notify implements Notifier by forwarding to every sink.
func (d *Dispatcher) Notify(level Level, message string) {
	d.mu.RLock()
	sinks := make([]Notifier, len(d.sinks))
	copy(sinks, d.sinks)
	d.mu.RUnlock()

	for _, s := range sinks {
		s.Notify(level, message)
	}
}

// Recorder is a Notifier that remembers everything it receives.
// Intended for tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is one recorded notification.
type Entry struct {
	Level   Level
	Message string
}

// Notify implements Notifier.
func (r *Recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: message})
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
