// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the inactivity scheduler.
//
// The scheduler owns two deadlines anchored to the last reported activity:
// a warning deadline and a hard-logout deadline. Both timers are armed from
// the same reference instant so their relative order holds even when the
// scheduling mechanism drifts. Once the warning phase begins, passive
// activity no longer extends the session; only an explicit Reset (the
// "continue connected" action) does. This keeps an unattended terminal with
// background input jitter from silently outliving the warning point.
//
// The scheduler performs no I/O. Its only outputs are the warning state,
// the live countdown, and the OnLogout callback.
package session

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// touchCoalesceInterval bounds how often activity events may re-arm the
// timers. Input devices can emit hundreds of events per second; re-arming
// on every one is wasted work. The resulting deadline staleness is under
// 50ms, far inside the best-effort timer accuracy this package promises.
const touchCoalesceInterval = 50 * time.Millisecond

// =============================================================================
// PHASE
// =============================================================================

// Phase represents the current state of the inactivity cycle.
type Phase int

const (
	// PhaseActive means the warning deadline has not been reached.
	PhaseActive Phase = iota
	// PhaseWarning means the countdown is visible; only Reset returns
	// the session to PhaseActive.
	PhaseWarning
	// PhaseEnded means the logout callback fired (or Stop was called)
	// and the scheduler is torn down.
	PhaseEnded
)

// String returns a string representation of the Phase.
func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "ACTIVE"
	case PhaseWarning:
		return "WARNING"
	case PhaseEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// =============================================================================
// SCHEDULER
// =============================================================================

// Config holds the inactivity scheduler configuration.
type Config struct {
	// WarningAfter is the inactivity span before the warning shows.
	WarningAfter time.Duration

	// LogoutAfter is the inactivity span before forced logout.
	// Must be strictly greater than WarningAfter.
	LogoutAfter time.Duration

	// OnLogout is invoked exactly once when the logout deadline expires.
	// Called without any scheduler lock held.
	OnLogout func()
}

// Scheduler owns the warning timer, the logout timer, and the one-second
// countdown as a single resource: tearing it down is one operation, so no
// individual timer can be forgotten.
type Scheduler struct {
	mu sync.Mutex

	warningAfter time.Duration
	logoutAfter  time.Duration
	onLogout     func()

	active      bool
	phase       Phase
	showWarning bool
	secondsLeft int

	// anchor is the reference instant both deadlines derive from.
	anchor       time.Time
	lastActivity time.Time

	warningTimer  *time.Timer
	logoutTimer   *time.Timer
	countdown     *time.Ticker
	countdownDone chan struct{}

	// generation invalidates callbacks from timers that were already
	// rescheduled or torn down when they fired.
	generation uint64

	touchLimiter *rate.Limiter
}

// New creates an inactivity scheduler. Misconfigured deadlines are a
// programming error and are rejected, not clamped.
func New(cfg Config) (*Scheduler, error) {
	if cfg.WarningAfter <= 0 {
		return nil, fmt.Errorf("session: warning offset must be positive, got %v", cfg.WarningAfter)
	}
	if cfg.LogoutAfter <= cfg.WarningAfter {
		return nil, fmt.Errorf("session: logout offset %v must be greater than warning offset %v",
			cfg.LogoutAfter, cfg.WarningAfter)
	}
	return &Scheduler{
		warningAfter: cfg.WarningAfter,
		logoutAfter:  cfg.LogoutAfter,
		onLogout:     cfg.OnLogout,
		phase:        PhaseActive,
		touchLimiter: rate.NewLimiter(rate.Every(touchCoalesceInterval), 1),
	}, nil
}

// SetActive starts or suspends the inactivity cycle. Deactivating tears
// down every timer; nothing fires while inactive. Re-activating restarts
// the full cycle from the current instant.
func (s *Scheduler) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == active {
		return
	}
	s.active = active
	if active {
		s.scheduleLocked(time.Now())
		return
	}
	s.teardownLocked()
	s.phase = PhaseActive
}

// Touch reports a tracked activity event. It reschedules both deadlines
// from the event instant, but only while the warning is not showing:
// passive activity never dismisses the warning.
func (s *Scheduler) Touch() {
	if !s.touchLimiter.Allow() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || s.showWarning {
		return
	}
	s.scheduleLocked(time.Now())
}

// Reset restarts the full cycle from the call instant, cancelling any
// pending warning. This is the "continue connected" action and the only
// way out of the warning phase short of logout.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.scheduleLocked(time.Now())
}

// Stop tears the scheduler down permanently. After Stop, OnLogout will
// never be invoked. Call when the owning scope goes away.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teardownLocked()
	s.active = false
	s.phase = PhaseEnded
}

// =============================================================================
// INTERNAL SCHEDULING
// =============================================================================

// scheduleLocked arms both timers from the given reference instant.
// Caller must hold s.mu.
func (s *Scheduler) scheduleLocked(now time.Time) {
	s.teardownLocked()

	s.phase = PhaseActive
	s.anchor = now
	s.lastActivity = now
	s.generation++
	gen := s.generation

	warningDelay := s.warningAfter
	logoutDelay := s.logoutAfter
	// The countdown is seeded from the span to the already-armed logout
	// timer, never recomputed later, so the two cannot drift apart.
	warningSpan := logoutDelay - warningDelay

	s.warningTimer = time.AfterFunc(warningDelay, func() {
		s.warningFired(gen, warningSpan)
	})
	s.logoutTimer = time.AfterFunc(logoutDelay, func() {
		s.logoutFired(gen)
	})
}

func (s *Scheduler) warningFired(gen uint64, span time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || !s.active {
		return
	}
	s.showWarning = true
	s.phase = PhaseWarning
	s.startCountdownLocked(int(span / time.Second))
}

func (s *Scheduler) logoutFired(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || !s.active {
		s.mu.Unlock()
		return
	}
	s.teardownLocked()
	s.active = false
	s.phase = PhaseEnded
	callback := s.onLogout
	s.mu.Unlock()

	if callback != nil {
		callback()
	}
}

// startCountdownLocked begins the one-second countdown at the given number
// of seconds, flooring at zero. Caller must hold s.mu.
func (s *Scheduler) startCountdownLocked(seconds int) {
	s.stopCountdownLocked()
	s.secondsLeft = seconds

	ticker := time.NewTicker(time.Second)
	done := make(chan struct{})
	s.countdown = ticker
	s.countdownDone = done

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.secondsLeft > 0 {
					s.secondsLeft--
				}
				s.mu.Unlock()
			}
		}
	}()
}

func (s *Scheduler) stopCountdownLocked() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
	if s.countdownDone != nil {
		close(s.countdownDone)
		s.countdownDone = nil
	}
}

// teardownLocked cancels every outstanding timer and clears warning state.
// Caller must hold s.mu.
func (s *Scheduler) teardownLocked() {
	if s.warningTimer != nil {
		s.warningTimer.Stop()
		s.warningTimer = nil
	}
	if s.logoutTimer != nil {
		s.logoutTimer.Stop()
		s.logoutTimer = nil
	}
	s.stopCountdownLocked()
	s.generation++
	s.showWarning = false
	s.secondsLeft = 0
}

// =============================================================================
// STATE ACCESSORS
// =============================================================================

// ShowWarning reports whether the warning countdown should be visible.
func (s *Scheduler) ShowWarning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showWarning
}

// SecondsLeft returns the seconds remaining before forced logout while the
// warning is showing, and 0 otherwise.
func (s *Scheduler) SecondsLeft() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secondsLeft
}

// Phase returns the current phase of the inactivity cycle.
func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Active reports whether the cycle is running.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// LastActivity returns the instant of the last accepted activity event.
func (s *Scheduler) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// WarningDeadline returns the instant the warning fires, derived from the
// current anchor. Zero while inactive.
func (s *Scheduler) WarningDeadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return time.Time{}
	}
	return s.anchor.Add(s.warningAfter)
}

// LogoutDeadline returns the instant the hard logout fires, derived from
// the current anchor. Zero while inactive.
func (s *Scheduler) LogoutDeadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return time.Time{}
	}
	return s.anchor.Add(s.logoutAfter)
}

// WarningSpanSeconds returns the countdown's initial value for the given
// offsets: the exact span between the warning and logout deadlines.
func WarningSpanSeconds(warningAfter, logoutAfter time.Duration) int {
	return int((logoutAfter - warningAfter) / time.Second)
}
