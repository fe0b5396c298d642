// Package models holds the login lockout state and its transition rules.
// Stores persist these records; the rules live here and in the service.
package models

import (
	"time"
)

// DailyWindow is the period over which DailyFailures accumulate.
const DailyWindow = 24 * time.Hour

// AuthLockout tracks failed logins for one identity.
type AuthLockout struct {
	Identifier    string     `json:"identifier"`
	FailureCount  int        `json:"failure_count"`  // failures in the current window
	DailyFailures int        `json:"daily_failures"` // failures in the last DailyWindow (hard lock)
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	LastFailureAt time.Time  `json:"last_failure_at"`
}

// IsLockedAt reports whether a hard lock is in force at now.
func (l *AuthLockout) IsLockedAt(now time.Time) bool {
	return l.LockedUntil != nil && now.Before(*l.LockedUntil)
}

// IsAttemptLimitReached is true when the window still holds limit failures.
func (l *AuthLockout) IsAttemptLimitReached(limit int, window time.Duration, now time.Time) bool {
	if l.FailureCount < limit {
		return false
	}
	return now.Before(l.WindowResetAt(window))
}

// WindowResetAt is when the current failure window expires.
func (l *AuthLockout) WindowResetAt(window time.Duration) time.Time {
	return l.LastFailureAt.Add(window)
}

// RemainingAttempts never goes below zero.
func (l *AuthLockout) RemainingAttempts(limit int) int {
	return max(limit-l.FailureCount, 0)
}

// ShouldHardLock is true once daily failures reach the threshold.
func (l *AuthLockout) ShouldHardLock(threshold int) bool {
	return l.DailyFailures >= threshold
}

func (l *AuthLockout) ApplyHardLock(duration time.Duration, now time.Time) {
	until := now.Add(duration)
	l.LockedUntil = &until
}

// Result is the outcome of a lockout check.
type Result struct {
	Allowed      bool
	Remaining    int
	FailureCount int
	// ResetAt is when a blocked caller may try again; zero when allowed.
	ResetAt time.Time
}

// RetryAfter is the wait in whole seconds, rounded up, and never negative.
func (r Result) RetryAfter(now time.Time) int {
	if r.Allowed || r.ResetAt.IsZero() {
		return 0
	}
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
