// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package coordinator

import "time"

// farFuture stands in for an infinite deadline: an implementation that
// abstains from a message (see BuildFunc) reports farFuture so it never pulls
// the effective deadline down, and a message with zero registered cloud
// implementations races only against farFuture.
var farFuture = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)

// A Deadline is a tagged value: either relative to a start time not yet known,
// or already absolute. It is immutable after construction and compared, once
// absolute, by its wall-clock instant.
//
// Use NewRelativeDeadline or NewAbsoluteDeadline to construct one; the zero
// value is a relative deadline of zero duration, i.e. "immediately".
type Deadline struct {
	instant  time.Time
	relative time.Duration
	absolute bool
}

// NewRelativeDeadline returns a Deadline that is d after whatever start time
// it is later resolved against via ToAbsolute. Negative durations are clamped
// to zero, per the spec's non-negativity invariant on the relative form.
func NewRelativeDeadline(d time.Duration) Deadline {
	if d < 0 {
		d = 0
	}
	return Deadline{relative: d}
}

// NewAbsoluteDeadline returns a Deadline fixed at the given wall-clock instant.
func NewAbsoluteDeadline(t time.Time) Deadline {
	return Deadline{instant: t, absolute: true}
}

// infiniteDeadline is the sentinel absolute deadline reported by a CloudWorker
// that abstains or fails during its build phase, so it can never become the
// effective (earliest) deadline of a message.
func infiniteDeadline() Deadline {
	return NewAbsoluteDeadline(farFuture)
}

// ToAbsolute resolves a relative Deadline against start, returning
// NewAbsoluteDeadline(start + d). It is the identity for an already-absolute
// Deadline: ToAbsolute is idempotent, i.e.
// d.ToAbsolute(s).ToAbsolute(anything) == d.ToAbsolute(s).
func (d Deadline) ToAbsolute(start time.Time) Deadline {
	if d.absolute {
		return d
	}
	return NewAbsoluteDeadline(start.Add(d.relative))
}

// Instant returns the absolute wall-clock instant of an already-absolute
// Deadline. It panics if called before ToAbsolute has resolved a relative
// Deadline, since comparing an unresolved relative duration against wall-clock
// time is meaningless.
func (d Deadline) Instant() time.Time {
	if !d.absolute {
		panic("coordinator: Deadline.Instant called on an unresolved relative deadline; call ToAbsolute first")
	}
	return d.instant
}

// IsAbsolute reports whether the Deadline has already been resolved to a
// wall-clock instant.
func (d Deadline) IsAbsolute() bool {
	return d.absolute
}
