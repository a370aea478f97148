package types

import "time"

// Clock abstracts time for seasonal discounts and audit timestamps so hosts
// and tests control the calendar.
type Clock interface {
	Now() time.Time
}

// RealClock is the wall-clock implementation.
type RealClock struct{}

// Now implements Clock.
func (RealClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct {
	T time.Time
}

// Now implements Clock.
func (c FixedClock) Now() time.Time { return c.T }
