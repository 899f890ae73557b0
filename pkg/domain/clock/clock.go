// Package clock converts instants into user-local calendar decisions.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTimezone is used when a user has no timezone configured.
const DefaultTimezone = "America/New_York"

// DateLayout is the storage and CLI format for calendar dates.
const DateLayout = "2006-01-02"

// Clock abstracts the wall clock so schedulers can be driven by tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Fixed is a Clock frozen at a single instant.
type Fixed time.Time

func (f Fixed) Now() time.Time { return time.Time(f) }

// Resolver converts UTC instants into a user's local time. Loaded
// locations are cached because LoadLocation reads the zoneinfo database.
type Resolver struct {
	mu    sync.RWMutex
	cache map[string]*time.Location
}

func NewResolver() *Resolver {
	return &Resolver{cache: make(map[string]*time.Location)}
}

// Location returns the IANA location for name, falling back to
// DefaultTimezone when name is empty.
func (r *Resolver) Location(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	r.mu.RLock()
	loc, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("resolve timezone %q: %w", name, err)
	}
	r.mu.Lock()
	r.cache[name] = loc
	r.mu.Unlock()
	return loc, nil
}

// Local converts now into the named timezone.
func (r *Resolver) Local(now time.Time, tz string) (time.Time, error) {
	loc, err := r.Location(tz)
	if err != nil {
		return time.Time{}, err
	}
	return now.In(loc), nil
}

// IsSendHour reports whether the local hour of now in tz equals sendHour.
func (r *Resolver) IsSendHour(now time.Time, tz string, sendHour int) (bool, error) {
	local, err := r.Local(now, tz)
	if err != nil {
		return false, err
	}
	return local.Hour() == sendHour, nil
}

// Today returns the user's local calendar date for now.
func (r *Resolver) Today(now time.Time, tz string) (time.Time, error) {
	local, err := r.Local(now, tz)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(local), nil
}

// DateOf truncates t to its calendar date, expressed at UTC midnight so
// dates compare and store independently of the source location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a calendar date by n days.
func AddDays(date time.Time, n int) time.Time {
	return DateOf(date).AddDate(0, 0, n)
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}
