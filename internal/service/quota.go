package service

import (
	"sync"
	"time"
)

// RelayTimezone is the fixed civil timezone used for message timestamps and
// quota windows.
var RelayTimezone = time.FixedZone("UTC+8", 8*60*60)

// QuotaPolicy decides whether an origin may create another message. The
// policy is the per-day creation count variant: an origin is denied once it
// has created Limit messages since local midnight in the fixed timezone. The
// window is time-bounded, so the counter resets on its own.
//
// The clock is injected so tests can pin the window edge.
type QuotaPolicy struct {
	Limit    int
	Location *time.Location
	Now      func() time.Time
}

func NewQuotaPolicy(limit int) *QuotaPolicy {
	return &QuotaPolicy{
		Limit:    limit,
		Location: RelayTimezone,
		Now:      time.Now,
	}
}

// WindowStart returns local midnight of the current day.
func (p *QuotaPolicy) WindowStart() time.Time {
	now := p.Now().In(p.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, p.Location)
}

// CreatedAt returns the server-assigned creation timestamp.
func (p *QuotaPolicy) CreatedAt() time.Time {
	return p.Now().In(p.Location)
}

// originLocks serializes quota-check-then-insert per origin so two
// concurrent requests from the same IP cannot both pass the check.
type originLocks struct {
	mu sync.Map // ip -> *sync.Mutex
}

func (l *originLocks) Lock(origin string) func() {
	v, _ := l.mu.LoadOrStore(origin, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
