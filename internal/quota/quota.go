// Package quota meters assistant usage per user and local calendar day.
package quota

import (
	"time"

	"github.com/finboard/finboard/internal/models"
	"github.com/finboard/finboard/internal/store"
)

// Result reports the outcome of a consumption attempt.
type Result struct {
	Allowed bool `json:"allowed"`
	Count   int  `json:"count"`
	Limit   int  `json:"limit"`
}

// Tracker enforces the fixed daily limit. Counters roll over lazily: the
// stored date is compared against today's local date on every consume, never
// by a background job.
type Tracker struct {
	store *store.Store
	limit int
	now   func() time.Time
}

// NewTracker constructs a Tracker with the given daily limit.
func NewTracker(s *store.Store, limit int) *Tracker {
	return &Tracker{store: s, limit: limit, now: time.Now}
}

// dayKey derives the local calendar-day key. Quotas reset at local midnight,
// not 24 hours after first use.
func (t *Tracker) dayKey() string {
	return t.now().Format("2006-01-02")
}

// Consume records one metered call for the user. Unlimited callers (admins
// and vip holders) are never denied and never counted. For everyone else the
// counter resets when its stored date is stale, denies at the limit, and
// increments otherwise.
func (t *Tracker) Consume(userID int64, unlimited bool) (Result, error) {
	if unlimited {
		return Result{Allowed: true, Limit: t.limit}, nil
	}

	today := t.dayKey()
	var out Result
	errUpdate := t.store.Update(func(doc *models.Document) error {
		key := models.UserKey(userID)
		counter := doc.ChatUsage[key]
		if counter == nil || counter.Date != today {
			counter = &models.UsageCounter{Date: today}
			doc.ChatUsage[key] = counter
		}
		if counter.Count >= t.limit {
			out = Result{Allowed: false, Count: counter.Count, Limit: t.limit}
			return nil
		}
		counter.Count++
		out = Result{Allowed: true, Count: counter.Count, Limit: t.limit}
		return nil
	})
	if errUpdate != nil {
		return Result{}, errUpdate
	}
	return out, nil
}
