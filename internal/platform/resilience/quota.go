package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrQuotaExhausted = errors.New("daily request quota exhausted")

// QuotaGovernor counts network requests against a daily ceiling that resets
// at UTC midnight.
type QuotaGovernor struct {
	mu sync.Mutex

	limit int
	date  string
	count int
	now   func() time.Time
}

type QuotaSnapshot struct {
	Date      string  `json:"date"`
	Used      int     `json:"used"`
	Limit     int     `json:"limit"`
	Remaining int     `json:"remaining"`
	UsedRatio float64 `json:"used_ratio"`
}

func NewQuotaGovernor(dailyLimit int) *QuotaGovernor {
	return &QuotaGovernor{
		limit: dailyLimit,
		now:   time.Now,
	}
}

// Check returns ErrQuotaExhausted when no headroom remains today.
func (q *QuotaGovernor) Check() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollLocked()
	if q.limit > 0 && q.count >= q.limit {
		return ErrQuotaExhausted
	}
	return nil
}

func (q *QuotaGovernor) Record() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollLocked()
	q.count++
}

// Seed replaces the counter for date, typically with a count rebuilt from the
// usage log at startup. A seed for a day other than today is ignored.
func (q *QuotaGovernor) Seed(date time.Time, count int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollLocked()
	if UTCDay(date) != q.date || count < 0 {
		return
	}
	q.count = count
}

func (q *QuotaGovernor) Snapshot() QuotaSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollLocked()
	out := QuotaSnapshot{
		Date:  q.date,
		Used:  q.count,
		Limit: q.limit,
	}
	if q.limit > 0 {
		out.Remaining = q.limit - q.count
		if out.Remaining < 0 {
			out.Remaining = 0
		}
		out.UsedRatio = float64(q.count) / float64(q.limit)
	}
	return out
}

func (q *QuotaGovernor) rollLocked() {
	today := UTCDay(q.now())
	if q.date != today {
		q.date = today
		q.count = 0
	}
}

// UTCDay formats t as the UTC calendar day used for quota accounting.
func UTCDay(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// StartOfUTCDay returns the most recent UTC midnight at or before t.
func StartOfUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
