package domain

import (
	"sort"
	"time"
)

// PeriodState is the derived state of an accounting period.
type PeriodState string

const (
	PeriodOpen       PeriodState = "OPEN"
	PeriodSoftClosed PeriodState = "SOFT_CLOSED"
	PeriodLocked     PeriodState = "LOCKED"
)

// Valid reports whether s is one of the known states.
func (s PeriodState) Valid() bool {
	switch s {
	case PeriodOpen, PeriodSoftClosed, PeriodLocked:
		return true
	}
	return false
}

// AccountingPeriod is an inclusive date range scoped to a company. It never stores its state.
type AccountingPeriod struct {
	PeriodID  string    `json:"periodId"`
	CompanyID string    `json:"companyId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// Covers reports whether date falls within [StartDate, EndDate] at day granularity.
func (p AccountingPeriod) Covers(date time.Time) bool {
	day := NormalizeDate(date)
	return !day.Before(NormalizeDate(p.StartDate)) && !day.After(NormalizeDate(p.EndDate))
}

// PeriodLock is one append-only entry in a period's transition log.
type PeriodLock struct {
	LockID        string      `json:"lockId"`
	PeriodID      string      `json:"periodId"`
	CompanyID     string      `json:"companyId"`
	Action        PeriodState `json:"action"`
	ActorID       string      `json:"actorId"`
	Reason        string      `json:"reason"`
	CorrelationID string      `json:"correlationId"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// FoldPeriodState derives the current state from a lock log. The most recent entry by
// (CreatedAt, LockID) wins; an empty log is OPEN. Input order does not matter.
func FoldPeriodState(locks []PeriodLock) PeriodState {
	if latest := LatestPeriodLock(locks); latest != nil {
		return latest.Action
	}
	return PeriodOpen
}

// LatestPeriodLock returns the entry FoldPeriodState reads, or nil for an empty log.
func LatestPeriodLock(locks []PeriodLock) *PeriodLock {
	var latest *PeriodLock
	for i := range locks {
		l := &locks[i]
		if latest == nil || l.CreatedAt.After(latest.CreatedAt) ||
			(l.CreatedAt.Equal(latest.CreatedAt) && l.LockID > latest.LockID) {
			latest = l
		}
	}
	return latest
}

// NextLockTime stamps an entry about to be appended to locks. The result is now unless that
// would not sort after the latest entry, in which case it is one microsecond past it.
func NextLockTime(locks []PeriodLock, now time.Time) time.Time {
	latest := LatestPeriodLock(locks)
	if latest == nil || now.After(latest.CreatedAt) {
		return now
	}
	return latest.CreatedAt.Add(time.Microsecond)
}

// SortPeriodLocks orders a lock log oldest first.
func SortPeriodLocks(locks []PeriodLock) {
	sort.SliceStable(locks, func(i, j int) bool {
		if locks[i].CreatedAt.Equal(locks[j].CreatedAt) {
			return locks[i].LockID < locks[j].LockID
		}
		return locks[i].CreatedAt.Before(locks[j].CreatedAt)
	})
}

// ResolveCoveringPeriod picks the period governing date. On overlap the latest StartDate wins,
// then the latest CreatedAt, then the greatest PeriodID. Returns nil when nothing covers date.
func ResolveCoveringPeriod(periods []AccountingPeriod, date time.Time) *AccountingPeriod {
	var best *AccountingPeriod
	for i := range periods {
		p := &periods[i]
		if !p.Covers(date) {
			continue
		}
		if best == nil || periodOutranks(*p, *best) {
			best = p
		}
	}
	if best == nil {
		return nil
	}
	resolved := *best
	return &resolved
}

func periodOutranks(a, b AccountingPeriod) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.PeriodID > b.PeriodID
}

// PeriodStateResult is the state governing a given date.
type PeriodStateResult struct {
	PeriodID string      `json:"periodId,omitempty"`
	State    PeriodState `json:"state"`
}
