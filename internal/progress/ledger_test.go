package progress

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// memLedger is an in-memory Ledger keyed by calendar day.
type memLedger struct {
	counts map[time.Time]int
	reads  int
	err    error
}

func newMemLedger() *memLedger {
	return &memLedger{counts: map[time.Time]int{}}
}

func (l *memLedger) set(day time.Time, count int) *memLedger {
	l.counts[DateOf(day)] = count
	return l
}

func (l *memLedger) FindEntry(_ context.Context, _ uuid.UUID, date time.Time) (*Entry, error) {
	l.reads++
	if l.err != nil {
		return nil, l.err
	}
	count, ok := l.counts[DateOf(date)]
	if !ok {
		return nil, nil
	}
	return &Entry{Date: DateOf(date), Count: count}, nil
}

var errLedgerDown = errors.New("ledger down")

// day returns a date in May 2024. May 1 2024 is a Wednesday; May 6 is a Monday.
func day(d int) time.Time {
	return time.Date(2024, time.May, d, 0, 0, 0, 0, time.UTC)
}
