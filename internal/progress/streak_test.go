package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStreakFourDays(t *testing.T) {
	ledger := newMemLedger().set(day(7), 1).set(day(8), 1).set(day(9), 1).set(day(10), 1)
	item := Item{ID: uuid.New(), DailyTarget: 1}

	streak, err := ComputeStreak(context.Background(), ledger, item, day(10), 0)
	require.NoError(t, err)
	assert.Equal(t, 4, streak)
}

func TestComputeStreakEmptyLedger(t *testing.T) {
	item := Item{ID: uuid.New(), DailyTarget: 1}
	for _, ref := range []time.Time{day(1), day(20), time.Date(1999, 1, 1, 13, 0, 0, 0, time.UTC)} {
		streak, err := ComputeStreak(context.Background(), newMemLedger(), item, ref, 0)
		require.NoError(t, err)
		assert.Zero(t, streak)
	}
}

func TestComputeStreakStopsAtInsufficientCount(t *testing.T) {
	ledger := newMemLedger().set(day(7), 3).set(day(8), 2).set(day(9), 3).set(day(10), 3)
	item := Item{ID: uuid.New(), DailyTarget: 3}

	streak, err := ComputeStreak(context.Background(), ledger, item, day(10), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)
}

func TestComputeStreakCannotSkipAMiss(t *testing.T) {
	ledger := newMemLedger()
	for d := 1; d <= 12; d++ {
		if d != 6 {
			ledger.set(day(d), 1)
		}
	}
	item := Item{ID: uuid.New(), DailyTarget: 1}

	prev := -1
	for d := 12; d >= 1; d-- {
		streak, err := ComputeStreak(context.Background(), ledger, item, day(d), 0)
		require.NoError(t, err)
		if d == 6 {
			assert.Zero(t, streak)
		}
		if d > 6 {
			assert.Equal(t, d-6, streak, "ref May %d", d)
		}
		if prev >= 0 && d >= 6 {
			assert.LessOrEqual(t, streak, prev)
		}
		prev = streak
	}
}

func TestComputeStreakHonoursLimit(t *testing.T) {
	ledger := newMemLedger()
	for d := 1; d <= 20; d++ {
		ledger.set(day(d), 1)
	}
	item := Item{ID: uuid.New(), DailyTarget: 1}

	streak, err := ComputeStreak(context.Background(), ledger, item, day(20), 5)
	require.NoError(t, err)
	assert.Equal(t, 5, streak)
	assert.Equal(t, 5, ledger.reads)
}

func TestComputeStreakUsesLocalCalendarDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	ledger := newMemLedger().set(day(10), 1).set(day(9), 1)
	item := Item{ID: uuid.New(), DailyTarget: 1}

	// 2024-05-09 20:00 UTC is already May 10 in Tokyo.
	ref := time.Date(2024, time.May, 9, 20, 0, 0, 0, time.UTC).In(tokyo)
	streak, err := ComputeStreak(context.Background(), ledger, item, ref, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)
}

func TestComputeStreakPropagatesLedgerErrors(t *testing.T) {
	ledger := newMemLedger()
	ledger.err = errLedgerDown
	_, err := ComputeStreak(context.Background(), ledger, Item{ID: uuid.New(), DailyTarget: 1}, day(3), 0)
	assert.ErrorIs(t, err, errLedgerDown)
}

func TestClocks(t *testing.T) {
	at := time.Date(2024, time.May, 9, 23, 30, 0, 0, time.UTC)
	clock := FixedClock{At: at}
	assert.Equal(t, at, clock.Now())
	assert.Equal(t, day(9), clock.Today(nil))
	assert.Equal(t, day(10), clock.Today(time.FixedZone("CEST", 2*60*60)))
	assert.True(t, IsWeekStart(day(6)))
	assert.False(t, IsWeekStart(day(7)))
	assert.True(t, SameDay(at, day(9)))
}
