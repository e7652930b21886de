package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertEntryUpdatesExistingDay(t *testing.T) {
	f := newFixture(t, at(3, 10))
	habit := f.newHabit(t, NewHabitService(f.db, f.opts), 1)
	ledger := NewLedgerStore(f.db)

	first, err := ledger.UpsertEntry(ctx, habit.ID, day(3), 1)
	require.NoError(t, err)
	second, err := ledger.UpsertEntry(ctx, habit.ID, at(3, 18), 2)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Count)

	entry, err := ledger.FindEntry(ctx, habit.ID, day(3))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.Count)
	assert.True(t, entry.Date.Equal(day(3)))

	removed, err := ledger.UpsertEntry(ctx, habit.ID, day(3), 0)
	require.NoError(t, err)
	assert.Nil(t, removed)
	entry, err = ledger.FindEntry(ctx, habit.ID, day(3))
	require.NoError(t, err)
	assert.Nil(t, entry)
}
