package services

import (
	"context"
	"testing"
	"time"

	"github.com/arnold/momentum-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepCatchesUpEveryUser(t *testing.T) {
	f := newFixture(t, at(1, 9))
	habits := NewHabitService(f.db, f.opts)
	first := f.newHabit(t, habits, 1)
	f.user = f.newUser(t, "Europe/Berlin")
	second := f.newHabit(t, habits, 1)

	var notified []uuid.UUID
	scheduler := NewVitalityScheduler(f.db, habits, time.Hour, func(userID uuid.UUID) {
		notified = append(notified, userID)
	})

	f.clock.At = at(3, 9)
	changed, err := scheduler.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Len(t, notified, 2)

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		var stored models.Habit
		require.NoError(t, f.db.First(&stored, "id = ?", id).Error)
		assert.Equal(t, 60, stored.Health)
		assert.Equal(t, 2, stored.ConsecutiveMisses)
	}

	// nothing left to do on the same day
	changed, err = scheduler.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
	assert.Len(t, notified, 2)
}

func TestSchedulerStartStop(t *testing.T) {
	f := newFixture(t, at(1, 9))
	habits := NewHabitService(f.db, f.opts)

	scheduler := NewVitalityScheduler(f.db, habits, 10*time.Millisecond, nil)
	scheduler.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	scheduler.Stop()

	disabled := NewVitalityScheduler(f.db, habits, 0, nil)
	disabled.Start(context.Background())
	disabled.Stop()
}
