package services

import (
	"testing"

	"github.com/arnold/momentum-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityPagination(t *testing.T) {
	f := newFixture(t, at(1, 9))
	for d := 1; d <= 5; d++ {
		f.clock.At = at(d, 9)
		require.NoError(t, logActivity(f.db, f.user.ID, models.ActivityHabitMissed, nil, map[string]interface{}{"day": d}))
	}
	s := NewActivityService(f.db)

	page, total, err := s.List(ctx, f.user.ID, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, page, 2)
	assert.True(t, page[0].CreatedAt.Equal(at(5, 9)))
	require.NotNil(t, page[0].Metadata)
	assert.JSONEq(t, `{"day":5}`, *page[0].Metadata)

	last, _, err := s.List(ctx, f.user.ID, 3, 2)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.True(t, last[0].CreatedAt.Equal(at(1, 9)))

	// out of range values fall back to defaults
	all, _, err := s.List(ctx, f.user.ID, 0, 500)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	other := f.newUser(t, "UTC")
	none, total, err := s.List(ctx, other.ID, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Zero(t, total)
}
