package pending

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-earnings/earnings"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(ttl time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	s := NewStore(ttl)
	s.Now = clock.now
	return s, clock
}

func TestPutGetTake(t *testing.T) {
	s, _ := newTestStore(time.Minute)

	e := s.Put("user-1", earnings.Shift{ProjectID: "proj-1", TotalHours: 14})
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, e.CreatedAt.Add(time.Minute), e.ExpiresAt)

	got, err := s.Get("user-1")
	require.NoError(t, err)
	assert.Equal(t, 14.0, got.Shift.TotalHours)

	taken, err := s.Take("user-1")
	require.NoError(t, err)
	assert.Equal(t, e.ID, taken.ID)

	_, err = s.Get("user-1")
	assert.ErrorIs(t, err, ErrNoPending, "take removes the entry")
}

func TestPut_ReplacesPrevious(t *testing.T) {
	s, _ := newTestStore(time.Minute)

	s.Put("user-1", earnings.Shift{TotalHours: 10})
	s.Put("user-1", earnings.Shift{TotalHours: 12})

	got, err := s.Get("user-1")
	require.NoError(t, err)
	assert.Equal(t, 12.0, got.Shift.TotalHours)
	assert.Equal(t, 1, s.Len())
}

func TestExpiry(t *testing.T) {
	// GIVEN: A pending shift with a 30 minute TTL
	// WHEN: 30 minutes pass
	// THEN: It can no longer be taken
	s, clock := newTestStore(30 * time.Minute)
	s.Put("user-1", earnings.Shift{TotalHours: 10})

	clock.advance(29 * time.Minute)
	_, err := s.Get("user-1")
	require.NoError(t, err)

	clock.advance(time.Minute)
	_, err = s.Take("user-1")
	assert.ErrorIs(t, err, ErrNoPending)
	assert.Equal(t, 0, s.Len(), "expired entry dropped on access")
}

func TestCancel(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	s.Put("user-1", earnings.Shift{})

	require.NoError(t, s.Cancel("user-1"))
	assert.ErrorIs(t, s.Cancel("user-1"), ErrNoPending)
}

func TestRelease_OnlyRemovesSameEntry(t *testing.T) {
	// GIVEN: A pending shift that was replaced after it was read
	// WHEN: Releasing the entry that was read
	// THEN: The newer entry survives; releasing it removes it
	s, _ := newTestStore(time.Minute)
	first := s.Put("user-1", earnings.Shift{TotalHours: 10})
	second := s.Put("user-1", earnings.Shift{TotalHours: 12})

	assert.False(t, s.Release("user-1", first.ID))
	got, err := s.Get("user-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	assert.True(t, s.Release("user-1", second.ID))
	_, err = s.Get("user-1")
	assert.ErrorIs(t, err, ErrNoPending)

	assert.False(t, s.Release("user-2", "any"))
}

func TestSweep(t *testing.T) {
	s, clock := newTestStore(10 * time.Minute)
	s.Put("user-1", earnings.Shift{})
	clock.advance(5 * time.Minute)
	s.Put("user-2", earnings.Shift{})

	clock.advance(6 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	_, err := s.Get("user-2")
	assert.NoError(t, err)
}

func TestNewStore_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewStore(0).TTL)
}
