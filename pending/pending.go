/*
Package pending holds shifts a user has entered but not yet confirmed.

PURPOSE:
  A chat or form front end parses a shift, shows it back to the user and
  waits for confirmation. Until then the draft lives here, keyed by user.

POLICY:
  - One pending shift per user: Put replaces any previous draft
  - Every entry carries an expiry (Store.TTL after it was put)
  - Expired entries are invisible to Get and Take and removed by Sweep
  - Cancel removes an entry explicitly

  Nothing here touches the database. Confirming a pending shift means
  Get, then persist + calculate, then Release, which the API layer does.
  Release only removes the entry it was given, so a draft put while the
  confirmation ran survives.

CONCURRENCY:
  All methods are safe for concurrent use.
*/
package pending

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/shift-earnings/earnings"
)

// DefaultTTL applies when a Store is created with a non-positive TTL.
const DefaultTTL = 30 * time.Minute

// ErrNoPending is returned when a user has no live pending shift.
var ErrNoPending = errors.New("no pending shift")

// Entry is a user's unconfirmed shift.
type Entry struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Shift     earnings.Shift `json:"shift"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func (e *Entry) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store is an in-memory map from user ID to pending shift.
type Store struct {
	TTL time.Duration
	Now func() time.Time

	mu      sync.Mutex
	entries map[string]*Entry
}

// NewStore creates a pending store whose entries live for ttl.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		TTL:     ttl,
		Now:     time.Now,
		entries: make(map[string]*Entry),
	}
}

// Put stores shift as userID's pending shift, replacing any earlier one.
func (s *Store) Put(userID string, shift earnings.Shift) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	e := &Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Shift:     shift,
		CreatedAt: now,
		ExpiresAt: now.Add(s.TTL),
	}
	s.entries[userID] = e
	return *e
}

// Get returns userID's pending shift without removing it.
func (s *Store) Get(userID string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(userID)
	if !ok {
		return Entry{}, ErrNoPending
	}
	return *e, nil
}

// Take removes and returns userID's pending shift.
func (s *Store) Take(userID string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(userID)
	if !ok {
		return Entry{}, ErrNoPending
	}
	delete(s.entries, userID)
	return *e, nil
}

// Release removes userID's pending shift if it is still entry entryID.
// It reports whether anything was removed.
func (s *Store) Release(userID, entryID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok || e.ID != entryID {
		return false
	}
	delete(s.entries, userID)
	return true
}

// Cancel discards userID's pending shift.
func (s *Store) Cancel(userID string) error {
	_, err := s.Take(userID)
	return err
}

// Sweep removes every expired entry and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	removed := 0
	for userID, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, userID)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// live must be called with mu held. Expired entries are dropped on sight.
func (s *Store) live(userID string) (*Entry, bool) {
	e, ok := s.entries[userID]
	if !ok {
		return nil, false
	}
	if e.expired(s.Now()) {
		delete(s.entries, userID)
		return nil, false
	}
	return e, true
}
