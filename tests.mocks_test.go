package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// This file contains mocks definitions needed to perform unit tests.

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDGenerator implements a fake UIDGenerator.
type MockUIDGenerator struct {
	MockedUID string
}

// NewMockUIDGenerator returns a mocked instance with predictable id.
func NewMockUIDGenerator(id string) *MockUIDGenerator {
	return &MockUIDGenerator{MockedUID: id}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDGenerator) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// MockSnapshotStore keeps the last saved snapshot in memory.
type MockSnapshotStore struct {
	mu       sync.Mutex
	Saved    Snapshot
	Saves    int
	SaveErr  error
	LoadFunc func(ctx context.Context) (Snapshot, error)
}

// Save records the snapshot unless a failure is configured.
func (m *MockSnapshotStore) Save(_ context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saves++
	m.Saved = snap
	return nil
}

// Load mocks the snapshot restoration. It defaults to the last saved snapshot.
func (m *MockSnapshotStore) Load(ctx context.Context) (Snapshot, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Saved, nil
}

// MockLoanJournal keeps recorded loan events in memory.
type MockLoanJournal struct {
	mu         sync.Mutex
	Events     []LoanEvent
	HistoryErr error
}

// Record appends the event.
func (m *MockLoanJournal) Record(_ context.Context, event LoanEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

// History returns the events of the user in recording order.
func (m *MockLoanJournal) History(_ context.Context, userID string) ([]LoanEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	events := []LoanEvent{}
	for _, e := range m.Events {
		if e.UserID == userID {
			events = append(events, e)
		}
	}
	return events, nil
}

// Len returns the number of recorded events.
func (m *MockLoanJournal) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Events)
}

// newTestCatalog returns an empty catalog saving into a mocked store.
func newTestCatalog() (*Catalog, *MockSnapshotStore, *MockClocker) {
	store := &MockSnapshotStore{}
	clock := NewMockClocker()
	return NewCatalog(zap.NewNop(), clock, store), store, clock
}

// seedCatalog adds the given books and users and fails the test on error.
func seedCatalog(t *testing.T, c *Catalog, books []Book, users []User) {
	t.Helper()
	for _, b := range books {
		require.NoError(t, c.AddBook(context.Background(), b))
	}
	for _, u := range users {
		require.NoError(t, c.AddUser(context.Background(), u))
	}
}
