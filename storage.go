package main

import "context"

// Snapshot is the full serializable state of the catalog.
// Books and users keep their catalog insertion order.
type Snapshot struct {
	Books []Book
	Users []User
}

// SnapshotStore defines how the whole catalog is saved and restored.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// LoanJournal defines possible operations on the loan history.
type LoanJournal interface {
	Record(ctx context.Context, event LoanEvent) error
	History(ctx context.Context, userID string) ([]LoanEvent, error)
}
