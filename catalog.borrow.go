package main

import (
	"context"
	"fmt"
	"time"
)

// Borrow hands the book over to the user. The record due date is the
// current time plus the loan period, rounded up to the next whole second.
func (c *Catalog) Borrow(ctx context.Context, userID, isbn string) (BorrowRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	user, ok := c.users[userID]
	if !ok {
		return BorrowRecord{}, fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	book, ok := c.books[isbn]
	if !ok {
		return BorrowRecord{}, fmt.Errorf("book %q: %w", isbn, ErrNotFound)
	}
	if !book.Available {
		return BorrowRecord{}, ErrNotAvailable
	}

	rec := BorrowRecord{
		ISBN:    isbn,
		DueDate: dueDate(c.clock.Now()),
	}
	user.Borrowed = append(user.Borrowed, rec)
	book.Available = false
	c.holders[isbn] = userID
	return rec, c.snapshot(ctx)
}

// Return gives the book back. Late returns are accepted. It provides
// the record that was closed.
func (c *Catalog) Return(ctx context.Context, userID, isbn string) (BorrowRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	user, ok := c.users[userID]
	if !ok {
		return BorrowRecord{}, fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	book, ok := c.books[isbn]
	if !ok {
		return BorrowRecord{}, fmt.Errorf("book %q: %w", isbn, ErrNotFound)
	}
	if book.Available {
		return BorrowRecord{}, ErrNotBorrowed
	}
	idx := user.recordIndex(isbn)
	if idx < 0 {
		return BorrowRecord{}, ErrNotBorrowedByUser
	}

	rec := user.Borrowed[idx]
	user.Borrowed = append(user.Borrowed[:idx], user.Borrowed[idx+1:]...)
	book.Available = true
	delete(c.holders, isbn)
	return rec, c.snapshot(ctx)
}

// dueDate returns the loan end for a borrow at t. It is stored in whole
// seconds and never falls before t plus the loan period.
func dueDate(t time.Time) time.Time {
	due := t.Add(LoanPeriod).UTC()
	whole := due.Truncate(time.Second)
	if whole.Before(due) {
		whole = whole.Add(time.Second)
	}
	return whole
}
