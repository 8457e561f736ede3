package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// LibraryServiceProvider is what the console and http frontends consume.
type LibraryServiceProvider interface {
	AddBook(ctx context.Context, book Book) error
	AddUser(ctx context.Context, user User) error
	Borrow(ctx context.Context, userID, isbn string) (BorrowRecord, error)
	Return(ctx context.Context, userID, isbn string) (BorrowRecord, error)
	FindBookByTitle(title string) (Book, bool)
	FindBookByISBN(isbn string) (Book, bool)
	FindBooksByAuthor(author string) []Book
	FindBooksByGenre(genre string) []Book
	SearchBooks(query string) []Book
	FindUserByID(userID string) (User, bool)
	FindUserByEmail(email string) (User, bool)
	ListAllBooks() []Book
	History(ctx context.Context, userID string) ([]LoanEvent, error)
}

// LibraryService wraps the catalog and publishes loan events for the
// journal. Queue and journal are optional.
type LibraryService struct {
	*Catalog
	logger  *zap.Logger
	clock   Clocker
	ids     UIDGenerator
	queue   Queuer
	journal LoanJournal
}

func NewLibraryService(logger *zap.Logger, catalog *Catalog, clock Clocker, ids UIDGenerator, queue Queuer, journal LoanJournal) *LibraryService {
	return &LibraryService{
		Catalog: catalog,
		logger:  logger,
		clock:   clock,
		ids:     ids,
		queue:   queue,
		journal: journal,
	}
}

// Borrow lends the book and publishes a borrow event. A snapshot failure
// keeps the loan in memory so the event is published as well.
func (ls *LibraryService) Borrow(ctx context.Context, userID, isbn string) (BorrowRecord, error) {
	rec, err := ls.Catalog.Borrow(ctx, userID, isbn)
	if err == nil || errors.Is(err, ErrPersistence) {
		ls.publish(ctx, LoanBorrowed, userID, rec)
	}
	return rec, err
}

// Return takes the book back and publishes a return event.
func (ls *LibraryService) Return(ctx context.Context, userID, isbn string) (BorrowRecord, error) {
	rec, err := ls.Catalog.Return(ctx, userID, isbn)
	if err == nil || errors.Is(err, ErrPersistence) {
		ls.publish(ctx, LoanReturned, userID, rec)
	}
	return rec, err
}

func (ls *LibraryService) publish(ctx context.Context, kind LoanEventKind, userID string, rec BorrowRecord) {
	if ls.queue == nil {
		return
	}
	event := LoanEvent{
		ID:      ls.ids.Generate(LoanEventIDPrefix),
		Kind:    kind,
		UserID:  userID,
		ISBN:    rec.ISBN,
		DueDate: rec.DueDate,
		At:      ls.clock.Now().UTC(),
	}
	if book, ok := ls.Catalog.FindBookByISBN(rec.ISBN); ok {
		event.Title = book.Title
	}
	if err := ls.queue.Push(ctx, event); err != nil {
		ls.logger.Error("service: failed to push loan event to queue",
			zap.String("event.kind", string(kind)), zap.String("user.id", userID), zap.Error(err))
	}
}

// History returns the loan events of an existing user.
func (ls *LibraryService) History(ctx context.Context, userID string) ([]LoanEvent, error) {
	if _, ok := ls.Catalog.FindUserByID(userID); !ok {
		return nil, fmt.Errorf("user %q: %w", userID, ErrNotFound)
	}
	if ls.journal == nil {
		return []LoanEvent{}, nil
	}
	return ls.journal.History(ctx, userID)
}
