package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Catalog is the in-memory aggregate of all books and users. Reads take
// the shared lock. Mutations take the exclusive lock for both the change
// and the snapshot written after it.
type Catalog struct {
	mu     sync.RWMutex
	logger *zap.Logger
	clock  Clocker
	store  SnapshotStore

	books     map[string]*Book
	bookOrder []string
	genres    map[string][]string
	users     map[string]*User
	userOrder []string
	emails    map[string]string
	holders   map[string]string
}

// NewCatalog provides an empty catalog persisted through the given store.
func NewCatalog(logger *zap.Logger, clock Clocker, store SnapshotStore) *Catalog {
	c := &Catalog{
		logger: logger,
		clock:  clock,
		store:  store,
	}
	c.reset()
	return c
}

func (c *Catalog) reset() {
	c.books = make(map[string]*Book)
	c.bookOrder = nil
	c.genres = make(map[string][]string)
	c.users = make(map[string]*User)
	c.userOrder = nil
	c.emails = make(map[string]string)
	c.holders = make(map[string]string)
}

// Load replaces the catalog content with the stored snapshot.
// A store without snapshot yields an empty catalog.
func (c *Catalog) Load(ctx context.Context) error {
	snap, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	skipped := c.restore(snap)
	c.logger.Info("catalog: loaded",
		zap.Int("books", len(c.books)),
		zap.Int("users", len(c.users)),
		zap.Int("borrowed", len(c.holders)),
		zap.Int("skipped", skipped),
	)
	return nil
}

// restore rebuilds every index from snap. Borrow records are attached as
// stored without recomputing due dates. It returns the number of dropped
// entries. The caller must hold the exclusive lock.
func (c *Catalog) restore(snap Snapshot) int {
	c.reset()
	skipped := 0
	for _, book := range snap.Books {
		if _, ok := c.books[book.ISBN]; ok {
			c.logger.Warn("catalog: duplicate isbn in snapshot", zap.String("book.isbn", book.ISBN))
			skipped++
			continue
		}
		c.insertBook(book)
	}

	for _, u := range snap.Users {
		if _, ok := c.users[u.UserID]; ok {
			c.logger.Warn("catalog: duplicate user id in snapshot", zap.String("user.id", u.UserID))
			skipped++
			continue
		}
		if _, ok := c.emails[u.Email]; ok {
			c.logger.Warn("catalog: duplicate email in snapshot", zap.String("user.id", u.UserID))
			skipped++
			continue
		}
		records := u.Borrowed
		u.Borrowed = nil
		user := c.insertUser(u)
		for _, rec := range records {
			if _, ok := c.books[rec.ISBN]; !ok {
				c.logger.Warn("catalog: borrowed isbn not in catalog",
					zap.String("user.id", user.UserID), zap.String("book.isbn", rec.ISBN))
				skipped++
				continue
			}
			if holder, ok := c.holders[rec.ISBN]; ok {
				c.logger.Warn("catalog: book already held by another user",
					zap.String("user.id", user.UserID), zap.String("holder.id", holder), zap.String("book.isbn", rec.ISBN))
				skipped++
				continue
			}
			user.Borrowed = append(user.Borrowed, rec)
			c.holders[rec.ISBN] = user.UserID
		}
	}

	// availability always follows the borrow records.
	for isbn, book := range c.books {
		_, held := c.holders[isbn]
		if book.Available == held {
			c.logger.Warn("catalog: stored availability disagrees with borrow records",
				zap.String("book.isbn", isbn), zap.Bool("stored", book.Available), zap.Bool("held", held))
		}
		book.Available = !held
	}
	return skipped
}

func (c *Catalog) insertBook(book Book) {
	b := book
	c.books[b.ISBN] = &b
	c.bookOrder = append(c.bookOrder, b.ISBN)
	c.genres[b.Genre] = append(c.genres[b.Genre], b.ISBN)
}

func (c *Catalog) insertUser(user User) *User {
	u := user
	c.users[u.UserID] = &u
	c.userOrder = append(c.userOrder, u.UserID)
	c.emails[u.Email] = u.UserID
	return &u
}

// snapshot builds the current state and hands it to the store.
// The caller must hold the exclusive lock.
func (c *Catalog) snapshot(ctx context.Context) error {
	snap := Snapshot{
		Books: make([]Book, 0, len(c.bookOrder)),
		Users: make([]User, 0, len(c.userOrder)),
	}
	for _, isbn := range c.bookOrder {
		snap.Books = append(snap.Books, *c.books[isbn])
	}
	for _, id := range c.userOrder {
		snap.Users = append(snap.Users, c.users[id].clone())
	}
	if err := c.store.Save(ctx, snap); err != nil {
		c.logger.Error("catalog: failed to save snapshot", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

// AddBook inserts a new available book then saves the catalog.
func (c *Catalog) AddBook(ctx context.Context, book Book) error {
	if err := ValidateBook(&book); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.books[book.ISBN]; ok {
		return ErrDuplicateISBN
	}
	book.Available = true
	c.insertBook(book)
	return c.snapshot(ctx)
}

// AddUser registers a new user without borrows then saves the catalog.
func (c *Catalog) AddUser(ctx context.Context, user User) error {
	if err := ValidateUser(&user); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[user.UserID]; ok {
		return ErrDuplicateUserID
	}
	if _, ok := c.emails[user.Email]; ok {
		return ErrDuplicateEmail
	}
	user.Borrowed = nil
	c.insertUser(user)
	return c.snapshot(ctx)
}

// FindBookByTitle returns the first book, in insertion order, with that exact title.
func (c *Catalog) FindBookByTitle(title string) (Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, isbn := range c.bookOrder {
		if b := c.books[isbn]; b.Title == title {
			return *b, true
		}
	}
	return Book{}, false
}

// FindBookByISBN returns the book with that isbn.
func (c *Catalog) FindBookByISBN(isbn string) (Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if b, ok := c.books[isbn]; ok {
		return *b, true
	}
	return Book{}, false
}

// FindBooksByAuthor returns all books with that exact author.
func (c *Catalog) FindBooksByAuthor(author string) []Book {
	return c.filter(func(b *Book) bool { return b.Author == author })
}

// FindBooksByGenre returns all books with that exact genre from the genre index.
func (c *Catalog) FindBooksByGenre(genre string) []Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	isbns := c.genres[genre]
	books := make([]Book, 0, len(isbns))
	for _, isbn := range isbns {
		books = append(books, *c.books[isbn])
	}
	return books
}

// SearchBooks returns the books whose title, author or genre contains query.
// Matching is case-sensitive.
func (c *Catalog) SearchBooks(query string) []Book {
	return c.filter(func(b *Book) bool {
		return strings.Contains(b.Title, query) ||
			strings.Contains(b.Author, query) ||
			strings.Contains(b.Genre, query)
	})
}

func (c *Catalog) filter(match func(*Book) bool) []Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	books := []Book{}
	for _, isbn := range c.bookOrder {
		if b := c.books[isbn]; match(b) {
			books = append(books, *b)
		}
	}
	return books
}

// ListAllBooks returns every book sorted by title then isbn.
func (c *Catalog) ListAllBooks() []Book {
	books := c.filter(func(*Book) bool { return true })
	sort.Slice(books, func(i, j int) bool {
		if books[i].Title != books[j].Title {
			return books[i].Title < books[j].Title
		}
		return books[i].ISBN < books[j].ISBN
	})
	return books
}

// FindUserByID returns a copy of the user with that id.
func (c *Catalog) FindUserByID(userID string) (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if u, ok := c.users[userID]; ok {
		return u.clone(), true
	}
	return User{}, false
}

// FindUserByEmail returns a copy of the user registered with that email.
func (c *Catalog) FindUserByEmail(email string) (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id, ok := c.emails[email]; ok {
		return c.users[id].clone(), true
	}
	return User{}, false
}

// ListUsers returns every user in registration order.
func (c *Catalog) ListUsers() []User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	users := make([]User, 0, len(c.userOrder))
	for _, id := range c.userOrder {
		users = append(users, c.users[id].clone())
	}
	return users
}
