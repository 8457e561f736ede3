package main

import (
	"strings"
	"time"
)

// LoanPeriod is the fixed borrowing duration added to the borrow time.
const LoanPeriod = 14 * 24 * time.Hour

// MaxFieldLength is the largest accepted size in bytes of a stored text field.
const MaxFieldLength = 4096

// Book represents a catalog entry. The ISBN is its identity and
// never changes once the book has been added.
type Book struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	ISBN      string `json:"isbn"`
	Genre     string `json:"genre"`
	Year      int    `json:"year"`
	Available bool   `json:"available"`
}

// BorrowRecord is a user's claim on one book, referenced by ISBN.
type BorrowRecord struct {
	ISBN    string    `json:"isbn"`
	DueDate time.Time `json:"dueDate"`
}

// User represents a registered library member with the ordered
// list of books currently borrowed.
type User struct {
	UserID   string         `json:"userId"`
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Borrowed []BorrowRecord `json:"borrowed"`
}

// recordIndex returns the position of the borrow record for isbn or -1.
func (u *User) recordIndex(isbn string) int {
	for i, rec := range u.Borrowed {
		if rec.ISBN == isbn {
			return i
		}
	}
	return -1
}

// clone returns a deep copy so the borrow list can be handed out safely.
func (u *User) clone() User {
	c := *u
	c.Borrowed = make([]BorrowRecord, len(u.Borrowed))
	copy(c.Borrowed, u.Borrowed)
	return c
}

// ValidateBook checks every stored book field before insertion.
func ValidateBook(book *Book) error {
	fields := []struct{ name, value string }{
		{"title", book.Title},
		{"author", book.Author},
		{"isbn", book.ISBN},
		{"genre", book.Genre},
	}
	for _, f := range fields {
		if err := validateField(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUser checks every stored user field before insertion.
func ValidateUser(user *User) error {
	fields := []struct{ name, value string }{
		{"userId", user.UserID},
		{"name", user.Name},
		{"email", user.Email},
	}
	for _, f := range fields {
		if err := validateField(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// validateField rejects empty or oversized values and the characters
// the snapshot file uses as delimiters.
func validateField(name, value string) error {
	if len(strings.TrimSpace(value)) == 0 {
		return missingFieldError(name)
	}
	if len(value) > MaxFieldLength {
		return oversizedFieldError(name)
	}
	if strings.ContainsAny(value, ",\r\n") {
		return invalidFieldError(name)
	}
	if strings.HasPrefix(value, "[") {
		return invalidFieldError(name)
	}
	return nil
}
