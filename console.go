package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DateLayout is how due dates are shown to console users.
const DateLayout = "2006-01-02"

const separator = "--------------------"

// Console is the menu driven frontend. It is either logged out or logged in
// as one user. Only the library service is used, never the store.
type Console struct {
	logger  *zap.Logger
	library LibraryServiceProvider
	in      *bufio.Scanner
	out     io.Writer
	current string
}

// NewConsole provides a console reading commands from in and printing to out.
func NewConsole(logger *zap.Logger, library LibraryServiceProvider, in io.Reader, out io.Writer) *Console {
	return &Console{
		logger:  logger,
		library: library,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

// Run loops over the menu until Exit is chosen, the input is exhausted
// or the context is done.
func (c *Console) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		c.displayMenu()
		choice, ok := c.readChoice()
		if !ok {
			c.printf("\nGoodbye!\n")
			return nil
		}

		if c.current != "" {
			switch choice {
			case 1:
				c.browseBooks()
			case 2:
				c.searchBooks()
			case 3:
				c.borrowBook(ctx)
			case 4:
				c.returnBook(ctx)
			case 5:
				c.viewAccount(ctx)
			case 6:
				c.logout()
			case 7:
				c.printf("Goodbye!\n")
				return nil
			default:
				c.printf("Invalid choice. Please try again.\n")
			}
			continue
		}

		switch choice {
		case 1:
			c.browseBooks()
		case 2:
			c.searchBooks()
		case 3:
			c.registerUser(ctx)
		case 4:
			c.login()
		case 5:
			c.printf("Goodbye!\n")
			return nil
		default:
			c.printf("Invalid choice. Please try again.\n")
		}
	}
	return ctx.Err()
}

func (c *Console) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

// readLine returns the next trimmed input line. It reports false on EOF.
func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			c.logger.Error("console: failed to read input", zap.Error(err))
		}
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

// prompt prints the label then reads the answer.
func (c *Console) prompt(label string) (string, bool) {
	c.printf("%s", label)
	return c.readLine()
}

// readNumber parses the next line as a positive number.
func (c *Console) readNumber() (int, error) {
	line, ok := c.readLine()
	if !ok {
		return 0, io.EOF
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a number: %w", line, ErrInvalidInput)
	}
	return n, nil
}

// readChoice asks for a menu entry until a number is given.
func (c *Console) readChoice() (int, bool) {
	c.printf("Enter your choice: ")
	for {
		n, err := c.readNumber()
		if errors.Is(err, io.EOF) {
			return 0, false
		}
		if err == nil {
			return n, true
		}
		c.printf("Invalid input. Please enter a number: ")
	}
}

func (c *Console) displayMenu() {
	c.printf("\n===== Library Management System =====\n")
	if c.current != "" {
		if user, ok := c.library.FindUserByID(c.current); ok {
			c.printf("Logged in as: %s\n", user.Name)
		}
		c.printf("1. Browse Books\n2. Search Books\n3. Borrow a Book\n4. Return a Book\n5. View My Account\n6. Logout\n7. Exit\n")
		return
	}
	c.printf("1. Browse Books\n2. Search Books\n3. Register\n4. Login\n5. Exit\n")
}

func (c *Console) displayBook(b Book) {
	available := "No"
	if b.Available {
		available = "Yes"
	}
	c.printf("Title: %s\nAuthor: %s\nISBN: %s\nGenre: %s\nPublication Year: %d\nAvailable: %s\n",
		b.Title, b.Author, b.ISBN, b.Genre, b.Year, available)
}

func (c *Console) displayBooks(books []Book) {
	for _, b := range books {
		c.displayBook(b)
		c.printf("%s\n", separator)
	}
}

func (c *Console) browseBooks() {
	c.printf("\n===== All Books =====\n")
	books := c.library.ListAllBooks()
	if len(books) == 0 {
		c.printf("No books in the catalog.\n")
		return
	}
	c.displayBooks(books)
}

func (c *Console) searchBooks() {
	c.printf("\n===== Search Books =====\n")
	c.printf("1. Search by Title\n2. Search by Author\n3. Search by Genre\n4. Search in All Fields\n5. Back to Main Menu\n")
	choice, ok := c.readChoice()
	if !ok || choice == 5 {
		return
	}

	switch choice {
	case 1:
		title, _ := c.prompt("Enter book title: ")
		if book, found := c.library.FindBookByTitle(title); found {
			c.printf("\nBook Found:\n")
			c.displayBook(book)
		} else {
			c.printf("Book not found.\n")
		}
	case 2:
		author, _ := c.prompt("Enter author name: ")
		if books := c.library.FindBooksByAuthor(author); len(books) > 0 {
			c.printf("\nBooks by %s:\n", author)
			c.displayBooks(books)
		} else {
			c.printf("No books found by this author.\n")
		}
	case 3:
		genre, _ := c.prompt("Enter genre: ")
		if books := c.library.FindBooksByGenre(genre); len(books) > 0 {
			c.printf("\nBooks in %s genre:\n", genre)
			c.displayBooks(books)
		} else {
			c.printf("No books found in this genre.\n")
		}
	case 4:
		query, _ := c.prompt("Enter search text: ")
		if books := c.library.SearchBooks(query); len(books) > 0 {
			c.printf("\nBooks matching %q:\n", query)
			c.displayBooks(books)
		} else {
			c.printf("No books match this search.\n")
		}
	default:
		c.printf("Invalid choice.\n")
	}
}

func (c *Console) registerUser(ctx context.Context) {
	c.printf("\n===== User Registration =====\n")
	userID, _ := c.prompt("Enter user ID: ")
	if _, exists := c.library.FindUserByID(userID); exists {
		c.printf("User ID already exists.\n")
		return
	}
	name, _ := c.prompt("Enter your name: ")
	email, _ := c.prompt("Enter your email: ")

	err := c.library.AddUser(ctx, User{UserID: userID, Name: name, Email: email})
	switch {
	case err == nil:
		c.printf("Registration successful! You can now login.\n")
	case errors.Is(err, ErrPersistence):
		c.printf("Registration successful! You can now login.\n")
		c.printf("Warning: the library data could not be saved.\n")
	default:
		c.printf("%s.\n", describeError(err))
	}
}

func (c *Console) login() {
	c.printf("\n===== User Login =====\n")
	email, _ := c.prompt("Enter your email: ")
	user, ok := c.library.FindUserByEmail(email)
	if !ok {
		c.printf("User not found. Please register first.\n")
		return
	}
	c.current = user.UserID
	c.logger.Info("console: user logged in", zap.String("user.id", user.UserID))
	c.printf("Welcome back, %s!\n", user.Name)
}

func (c *Console) logout() {
	c.logger.Info("console: user logged out", zap.String("user.id", c.current))
	c.current = ""
	c.printf("You have been logged out.\n")
}

func (c *Console) borrowBook(ctx context.Context) {
	c.printf("\n===== Borrow a Book =====\n")
	title, _ := c.prompt("Enter the title of the book you want to borrow: ")
	book, ok := c.library.FindBookByTitle(title)
	if !ok {
		c.printf("Book not found.\n")
		return
	}

	rec, err := c.library.Borrow(ctx, c.current, book.ISBN)
	if err != nil && !errors.Is(err, ErrPersistence) {
		c.printf("%s.\n", describeError(err))
		return
	}
	c.printf("You have successfully borrowed '%s'. Due date: %s\n", book.Title, rec.DueDate.Local().Format(DateLayout))
	if err != nil {
		c.printf("Warning: the library data could not be saved.\n")
	}
}

func (c *Console) returnBook(ctx context.Context) {
	c.printf("\n===== Return a Book =====\n")
	user, ok := c.library.FindUserByID(c.current)
	if !ok || len(user.Borrowed) == 0 {
		c.printf("You have no books to return.\n")
		return
	}

	c.printf("Your borrowed books:\n")
	for i, rec := range user.Borrowed {
		c.printf("%d. %s (Due: %s)\n", i+1, c.titleOf(rec.ISBN), rec.DueDate.Local().Format(DateLayout))
	}
	c.printf("Enter the number of the book you want to return: ")
	n, err := c.readNumber()
	if err != nil || n < 1 || n > len(user.Borrowed) {
		c.printf("Invalid selection.\n")
		return
	}

	rec := user.Borrowed[n-1]
	_, err = c.library.Return(ctx, c.current, rec.ISBN)
	if err != nil && !errors.Is(err, ErrPersistence) {
		c.printf("%s.\n", describeError(err))
		return
	}
	c.printf("You have successfully returned '%s'.\n", c.titleOf(rec.ISBN))
	if err != nil {
		c.printf("Warning: the library data could not be saved.\n")
	}
}

func (c *Console) viewAccount(ctx context.Context) {
	c.printf("\n===== My Account =====\n")
	user, ok := c.library.FindUserByID(c.current)
	if !ok {
		c.printf("User not found.\n")
		return
	}
	c.printf("User ID: %s\nName: %s\nEmail: %s\nBooks Borrowed: %d\n", user.UserID, user.Name, user.Email, len(user.Borrowed))
	if len(user.Borrowed) == 0 {
		c.printf("No books currently borrowed.\n")
	} else {
		c.printf("Borrowed Books:\n")
		for _, rec := range user.Borrowed {
			c.printf("- %s (Due: %s)\n", c.titleOf(rec.ISBN), rec.DueDate.Local().Format(DateLayout))
		}
	}

	events, err := c.library.History(ctx, user.UserID)
	if err != nil {
		c.logger.Error("console: failed to get loan history", zap.String("user.id", user.UserID), zap.Error(err))
		return
	}
	if len(events) == 0 {
		return
	}
	c.printf("Loan History:\n")
	for _, e := range events {
		c.printf("- %s %s '%s'\n", e.At.Local().Format(DateLayout), e.Kind, e.Title)
	}
}

func (c *Console) titleOf(isbn string) string {
	if book, ok := c.library.FindBookByISBN(isbn); ok {
		return book.Title
	}
	return isbn
}

// describeError renders catalog errors for console users.
func describeError(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateUserID):
		return "User ID already exists"
	case errors.Is(err, ErrDuplicateEmail):
		return "Email already registered"
	case errors.Is(err, ErrDuplicateISBN):
		return "A book with this ISBN already exists"
	case errors.Is(err, ErrNotAvailable):
		return "This book is currently not available"
	case errors.Is(err, ErrNotBorrowedByUser), errors.Is(err, ErrNotBorrowed):
		return "You have not borrowed this book"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	case errors.Is(err, ErrInvalidInput):
		return "Invalid input: " + err.Error()
	default:
		return "Operation failed: " + err.Error()
	}
}
