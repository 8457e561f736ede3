package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Section markers of the snapshot file.
const (
	SectionBooks    = "[BOOKS]"
	SectionUsers    = "[USERS]"
	SectionBorrowed = "[BORROWED]"
)

type fileSnapshotStore struct {
	logger *zap.Logger
	path   string
}

// NewFileSnapshotStore provides a snapshot store backed by a line-oriented text file.
func NewFileSnapshotStore(logger *zap.Logger, path string) SnapshotStore {
	return &fileSnapshotStore{
		logger: logger,
		path:   path,
	}
}

// Save writes the snapshot into a temporary file next to the target
// then renames it over the previous snapshot.
func (fs *fileSnapshotStore) Save(_ context.Context, snap Snapshot) error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create data folder: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	if err = EncodeSnapshot(tmp, snap); err != nil {
		cleanup()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err = os.Rename(tmp.Name(), fs.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	fs.logger.Debug("store: snapshot saved", zap.String("path", fs.path),
		zap.Int("books", len(snap.Books)), zap.Int("users", len(snap.Users)))
	return nil
}

// Load reads the snapshot file. A missing file gives an empty snapshot.
func (fs *fileSnapshotStore) Load(_ context.Context) (Snapshot, error) {
	file, err := os.Open(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		fs.logger.Info("store: no snapshot found, starting empty", zap.String("path", fs.path))
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	defer file.Close()

	snap, skipped, err := DecodeSnapshot(file)
	if err != nil {
		return Snapshot{}, err
	}
	for _, s := range skipped {
		fs.logger.Warn("store: skipped snapshot record", zap.Int("line", s.Line), zap.String("reason", s.Reason))
	}
	return snap, nil
}

// EncodeSnapshot writes the snapshot in the sectioned text layout. The
// users marker is repeated before each user so that the line following
// a borrowed section is never read as a borrow record.
func EncodeSnapshot(w io.Writer, snap Snapshot) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, SectionBooks)
	for _, b := range snap.Books {
		available := "0"
		if b.Available {
			available = "1"
		}
		fmt.Fprintln(bw, strings.Join([]string{b.Title, b.Author, b.ISBN, b.Genre, strconv.Itoa(b.Year), available}, ","))
	}
	for _, u := range snap.Users {
		fmt.Fprintln(bw, SectionUsers)
		fmt.Fprintln(bw, strings.Join([]string{u.UserID, u.Name, u.Email}, ","))
		if len(u.Borrowed) == 0 {
			continue
		}
		fmt.Fprintln(bw, SectionBorrowed+u.UserID)
		for _, rec := range u.Borrowed {
			fmt.Fprintln(bw, rec.ISBN+","+strconv.FormatInt(rec.DueDate.Unix(), 10))
		}
	}
	return bw.Flush()
}

// maxRecordLength bounds a snapshot line. A book record holds six fields.
const maxRecordLength = 8 * MaxFieldLength

// SkippedRecord describes a snapshot line ignored while decoding.
type SkippedRecord struct {
	Line   int
	Reason string
}

// DecodeSnapshot parses the sectioned text layout. Malformed lines are
// skipped and reported, only read failures are returned as error.
func DecodeSnapshot(r io.Reader) (Snapshot, []SkippedRecord, error) {
	var snap Snapshot
	var skipped []SkippedRecord
	section := ""
	// position of the user owning the current borrowed section, -1 if unknown.
	owner := -1

	br := bufio.NewReader(r)
	n := 0
	for done := false; !done; {
		raw, err := br.ReadString('\n')
		if errors.Is(err, io.EOF) {
			done = true
		} else if err != nil {
			return Snapshot{}, skipped, err
		}
		n++
		skip := func(reason string) {
			skipped = append(skipped, SkippedRecord{Line: n, Reason: reason})
		}
		line := strings.TrimRight(raw, "\r\n")
		if len(line) == 0 {
			continue
		}
		if len(line) > maxRecordLength {
			skip("record exceeds the maximum length")
			continue
		}

		if line[0] == '[' {
			section = line
			if strings.HasPrefix(line, SectionBorrowed) {
				owner = findUserIndex(snap.Users, strings.TrimPrefix(line, SectionBorrowed))
				if owner < 0 {
					skip("borrowed section for unknown user")
				}
			} else if line != SectionBooks && line != SectionUsers {
				skip("unknown section " + line)
			}
			continue
		}

		switch {
		case section == SectionBooks:
			book, err := parseBookLine(line)
			if err != nil {
				skip(err.Error())
				continue
			}
			snap.Books = append(snap.Books, book)

		case section == SectionUsers:
			fields := strings.Split(line, ",")
			if len(fields) != 3 {
				skip("user record must have 3 fields")
				continue
			}
			user := User{UserID: fields[0], Name: fields[1], Email: fields[2]}
			if err := ValidateUser(&user); err != nil {
				skip(err.Error())
				continue
			}
			snap.Users = append(snap.Users, user)

		case strings.HasPrefix(section, SectionBorrowed):
			if owner < 0 {
				continue
			}
			rec, err := parseBorrowLine(line)
			if err != nil {
				skip(err.Error())
				continue
			}
			snap.Users[owner].Borrowed = append(snap.Users[owner].Borrowed, rec)

		default:
			skip("record outside of a known section")
		}
	}
	return snap, skipped, nil
}

func parseBookLine(line string) (Book, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 6 {
		return Book{}, errors.New("book record must have 6 fields")
	}
	year, err := strconv.Atoi(fields[4])
	if err != nil {
		return Book{}, fmt.Errorf("invalid publication year %q", fields[4])
	}
	var available bool
	switch fields[5] {
	case "1":
		available = true
	case "0":
		available = false
	default:
		return Book{}, fmt.Errorf("invalid availability flag %q", fields[5])
	}
	book := Book{
		Title:     fields[0],
		Author:    fields[1],
		ISBN:      fields[2],
		Genre:     fields[3],
		Year:      year,
		Available: available,
	}
	if err = ValidateBook(&book); err != nil {
		return Book{}, err
	}
	return book, nil
}

func parseBorrowLine(line string) (BorrowRecord, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 2 || len(fields[0]) == 0 {
		return BorrowRecord{}, errors.New("borrow record must have 2 fields")
	}
	due, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return BorrowRecord{}, fmt.Errorf("invalid due date %q", fields[1])
	}
	return BorrowRecord{ISBN: fields[0], DueDate: time.Unix(due, 0).UTC()}, nil
}

// findUserIndex returns the position of the last user with that id.
func findUserIndex(users []User, userID string) int {
	for i := len(users) - 1; i >= 0; i-- {
		if users[i].UserID == userID {
			return i
		}
	}
	return -1
}
