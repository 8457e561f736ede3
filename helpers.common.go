package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Catalog and frontend error kinds. Callers match them with errors.Is.
var (
	ErrDuplicateISBN     = errors.New("a book with this isbn already exists")
	ErrDuplicateUserID   = errors.New("a user with this id already exists")
	ErrDuplicateEmail    = errors.New("a user with this email already exists")
	ErrNotFound          = errors.New("not found")
	ErrNotAvailable      = errors.New("book is not available")
	ErrNotBorrowed       = errors.New("book is not borrowed")
	ErrNotBorrowedByUser = errors.New("book is not borrowed by this user")
	ErrPersistence       = errors.New("persistence failure")
	ErrInvalidInput      = errors.New("invalid input")
)

type (
	ContextKey          string
	missingFieldError   string
	invalidFieldError   string
	oversizedFieldError string
)

const (
	RequestIDPrefix         string     = "r"
	LoanEventIDPrefix       string     = "l"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
)

func (m missingFieldError) Error() string {
	return string(m) + " is required"
}

func (m missingFieldError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (f invalidFieldError) Error() string {
	return string(f) + " must not contain commas, line breaks or start with ["
}

func (f invalidFieldError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (f oversizedFieldError) Error() string {
	return fmt.Sprintf("%s must not exceed %d bytes", string(f), MaxFieldLength)
}

func (f oversizedFieldError) Is(target error) bool {
	return target == ErrInvalidInput
}

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val := ctx.Value(contextKey); val != nil {
		return val.(string)
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val := ctx.Value(RequestNumberContextKey); val != nil {
		return val.(uint64)
	}
	return 0
}

// LoginRequest is the body expected by the login endpoint.
type LoginRequest struct {
	Email string `json:"email"`
}

// DecodeLoginRequestBody is a helper function to read the content of a login request.
func DecodeLoginRequestBody(r *http.Request, login *LoginRequest) error {
	if r.Body == nil {
		return errors.New("invalid login request body")
	}
	return json.NewDecoder(r.Body).Decode(login)
}

// ValidateLoginRequestBody is a helper function to check if the content of a login request is valid.
func ValidateLoginRequestBody(login *LoginRequest) error {
	if len(strings.TrimSpace(login.Email)) == 0 {
		return missingFieldError("email")
	}
	return nil
}

// DecodeCreateBookRequestBody is a helper function to read the content of a book creation request.
func DecodeCreateBookRequestBody(r *http.Request, book *Book) error {
	if r.Body == nil {
		return errors.New("invalid create book request body")
	}
	return json.NewDecoder(r.Body).Decode(book)
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		netIP = net.ParseIP(strings.TrimSpace(ip))
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}
