package main

import "time"

// LoanEventKind tells whether a loan event opened or closed a borrow.
type LoanEventKind string

const (
	LoanBorrowed LoanEventKind = "borrow"
	LoanReturned LoanEventKind = "return"
)

// LoanEvent is one entry of a user's loan history.
type LoanEvent struct {
	ID      string        `json:"id"`
	Kind    LoanEventKind `json:"kind"`
	UserID  string        `json:"userId"`
	ISBN    string        `json:"isbn"`
	Title   string        `json:"title"`
	DueDate time.Time     `json:"dueDate"`
	At      time.Time     `json:"at"`
}
