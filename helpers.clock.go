package main

import (
	"time"

	"github.com/gofrs/uuid"
)

var (
	_ Clocker      = (*Clock)(nil)        // ensure Clock implements Clocker.
	_ UIDGenerator = (*IDsGenerator)(nil) // ensure IDsGenerator implements UIDGenerator.
)

// Clocker is an interface for getting current real time.
// Due dates and loan events are computed from it.
type Clocker interface {
	Now() time.Time
}

// Clock implements the Clocker interface.
type Clock struct {
	tz *time.Location
}

// NewClock returns a ready to use Clock with timezone sets
// to UTC in production environment and Local in dev env.
func NewClock(isProd bool) *Clock {
	if isProd {
		return &Clock{time.UTC}
	}
	return &Clock{time.Local}
}

// Now provides current clock time.
func (ck *Clock) Now() time.Time {
	return time.Now().In(ck.tz)
}

// UIDGenerator is an interface for getting a prefixed uid.
type UIDGenerator interface {
	Generate(prefix string) string
}

// IDsGenerator implements the UIDGenerator interface with uuid v4.
type IDsGenerator struct{}

// NewIDsGenerator returns a ready to use IDsGenerator.
func NewIDsGenerator() *IDsGenerator {
	return &IDsGenerator{}
}

// Generate provides a random unique identifier like `r:<uuid>`.
func (g *IDsGenerator) Generate(prefix string) string {
	id, err := uuid.NewV4()
	if err != nil {
		return prefix + ":" + uuid.Nil.String()
	}
	return prefix + ":" + id.String()
}
