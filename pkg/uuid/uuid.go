// Package uuid provides time-ordered identifiers for audit rows and chat exchanges.
// UUID v7 sorts by creation time, which keeps the audit tables append-friendly.
package uuid

import (
	"time"

	guuid "github.com/google/uuid"
)

// UUID is a v7 identifier.
type UUID = guuid.UUID

// NewV7 returns a new UUID v7. google/uuid only fails when the system random
// source fails; in that case a v4 is returned instead of panicking.
func NewV7() UUID {
	u, err := guuid.NewV7()
	if err != nil {
		return guuid.New()
	}
	return u
}

// NewString is shorthand for NewV7().String().
func NewString() string {
	return NewV7().String()
}

// Time extracts the creation time encoded in a v7 identifier.
// The zero time is returned for any other version.
func Time(u UUID) time.Time {
	if u.Version() != 7 {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec).UTC()
}
