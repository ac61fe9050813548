// Package model defines the data structures used throughout the application.
package model

import "time"

// Gender is the user's gender as stored in the database.
//
// The reference schema constrains this to an enum of exactly two values, so
// we mirror that with a string type plus a validity check rather than a free
// string. A CHECK constraint in the database enforces the same rule at the
// storage layer.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the known gender values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// User represents a registered user account.
//
// WHY int64 FOR THE ID?
// User IDs are assigned by the database (AUTOINCREMENT on the user table),
// so they arrive as integers. int64 matches SQLite's rowid type and avoids
// overflow however many users register.
//
// PasswordHash carries the bcrypt hash and must never leave the server —
// the `json:"-"` tag makes encoding/json skip it entirely, so even a handler
// that naively serializes a *User cannot leak it.
//
// BirthDate is a calendar date ("1990-01-01"), not an instant, so we keep it
// as the wire string rather than a time.Time that would drag a timezone and
// a fake midnight along with it. The service layer validates the format on
// the way in.
type User struct {
	ID           int64     `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Gender       Gender    `json:"gender"`
	BirthDate    string    `json:"birth_date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
