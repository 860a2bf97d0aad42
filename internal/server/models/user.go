// Package models defines server-side records persisted in the database.
package models

import "time"

// User is an account. PasswordDigest holds the bcrypt digest, never the
// plaintext password.
type User struct {
	ID             string    `db:"id"`
	Username       string    `db:"username"`
	PasswordDigest string    `db:"password"`
	CreatedOn      time.Time `db:"created_on"`
}

// List is a user's task collection. Each user owns exactly one.
type List struct {
	ID     string `db:"id"`
	UserID string `db:"user_id"`
}
