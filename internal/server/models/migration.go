package models

import "time"

// MigrationRecord marks one successfully applied migration script.
type MigrationRecord struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	MigratedOn time.Time `db:"migrated_on"`
}
