package migrations

import "fmt"

// MigrationError reports the script that stopped a migration run. Name is
// empty when the run failed before any script was attempted.
type MigrationError struct {
	Name string
	Err  error
}

func (e *MigrationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("migrations: %v", e.Err)
	}
	return fmt.Sprintf("migration %s failed: %v", e.Name, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
