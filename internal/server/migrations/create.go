package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/todolist/internal/common"
)

// FileTimeFormat prefixes migration file names so that lexicographic order
// is creation order.
const FileTimeFormat = "20060102-150405"

var nameSanitizer = strings.NewReplacer(
	" ", "-",
	`\`, "_",
	"/", "_",
	"?", "_",
	"<", "_",
	">", "_",
	":", "_",
	"|", "_",
	"*", "_",
	`"`, "_",
)

// MigrationFileName turns a free-text description into a migration file
// name: "Add Tags" at 2024-05-01 10:00:00 becomes
// "20240501-100000_add-tags.sql".
func MigrationFileName(description string, now time.Time) (string, error) {
	slug := nameSanitizer.Replace(strings.TrimSpace(strings.ToLower(description)))
	if slug == "" {
		return "", common.NewValidationError(common.FieldMigrationName)
	}
	return fmt.Sprintf("%s_%s.sql", now.Format(FileTimeFormat), slug), nil
}

// CreateMigration reserves an empty migration file in dir and returns its
// name. It never overwrites an existing file.
func CreateMigration(dir, description string, now time.Time) (string, error) {
	name, err := MigrationFileName(description, now)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("create migration file: %w", err)
	}

	return name, nil
}
