package models

import "time"

// Task is a single to-do item. CompletedOn is set exactly when Completed is
// true.
type Task struct {
	ID          string     `db:"id" json:"id"`
	ListID      string     `db:"list_id" json:"list_id"`
	Description string     `db:"description" json:"description"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedOn *time.Time `db:"completed_on" json:"completed_on"`
	CreatedOn   time.Time  `db:"created_on" json:"created_on"`
	UpdatedOn   time.Time  `db:"updated_on" json:"updated_on"`
}

// CompletionTransition returns the completed_on value a task must carry
// after its completed flag changes from the stored state to next.
// Marking a task done stamps now, reopening it clears the stamp, and
// anything else keeps what was stored.
func (t *Task) CompletionTransition(next bool, now time.Time) *time.Time {
	switch {
	case !t.Completed && next:
		stamp := now
		return &stamp
	case t.Completed && !next:
		return nil
	default:
		return t.CompletedOn
	}
}
