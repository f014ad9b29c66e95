package domain

import "time"

// Todo is a single to-do item. OwnerID is set at creation and never changes.
type Todo struct {
	ID          string
	Title       string
	Description string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
