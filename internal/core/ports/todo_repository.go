package ports

import (
	"context"

	"github.com/99minutos/todo-system/internal/core/domain"
)

// TodoUpdate carries the mutable fields of a todo. A nil Description keeps
// the stored value.
type TodoUpdate struct {
	Title       string
	Description *string
}

// TodoRepository defines persistence operations for todos. Every method that
// touches an existing document filters on (id, ownerID) in a single
// operation; a mismatch on either is reported as domain.ErrTodoNotFound.
type TodoRepository interface {
	Create(ctx context.Context, t *domain.Todo) (*domain.Todo, error)
	FindByID(ctx context.Context, id, ownerID string) (*domain.Todo, error)
	// ListByOwner returns the owner's todos sorted by title ascending.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Todo, error)
	Update(ctx context.Context, id, ownerID string, upd TodoUpdate) (*domain.Todo, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// IdempotencyStore remembers which todo a client-supplied key produced.
// A key is reserved before the insert so concurrent creates with the same
// key cannot both succeed.
type IdempotencyStore interface {
	// Reserve claims key for the caller and returns "". When an earlier
	// create already finished it returns that todo's id instead. While
	// another create holds the key it returns domain.ErrRequestInProgress.
	Reserve(ctx context.Context, ownerID, key string) (string, error)
	// Complete records the todo id produced under a reserved key.
	Complete(ctx context.Context, ownerID, key, todoID string) error
	// Release drops a reservation whose create failed.
	Release(ctx context.Context, ownerID, key string) error
}
