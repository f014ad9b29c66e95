package ports

import (
	"context"

	"github.com/99minutos/todo-system/internal/core/domain"
)

// CreateTodoInput carries all data needed to create a todo.
type CreateTodoInput struct {
	Title          string
	Description    string
	OwnerID        string
	IdempotencyKey string
}

// UpdateTodoInput carries a full replacement of a todo's editable fields.
type UpdateTodoInput struct {
	ID          string
	Title       string
	Description *string
	OwnerID     string
}

// CreateTodoResult is returned by CreateTodo.
type CreateTodoResult struct {
	Todo *domain.Todo
	// Replayed is true when the Idempotency-Key matched an earlier create.
	Replayed bool
}

// TodoService defines use-case operations for todos. OwnerID always comes
// from the verified token, never from the request body.
type TodoService interface {
	CreateTodo(ctx context.Context, input CreateTodoInput) (*CreateTodoResult, error)
	ListTodos(ctx context.Context, ownerID string) ([]*domain.Todo, error)
	UpdateTodo(ctx context.Context, input UpdateTodoInput) (*domain.Todo, error)
	DeleteTodo(ctx context.Context, id, ownerID string) error
}
