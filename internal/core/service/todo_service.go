package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/todo-system/internal/core/domain"
	"github.com/99minutos/todo-system/internal/core/ports"
)

type TodoService struct {
	repo   ports.TodoRepository
	idem   ports.IdempotencyStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewTodoService builds the service. idem may be nil, in which case
// Idempotency-Key headers are ignored.
func NewTodoService(repo ports.TodoRepository, idem ports.IdempotencyStore, logger zerolog.Logger) *TodoService {
	return &TodoService{repo: repo, idem: idem, logger: logger, now: time.Now}
}

// CreateTodo persists a new todo owned by input.OwnerID. If an idempotency
// key is provided and already seen for this owner, the earlier todo is
// returned without side effects. The key is reserved before the insert, so
// a concurrent create with the same key gets domain.ErrRequestInProgress.
func (s *TodoService) CreateTodo(ctx context.Context, input ports.CreateTodoInput) (*ports.CreateTodoResult, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}

	held := false
	if s.idem != nil && input.IdempotencyKey != "" {
		existing, ok, err := s.reserve(ctx, input.OwnerID, input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &ports.CreateTodoResult{Todo: existing, Replayed: true}, nil
		}
		held = ok
	}

	now := s.now().UTC()
	todo := &domain.Todo{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		OwnerID:     input.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, todo)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", input.OwnerID).Msg("failed to create todo")
		if held {
			if rerr := s.idem.Release(ctx, input.OwnerID, input.IdempotencyKey); rerr != nil {
				s.logger.Warn().Err(rerr).Str("idempotency_key", input.IdempotencyKey).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	if held {
		if err := s.idem.Complete(ctx, input.OwnerID, input.IdempotencyKey, created.ID); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", input.IdempotencyKey).Msg("failed to store idempotency key")
		}
	}

	s.logger.Info().Str("todo_id", created.ID).Str("user_id", input.OwnerID).Msg("todo created")
	return &ports.CreateTodoResult{Todo: created}, nil
}

// reserve claims key for this create. It returns the earlier todo when the
// key already produced one that still exists, and held=true when the caller
// must complete or release the key. Store failures fall through to a plain
// create without the key.
func (s *TodoService) reserve(ctx context.Context, ownerID, key string) (*domain.Todo, bool, error) {
	id, err := s.idem.Reserve(ctx, ownerID, key)
	if errors.Is(err, domain.ErrRequestInProgress) {
		return nil, false, err
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency reserve failed, creating anyway")
		return nil, false, nil
	}
	if id == "" {
		return nil, true, nil
	}

	existing, err := s.repo.FindByID(ctx, id, ownerID)
	if err != nil {
		// The todo was deleted since; the key is reused for a fresh create.
		if !errors.Is(err, domain.ErrTodoNotFound) {
			s.logger.Warn().Err(err).Str("todo_id", id).Msg("idempotent replay lookup failed")
		}
		return nil, true, nil
	}

	s.logger.Info().Str("idempotency_key", key).Str("todo_id", id).Msg("idempotent replay")
	return existing, false, nil
}

// ListTodos returns every todo owned by ownerID ordered by title.
func (s *TodoService) ListTodos(ctx context.Context, ownerID string) ([]*domain.Todo, error) {
	todos, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []*domain.Todo{}
	}

	slices.SortStableFunc(todos, func(a, b *domain.Todo) int {
		return strings.Compare(a.Title, b.Title)
	})
	return todos, nil
}

func (s *TodoService) UpdateTodo(ctx context.Context, input ports.UpdateTodoInput) (*domain.Todo, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}

	upd := ports.TodoUpdate{Title: title}
	if input.Description != nil {
		d := strings.TrimSpace(*input.Description)
		upd.Description = &d
	}

	updated, err := s.repo.Update(ctx, input.ID, input.OwnerID, upd)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("todo_id", updated.ID).Str("user_id", input.OwnerID).Msg("todo updated")
	return updated, nil
}

func (s *TodoService) DeleteTodo(ctx context.Context, id, ownerID string) error {
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return err
	}

	s.logger.Info().Str("todo_id", id).Str("user_id", ownerID).Msg("todo deleted")
	return nil
}
