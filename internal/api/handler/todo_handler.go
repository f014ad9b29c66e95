package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/todo-system/internal/api/metrics"
	"github.com/99minutos/todo-system/internal/core/ports"
)

const (
	HeaderIdempotencyKey     = "Idempotency-Key"
	HeaderIdempotentReplayed = "Idempotent-Replayed"
)

type TodoHandler struct {
	todoService ports.TodoService
}

func NewTodoHandler(todoService ports.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// Create adds a todo owned by the caller.
//
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Replay-safe create key"
// @Param        body             body      createTodoRequest  true   "Todo"
// @Success      201              {object}  todoResponse
// @Failure      400              {object}  api.errorResponse
// @Failure      401              {object}  api.errorResponse
// @Failure      409              {object}  api.errorResponse
// @Router       /todos [post]
func (h *TodoHandler) Create(c echo.Context) error {
	ownerID, err := ctxOwnerID(c)
	if err != nil {
		return err
	}

	var req createTodoRequest
	if err := bindStrict(c, &req); err != nil {
		metrics.TodoOperationsTotal.WithLabelValues("create", metrics.Outcome(err)).Inc()
		return err
	}

	res, err := h.todoService.CreateTodo(c.Request().Context(), ports.CreateTodoInput{
		Title:          req.Title,
		Description:    req.Description,
		OwnerID:        ownerID,
		IdempotencyKey: strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey)),
	})
	if err != nil {
		metrics.TodoOperationsTotal.WithLabelValues("create", metrics.Outcome(err)).Inc()
		return err
	}

	result := "success"
	if res.Replayed {
		result = "replayed"
		c.Response().Header().Set(HeaderIdempotentReplayed, "true")
	}
	metrics.TodoOperationsTotal.WithLabelValues("create", result).Inc()

	return c.JSON(http.StatusCreated, toTodoResponse(res.Todo))
}

// List returns the caller's todos sorted by title.
//
// @Summary      List todos
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   todoResponse
// @Failure      401  {object}  api.errorResponse
// @Router       /todos [get]
func (h *TodoHandler) List(c echo.Context) error {
	ownerID, err := ctxOwnerID(c)
	if err != nil {
		return err
	}

	todos, err := h.todoService.ListTodos(c.Request().Context(), ownerID)
	metrics.TodoOperationsTotal.WithLabelValues("list", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTodoListResponse(todos))
}

// Update replaces the title and description of one of the caller's todos.
//
// @Summary      Update a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Todo ID"
// @Param        body  body      updateTodoRequest  true  "Todo"
// @Success      200   {object}  todoResponse
// @Failure      400   {object}  api.errorResponse
// @Failure      404   {object}  api.errorResponse
// @Router       /todos/{id} [put]
func (h *TodoHandler) Update(c echo.Context) error {
	ownerID, err := ctxOwnerID(c)
	if err != nil {
		return err
	}

	var req updateTodoRequest
	if err := bindStrict(c, &req); err != nil {
		metrics.TodoOperationsTotal.WithLabelValues("update", metrics.Outcome(err)).Inc()
		return err
	}

	todo, err := h.todoService.UpdateTodo(c.Request().Context(), ports.UpdateTodoInput{
		ID:          c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     ownerID,
	})
	metrics.TodoOperationsTotal.WithLabelValues("update", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toTodoResponse(todo))
}

// Delete removes one of the caller's todos.
//
// @Summary      Delete a todo
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  messageResponse
// @Failure      404  {object}  api.errorResponse
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c echo.Context) error {
	ownerID, err := ctxOwnerID(c)
	if err != nil {
		return err
	}

	err = h.todoService.DeleteTodo(c.Request().Context(), c.Param("id"), ownerID)
	metrics.TodoOperationsTotal.WithLabelValues("delete", metrics.Outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Todo deleted successfully"})
}
