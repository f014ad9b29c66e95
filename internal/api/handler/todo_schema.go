package handler

import "time"

type createTodoRequest struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description"`
}

// updateTodoRequest uses a pointer so an omitted description keeps the
// stored value.
type updateTodoRequest struct {
	Title       string  `json:"title"       validate:"required"`
	Description *string `json:"description"`
}

type todoResponse struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type messageResponse struct {
	Message string `json:"message"`
}
