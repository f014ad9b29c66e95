// Package state holds the client-side todo list and the operations that
// reconcile it with the server. State is a plain value: every Controller
// method takes the current State and returns the next one.
package state

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/99minutos/todo-system/internal/client/api"
)

const (
	// MessageTTL is how long a success message stays visible.
	MessageTTL = 3 * time.Second

	ConfirmDeletePrompt = "Are you sure you want to delete?"

	msgRequired   = "Title and description are required"
	msgFetchError = "Error fetching todos. Please try again."
	msgAdded      = "Item Added Successfully"
	msgUpdated    = "Item updated successfully"
	msgDeleted    = "Item deleted successfully"
)

// State is everything the view renders.
type State struct {
	Items []api.Todo

	// New-item form.
	Title       string
	Description string

	// Edit mode is active while EditID is non-empty.
	EditID          string
	EditTitle       string
	EditDescription string

	Message        string
	MessageExpires time.Time
	Error          string

	// NeedsLogin is set when no session token is available.
	NeedsLogin bool
}

// Editing reports whether an item is being edited.
func (s State) Editing() bool { return s.EditID != "" }

// Backend is the subset of *api.Client the controller uses.
type Backend interface {
	ListTodos(ctx context.Context, token string) ([]api.Todo, error)
	CreateTodo(ctx context.Context, token, title, description string) (*api.Todo, error)
	UpdateTodo(ctx context.Context, token, id, title, description string) (*api.Todo, error)
	DeleteTodo(ctx context.Context, token, id string) (string, error)
}

// TokenSource returns the current session token, or "" when logged out.
type TokenSource func() string

type Controller struct {
	backend Backend
	token   TokenSource
	now     func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func NewController(backend Backend, token TokenSource, opts ...Option) *Controller {
	c := &Controller{backend: backend, token: token, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces Items with the server list. On failure the previous list is
// kept and Error is set.
func (c *Controller) Load(ctx context.Context, s State) State {
	token, ok := c.session(&s)
	if !ok {
		return s
	}

	items, err := c.backend.ListTodos(ctx, token)
	if err != nil {
		if api.IsUnauthorized(err) {
			s.NeedsLogin = true
		}
		s.Error = msgFetchError
		return s
	}

	s.Items = items
	s.Error = ""
	return s
}

// SubmitCreate sends the new-item form. The returned item is appended
// without re-sorting.
func (c *Controller) SubmitCreate(ctx context.Context, s State) State {
	if blank(s.Title) || blank(s.Description) {
		s.Error = msgRequired
		return s
	}
	token, ok := c.session(&s)
	if !ok {
		return s
	}

	todo, err := c.backend.CreateTodo(ctx, token, s.Title, s.Description)
	if err != nil {
		return c.fail(s, "create", err)
	}

	s.Items = append(append([]api.Todo(nil), s.Items...), *todo)
	s.Title, s.Description = "", ""
	s.Error = ""
	return c.notify(s, msgAdded)
}

// BeginEdit enters edit mode for item, replacing any edit in progress.
func (c *Controller) BeginEdit(s State, item api.Todo) State {
	s.EditID = item.ID
	s.EditTitle = item.Title
	s.EditDescription = item.Description
	return s
}

// CancelEdit leaves edit mode, discarding unsaved edits and the error.
func (c *Controller) CancelEdit(s State) State {
	s.EditID, s.EditTitle, s.EditDescription = "", "", ""
	s.Error = ""
	return s
}

// SubmitUpdate saves the item being edited and patches it in place.
func (c *Controller) SubmitUpdate(ctx context.Context, s State) State {
	if !s.Editing() {
		return s
	}
	if blank(s.EditTitle) || blank(s.EditDescription) {
		s.Error = msgRequired
		return s
	}
	token, ok := c.session(&s)
	if !ok {
		return s
	}

	updated, err := c.backend.UpdateTodo(ctx, token, s.EditID, s.EditTitle, s.EditDescription)
	if err != nil {
		return c.fail(s, "update", err)
	}

	items := make([]api.Todo, len(s.Items))
	for i, it := range s.Items {
		if it.ID == s.EditID {
			it = *updated
		}
		items[i] = it
	}
	s.Items = items

	s = c.CancelEdit(s)
	return c.notify(s, msgUpdated)
}

// Remove deletes id after confirm approves ConfirmDeletePrompt. A declined
// confirmation returns s unchanged.
func (c *Controller) Remove(ctx context.Context, s State, id string, confirm func(prompt string) bool) State {
	if confirm == nil || !confirm(ConfirmDeletePrompt) {
		return s
	}
	token, ok := c.session(&s)
	if !ok {
		return s
	}

	if _, err := c.backend.DeleteTodo(ctx, token, id); err != nil {
		return c.fail(s, "delete", err)
	}

	items := make([]api.Todo, 0, len(s.Items))
	for _, it := range s.Items {
		if it.ID != id {
			items = append(items, it)
		}
	}
	s.Items = items
	if s.EditID == id {
		s.EditID, s.EditTitle, s.EditDescription = "", "", ""
	}
	s.Error = ""
	return c.notify(s, msgDeleted)
}

// Expire clears the success message once its deadline has passed.
func (c *Controller) Expire(s State, now time.Time) State {
	if s.Message != "" && !now.Before(s.MessageExpires) {
		s.Message = ""
		s.MessageExpires = time.Time{}
	}
	return s
}

func (c *Controller) session(s *State) (string, bool) {
	token := ""
	if c.token != nil {
		token = c.token()
	}
	if token == "" {
		s.NeedsLogin = true
		return "", false
	}
	return token, true
}

func (c *Controller) notify(s State, msg string) State {
	s.Message = msg
	s.MessageExpires = c.now().Add(MessageTTL)
	return s
}

// fail records "Unable to <verb> Todo item: <detail>". detail is the server's
// error text when present, else a generic fallback.
func (c *Controller) fail(s State, verb string, err error) State {
	detail := "Failed to " + verb + " todo"
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			detail = apiErr.Message
		}
		if api.IsUnauthorized(err) {
			s.NeedsLogin = true
		}
	}
	s.Error = "Unable to " + verb + " Todo item: " + detail
	return s
}

func blank(v string) bool { return strings.TrimSpace(v) == "" }
