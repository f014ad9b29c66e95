package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/todo-system/internal/api/handler"
	"github.com/99minutos/todo-system/internal/core/domain"
	"github.com/99minutos/todo-system/internal/core/ports"
	"github.com/99minutos/todo-system/internal/core/service"
)

// ── in-memory stores ─────────────────────────────────────────────────────────

type memUsers struct {
	mu    sync.Mutex
	seq   int
	byKey map[string]*domain.User
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byKey[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byKey[u.Email]; ok {
		return nil, domain.ErrUserExists
	}
	m.seq++
	cp := *u
	cp.ID = fmt.Sprintf("user-%d", m.seq)
	m.byKey[cp.Email] = &cp
	out := cp
	return &out, nil
}

type memTodos struct {
	mu    sync.Mutex
	seq   int
	items map[string]*domain.Todo
}

func (m *memTodos) Create(_ context.Context, t *domain.Todo) (*domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	cp := *t
	cp.ID = fmt.Sprintf("todo-%d", m.seq)
	m.items[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memTodos) owned(id, ownerID string) (*domain.Todo, error) {
	t, ok := m.items[id]
	if !ok || t.OwnerID != ownerID {
		return nil, domain.ErrTodoNotFound
	}
	return t, nil
}

func (m *memTodos) FindByID(_ context.Context, id, ownerID string) (*domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	cp := *t
	return &cp, nil
}

func (m *memTodos) ListByOwner(_ context.Context, ownerID string) ([]*domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Todo
	for _, t := range m.items {
		if t.OwnerID == ownerID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTodos) Update(_ context.Context, id, ownerID string, upd ports.TodoUpdate) (*domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	t.Title = upd.Title
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	cp := *t
	return &cp, nil
}

func (m *memTodos) Delete(_ context.Context, id, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.owned(id, ownerID); err != nil {
		return err
	}
	delete(m.items, id)
	return nil
}

type memIdem struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *memIdem) Reserve(_ context.Context, ownerID, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := ownerID + "/" + key
	id, ok := m.keys[k]
	switch {
	case !ok:
		m.keys[k] = "pending"
		return "", nil
	case id == "pending":
		return "", domain.ErrRequestInProgress
	}
	return id, nil
}

func (m *memIdem) Complete(_ context.Context, ownerID, key, todoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[ownerID+"/"+key] = todoID
	return nil
}

func (m *memIdem) Release(_ context.Context, ownerID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, ownerID+"/"+key)
	return nil
}

// ── harness ──────────────────────────────────────────────────────────────────

type testServer struct {
	t     *testing.T
	e     *echo.Echo
	todos *memTodos
	idem  *memIdem
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	todos := &memTodos{items: make(map[string]*domain.Todo)}
	authSvc := service.NewAuthService(&memUsers{byKey: make(map[string]*domain.User)}, "test-secret", 0, log)
	idem := &memIdem{keys: make(map[string]string)}
	todoSvc := service.NewTodoService(todos, idem, log)

	e := NewServer(Services{
		Auth:     authSvc,
		Verifier: authSvc,
		Todos:    todoSvc,
		Checks: map[string]handler.Check{
			"mongodb": func(context.Context) error { return nil },
			"redis":   nil,
		},
	}, Options{Logger: log, Registry: prometheus.NewRegistry()})

	return &testServer{t: t, e: e, todos: todos, idem: idem}
}

func (s *testServer) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(name, email string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/register", "",
		fmt.Sprintf(`{"name":%q,"email":%q,"password":"secret1"}`, name, email))
	if rec.Code != http.StatusCreated {
		s.t.Fatalf("register %s: expected 201, got %d: %s", email, rec.Code, rec.Body.String())
	}
	rec = s.do(http.MethodPost, "/api/auth/login", "",
		fmt.Sprintf(`{"email":%q,"password":"secret1"}`, email))
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	decode(s.t, rec, &resp)
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	decode(t, rec, &body)
	return body.Error
}

type item struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestRouter_Scenario(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/register", "", `{"name":"Amy","email":"amy@example.com","password":"secret1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var reg struct {
		User map[string]any `json:"user"`
	}
	decode(t, rec, &reg)
	if reg.User["email"] != "amy@example.com" || reg.User["_id"] == "" {
		t.Fatalf("unexpected user: %v", reg.User)
	}
	if _, leaked := reg.User["password"]; leaked {
		t.Fatal("password hash must not be serialised")
	}

	rec = s.do(http.MethodPost, "/api/auth/login", "", `{"email":"amy@example.com","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}
	var login struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	decode(t, rec, &login)
	if login.Token == "" || login.User["name"] != "Amy" {
		t.Fatalf("unexpected login response: %+v", login)
	}
	token := login.Token

	rec = s.do(http.MethodPost, "/api/todos", token, `{"title":"Buy milk","description":"2%"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created item
	decode(t, rec, &created)
	if created.ID == "" || created.Title != "Buy milk" || created.Description != "2%" || created.UserID != reg.User["_id"] {
		t.Fatalf("unexpected item: %+v", created)
	}

	rec = s.do(http.MethodGet, "/api/todos", token, "")
	var list []item
	decode(t, rec, &list)
	if rec.Code != http.StatusOK || len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("list: unexpected %d %+v", rec.Code, list)
	}

	rec = s.do(http.MethodPut, "/api/todos/"+created.ID, token, `{"title":"Buy oat milk","description":"1L"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated item
	decode(t, rec, &updated)
	if updated.ID != created.ID || updated.Title != "Buy oat milk" || updated.Description != "1L" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	rec = s.do(http.MethodDelete, "/api/todos/"+created.ID, token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	var msg map[string]string
	decode(t, rec, &msg)
	if msg["message"] != "Todo deleted successfully" {
		t.Fatalf("unexpected delete body: %v", msg)
	}

	rec = s.do(http.MethodGet, "/api/todos", token, "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodDelete, "/api/todos/"+created.ID, token, "")
	if rec.Code != http.StatusNotFound || errorMessage(t, rec) != "todo not found" {
		t.Fatalf("second delete: expected 404, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_DescriptionDefaultsToEmpty(t *testing.T) {
	s := newTestServer(t)
	token := s.login("Amy", "amy@example.com")

	rec := s.do(http.MethodPost, "/api/todos", token, `{"title":"Buy milk"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created item
	decode(t, rec, &created)
	if created.Description != "" {
		t.Fatalf("expected empty description, got %q", created.Description)
	}
}

func TestRouter_OwnershipIsolation(t *testing.T) {
	s := newTestServer(t)
	amy := s.login("Amy", "amy@example.com")
	bob := s.login("Bob", "bob@example.com")

	rec := s.do(http.MethodPost, "/api/todos", amy, `{"title":"Amy's","description":"private"}`)
	var amys item
	decode(t, rec, &amys)

	rec = s.do(http.MethodGet, "/api/todos", bob, "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("bob sees amy's items: %s", rec.Body.String())
	}

	foreign := s.do(http.MethodPut, "/api/todos/"+amys.ID, bob, `{"title":"hijack","description":"x"}`)
	missing := s.do(http.MethodPut, "/api/todos/does-not-exist", bob, `{"title":"hijack","description":"x"}`)
	if foreign.Code != http.StatusNotFound || missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for both, got %d and %d", foreign.Code, missing.Code)
	}
	if foreign.Body.String() != missing.Body.String() {
		t.Fatalf("non-owner and missing must be indistinguishable: %s vs %s", foreign.Body.String(), missing.Body.String())
	}

	if rec := s.do(http.MethodDelete, "/api/todos/"+amys.ID, bob, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if len(s.todos.items) != 1 || s.todos.items[amys.ID].Title != "Amy's" {
		t.Fatalf("amy's item was modified: %+v", s.todos.items)
	}
}

func TestRouter_ListSortedByTitle(t *testing.T) {
	s := newTestServer(t)
	token := s.login("Amy", "amy@example.com")

	for _, title := range []string{"pears", "Apples", "bananas", "apples"} {
		if rec := s.do(http.MethodPost, "/api/todos", token, fmt.Sprintf(`{"title":%q}`, title)); rec.Code != http.StatusCreated {
			t.Fatalf("create %s: %d", title, rec.Code)
		}
	}

	var list []item
	decode(t, s.do(http.MethodGet, "/api/todos", token, ""), &list)
	for i := 1; i < len(list); i++ {
		if list[i-1].Title > list[i].Title {
			t.Fatalf("list not sorted: %+v", list)
		}
	}
}

func TestRouter_ValidationErrors(t *testing.T) {
	s := newTestServer(t)
	token := s.login("Amy", "amy@example.com")

	cases := []struct {
		name, method, path, body string
		want                     string
	}{
		{"empty title", http.MethodPost, "/api/todos", `{"title":"","description":"x"}`, "title is required"},
		{"blank title", http.MethodPost, "/api/todos", `{"title":"   "}`, "title is required"},
		{"unknown field", http.MethodPost, "/api/todos", `{"title":"a","priority":1}`, ""},
		{"malformed json", http.MethodPost, "/api/todos", `{"title":`, ""},
		{"empty body", http.MethodPost, "/api/todos", ``, "request body is required"},
		{"update without title", http.MethodPut, "/api/todos/todo-1", `{"description":"x"}`, "title is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(tc.method, tc.path, token, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if msg := errorMessage(t, rec); tc.want != "" && msg != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, msg)
			}
		})
	}

	if len(s.todos.items) != 0 {
		t.Fatalf("nothing should be persisted, got %d items", len(s.todos.items))
	}
}

func TestRouter_AuthErrors(t *testing.T) {
	s := newTestServer(t)
	s.login("Amy", "amy@example.com")

	cases := []struct {
		name, method, path, token, body string
		wantCode                        int
	}{
		{"no token", http.MethodGet, "/api/todos", "", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/todos", "garbage", "", http.StatusUnauthorized},
		{"wrong password", http.MethodPost, "/api/auth/login", "", `{"email":"amy@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", http.MethodPost, "/api/auth/login", "", `{"email":"zed@example.com","password":"secret1"}`, http.StatusUnauthorized},
		{"login missing password", http.MethodPost, "/api/auth/login", "", `{"email":"amy@example.com"}`, http.StatusBadRequest},
		{"duplicate email", http.MethodPost, "/api/auth/register", "", `{"name":"Amy","email":"AMY@example.com","password":"secret1"}`, http.StatusBadRequest},
		{"register bad email", http.MethodPost, "/api/auth/register", "", `{"name":"Amy","email":"amy","password":"secret1"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(tc.method, tc.path, tc.token, tc.body)
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, rec.Code, rec.Body.String())
			}
			if errorMessage(t, rec) == "" {
				t.Fatal("expected error message")
			}
		})
	}
}

func TestRouter_IdempotentCreate(t *testing.T) {
	s := newTestServer(t)
	token := s.login("Amy", "amy@example.com")

	first := s.do(http.MethodPost, "/api/todos", token, `{"title":"Buy milk"}`, handler.HeaderIdempotencyKey, "k-1")
	second := s.do(http.MethodPost, "/api/todos", token, `{"title":"Buy milk"}`, handler.HeaderIdempotencyKey, "k-1")

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 twice, got %d and %d", first.Code, second.Code)
	}
	if first.Header().Get(handler.HeaderIdempotentReplayed) != "" {
		t.Fatal("first create must not be marked as replayed")
	}
	if second.Header().Get(handler.HeaderIdempotentReplayed) != "true" {
		t.Fatal("second create should be marked as replayed")
	}

	var a, b item
	decode(t, first, &a)
	decode(t, second, &b)
	if a.ID != b.ID || len(s.todos.items) != 1 {
		t.Fatalf("expected a single item, got ids %s/%s and %d items", a.ID, b.ID, len(s.todos.items))
	}
}

func TestRouter_IdempotentCreateInProgressConflict(t *testing.T) {
	s := newTestServer(t)
	token := s.login("Amy", "amy@example.com")

	var created item
	decode(t, s.do(http.MethodPost, "/api/todos", token, `{"title":"Buy milk"}`), &created)
	s.idem.keys[created.UserID+"/k-2"] = "pending"

	rec := s.do(http.MethodPost, "/api/todos", token, `{"title":"Buy bread"}`, handler.HeaderIdempotencyKey, "k-2")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(s.todos.items) != 1 {
		t.Fatalf("expected no insert while the key is held, got %d items", len(s.todos.items))
	}
}

func TestRouter_AmbientEndpoints(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}
	rec := s.do(http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"redis":{"status":"disabled"}`) {
		t.Fatalf("ready: unexpected %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "todo_api_requests_total") {
		t.Fatalf("metrics: unexpected %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/api/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatal("expected request id header")
	}
}
