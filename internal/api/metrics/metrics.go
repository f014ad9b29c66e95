// Package metrics defines and registers the custom Prometheus metrics of the
// todo API. HTTP request metrics come from echoprometheus; the counters here
// track domain outcomes.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/99minutos/todo-system/internal/core/domain"
)

const namespace = "todo"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register and login attempts.
// Labels:
//   - action: "register" or "login"
//   - result: "success", "invalid", "conflict" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of register and login attempts, by outcome.",
	},
	[]string{"action", "result"},
)

// ── Todo metrics ──────────────────────────────────────────────────────────────

// TodoOperationsTotal counts todo mutations and listings.
// Labels:
//   - op: "create", "list", "update" or "delete"
//   - result: "success", "replayed", "invalid", "not_found" or "error"
var TodoOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "todo_operations_total",
		Help:      "Total number of todo operations, by operation and outcome.",
	},
	[]string{"op", "result"},
)

// Outcome maps an operation error to the "result" label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrUserExists), errors.Is(err, domain.ErrRequestInProgress):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid"
	case errors.Is(err, domain.ErrTodoNotFound):
		return "not_found"
	default:
		return "error"
	}
}
