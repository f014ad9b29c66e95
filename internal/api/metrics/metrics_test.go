package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/99minutos/todo-system/internal/core/domain"
)

func TestOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{domain.NewValidationError("title is required"), "invalid"},
		{domain.ErrInvalidCredentials, "invalid"},
		{domain.ErrUserExists, "conflict"},
		{domain.ErrRequestInProgress, "conflict"},
		{fmt.Errorf("update: %w", domain.ErrTodoNotFound), "not_found"},
		{errors.New("boom"), "error"},
	}
	for _, tc := range cases {
		if got := Outcome(tc.err); got != tc.want {
			t.Errorf("Outcome(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestTodoOperationsTotal_Increments(t *testing.T) {
	c := TodoOperationsTotal.WithLabelValues("create", "success")
	before := testutil.ToFloat64(c)
	c.Inc()
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}
