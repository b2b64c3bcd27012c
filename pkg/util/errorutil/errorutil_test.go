package errorutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"domain passthrough", NewInsufficientStock(1, 5, 3), CodeInsufficientStock, http.StatusBadRequest},
		{"wrapped domain", fmt.Errorf("ctx: %w", NewForbidden("no")), CodeForbidden, http.StatusForbidden},
		{"no rows", sql.ErrNoRows, CodeNotFound, http.StatusNotFound},
		{"deadline", context.DeadlineExceeded, CodeUnreachable, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			if got.Code != tc.code || got.HTTPStatus != tc.status {
				t.Fatalf("got %s/%d, want %s/%d", got.Code, got.HTTPStatus, tc.code, tc.status)
			}
		})
	}
	if ToDomainError(nil) != nil || MapError(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestIsAndFromStatus(t *testing.T) {
	if !Is(NewInvalidAmount(0), CodeInvalidAmount) {
		t.Fatalf("expected INVALID_AMOUNT")
	}
	if Is(errors.New("plain"), CodeInternal) {
		t.Fatalf("plain errors carry no code")
	}
	if got := FromStatus(http.StatusNotFound, "Cannot GET /x"); got.Code != CodeNotFound {
		t.Fatalf("unexpected code %s", got.Code)
	}
	if got := FromStatus(http.StatusTeapot, "tea"); got.Code != CodeInternal || got.HTTPStatus != http.StatusTeapot {
		t.Fatalf("unexpected mapping %+v", got)
	}
}
