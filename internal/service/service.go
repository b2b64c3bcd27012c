package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/events"
	"github.com/spec-kit/stock-ledger/internal/repository"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

// Clock returns the current time. Services take one so tests can pin dates.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// storeError maps repository sentinels onto the API error taxonomy.
func storeError(err error, resource string, details map[string]any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", details)
	case errors.Is(err, repository.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewUnreachable("store", err)
	default:
		return apperrors.MapError(err)
	}
}

// requireCaller checks that the email supplied with a request matches the
// authenticated identity.
func requireCaller(identity domain.Identity, userEmail string) error {
	if !strings.EqualFold(strings.TrimSpace(userEmail), identity.Email) {
		return apperrors.NewForbidden("user email does not match the authenticated account")
	}
	return nil
}

func requireAdmin(identity domain.Identity) error {
	if !identity.IsAdmin() {
		return apperrors.NewForbidden("admin account required")
	}
	return nil
}

func requireDepartmentStaff(identity domain.Identity, department string) error {
	if !identity.IsStaffOf(department) {
		return apperrors.NewForbidden("caller is not staff of department " + department)
	}
	return nil
}

func actorOf(identity domain.Identity) events.Actor {
	return events.Actor{Role: string(identity.Role), Email: identity.Email}
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, now Clock, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = now()
	}
	_ = dispatcher.Publish(ctx, event)
}
