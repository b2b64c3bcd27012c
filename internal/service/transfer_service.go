package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/stock-ledger/internal/archive"
	"github.com/spec-kit/stock-ledger/internal/domain"
	"github.com/spec-kit/stock-ledger/internal/events"
	"github.com/spec-kit/stock-ledger/internal/observability"
	"github.com/spec-kit/stock-ledger/internal/transfer"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

// TransferKind names an entity set that can be imported or exported.
type TransferKind string

const (
	KindDepartments TransferKind = "departments"
	KindRoles       TransferKind = "roles"
	KindStaff       TransferKind = "staff"
	KindItems       TransferKind = "items"
)

var transferColumns = map[TransferKind][]string{
	KindDepartments: {"name"},
	KindRoles:       {"name"},
	KindStaff:       {"email", "name", "password_hash", "job_role", "department"},
	KindItems:       {"id", "department", "type", "name", "amount_needed", "current_amount"},
}

// ParseTransferKind validates raw.
func ParseTransferKind(raw string) (TransferKind, error) {
	kind := TransferKind(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := transferColumns[kind]; !ok {
		return "", apperrors.NewValidationError("unknown kind", map[string]any{"kind": raw})
	}
	return kind, nil
}

// RowError explains why an import row was skipped.
type RowError struct {
	Row    int
	Reason string
}

// ImportSummary reports a best-effort import.
type ImportSummary struct {
	Kind     TransferKind
	Total    int
	Imported int
	Skipped  int
	Errors   []RowError
}

// ExportResult is an encoded entity set.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
	ArchiveKey  string
}

// TransferService imports and exports catalog, staff and item tables.
type TransferService struct {
	catalog    *CatalogService
	auth       *AuthService
	ledger     *LedgerService
	archiver   archive.Archiver
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        Clock
}

// TransferDependencies bundles collaborators.
type TransferDependencies struct {
	Catalog    *CatalogService
	Auth       *AuthService
	Ledger     *LedgerService
	Archiver   archive.Archiver
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      Clock
}

// NewTransferService constructs the service. Archiver may be nil.
func NewTransferService(deps TransferDependencies) *TransferService {
	now := deps.Clock
	if now == nil {
		now = systemClock
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{
		catalog:    deps.Catalog,
		auth:       deps.Auth,
		ledger:     deps.Ledger,
		archiver:   deps.Archiver,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        now,
	}
}

// Import applies every well-formed row and reports the rest.
func (s *TransferService) Import(ctx context.Context, identity domain.Identity, kind TransferKind, format transfer.Format, r io.Reader) (*ImportSummary, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	columns, ok := transferColumns[kind]
	if !ok {
		return nil, apperrors.NewValidationError("unknown kind", map[string]any{"kind": kind})
	}

	table, err := transfer.Decode(format, r)
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable payload: "+err.Error(), map[string]any{"format": format})
	}
	if err := table.Require(requiredImportColumns(kind, columns)...); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"kind": kind})
	}
	if kind == KindStaff {
		if err := table.Require("password_hash"); err != nil {
			if err := table.Require("password"); err != nil {
				return nil, apperrors.NewValidationError("missing columns: password_hash or password", map[string]any{"kind": kind})
			}
		}
	}

	summary := &ImportSummary{Kind: kind, Errors: []RowError{}}
	for _, rec := range table.Records() {
		summary.Total++
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewUnreachable("store", err)
		}
		if err := s.importRecord(ctx, identity, kind, rec); err != nil {
			if apperrors.Is(err, apperrors.CodeUnreachable) || apperrors.Is(err, apperrors.CodeInternal) {
				return nil, err
			}
			summary.Skipped++
			summary.Errors = append(summary.Errors, RowError{Row: rec.Line, Reason: apperrors.ToDomainError(err).Message})
			s.metrics.RecordImportRow(string(kind), "skipped")
			continue
		}
		summary.Imported++
		s.metrics.RecordImportRow(string(kind), "imported")
	}

	s.logger.Info("bulk import finished",
		zap.String("kind", string(kind)),
		zap.Int("total", summary.Total),
		zap.Int("imported", summary.Imported),
		zap.Int("skipped", summary.Skipped))
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:  events.EventTransferImported,
		Actor: actorOf(identity),
		Payload: events.TransferImportedPayload{
			Kind:     string(kind),
			Total:    summary.Total,
			Imported: summary.Imported,
			Skipped:  summary.Skipped,
		},
	})
	return summary, nil
}

func (s *TransferService) importRecord(ctx context.Context, identity domain.Identity, kind TransferKind, rec transfer.Record) error {
	get := func(col string) string {
		v, _ := rec.Get(col)
		return v
	}
	switch kind {
	case KindDepartments:
		_, err := s.catalog.AddDepartment(ctx, identity, get("name"))
		return err
	case KindRoles:
		_, err := s.catalog.AddRole(ctx, identity, get("name"))
		return err
	case KindStaff:
		dept, job := get("department"), get("job_role")
		return s.auth.ImportStaff(ctx, get("email"), get("name"), get("password_hash"), get("password"), &dept, &job)
	case KindItems:
		needed, err := parseAmount("amount_needed", get("amount_needed"))
		if err != nil {
			return err
		}
		current := needed
		if raw, present := rec.Get("current_amount"); present && raw != "" {
			if current, err = parseAmount("current_amount", raw); err != nil {
				return err
			}
		}
		_, err = s.ledger.ImportItem(ctx, identity, domain.StockItem{
			Department:    get("department"),
			Type:          get("type"),
			Name:          get("name"),
			AmountNeeded:  needed,
			CurrentAmount: current,
		})
		return err
	default:
		return apperrors.NewValidationError("unknown kind", nil)
	}
}

// Export serialises kind. When archive is set the payload is also uploaded.
func (s *TransferService) Export(ctx context.Context, identity domain.Identity, kind TransferKind, format transfer.Format, archiveCopy bool) (*ExportResult, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	columns, ok := transferColumns[kind]
	if !ok {
		return nil, apperrors.NewValidationError("unknown kind", map[string]any{"kind": kind})
	}

	rows, err := s.exportRows(ctx, kind)
	if err != nil {
		return nil, err
	}
	body, err := transfer.Encode(format, string(kind), transfer.Table{Header: columns, Rows: rows})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	result := &ExportResult{
		Filename:    fmt.Sprintf("%s.%s", kind, format),
		ContentType: format.ContentType(),
		Body:        body,
	}
	if archiveCopy {
		if s.archiver == nil {
			return nil, apperrors.NewUnreachable("export archive", archive.ErrDisabled)
		}
		key := fmt.Sprintf("exports/%s-%s.%s", kind, s.now().UTC().Format("20060102T150405Z"), format)
		if err := s.archiver.Put(ctx, key, result.ContentType, body); err != nil {
			return nil, apperrors.NewUnreachable("export archive", err)
		}
		result.ArchiveKey = key
	}
	return result, nil
}

func (s *TransferService) exportRows(ctx context.Context, kind TransferKind) ([][]string, error) {
	var rows [][]string
	switch kind {
	case KindDepartments:
		names, err := s.catalog.ListDepartments(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			rows = append(rows, []string{n})
		}
	case KindRoles:
		names, err := s.catalog.ListRoles(ctx)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			rows = append(rows, []string{n})
		}
	case KindStaff:
		accounts, err := s.auth.StaffAccounts(ctx)
		if err != nil {
			return nil, err
		}
		for _, acc := range accounts {
			rows = append(rows, []string{acc.Email, acc.Name, acc.PasswordHash, derefString(acc.JobRole), derefString(acc.Department)})
		}
	case KindItems:
		items, err := s.ledger.AllItems(ctx)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			rows = append(rows, []string{
				strconv.FormatInt(it.ID, 10),
				it.Department,
				it.Type,
				it.Name,
				strconv.FormatInt(it.AmountNeeded, 10),
				strconv.FormatInt(it.CurrentAmount, 10),
			})
		}
	}
	return rows, nil
}

// requiredImportColumns drops the columns an import may omit.
func requiredImportColumns(kind TransferKind, columns []string) []string {
	var required []string
	for _, col := range columns {
		switch {
		case kind == KindItems && (col == "id" || col == "current_amount"):
		case kind == KindStaff && (col == "password_hash" || col == "job_role"):
		default:
			required = append(required, col)
		}
	}
	return required
}

func parseAmount(column, raw string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(column+" must be an integer", map[string]any{column: raw})
	}
	if v < 0 {
		return 0, apperrors.NewValidationError(column+" must not be negative", map[string]any{column: v})
	}
	return v, nil
}
