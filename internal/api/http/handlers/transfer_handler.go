package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/stock-ledger/internal/api/dto"
	"github.com/spec-kit/stock-ledger/internal/service"
	"github.com/spec-kit/stock-ledger/internal/transfer"
	apperrors "github.com/spec-kit/stock-ledger/pkg/util/errorutil"
)

// ArchiveKeyHeader reports where an archived export copy was stored.
const ArchiveKeyHeader = "X-Export-Archive-Key"

// TransferHandler serves bulk import and export.
type TransferHandler struct {
	transfer *service.TransferService
}

// NewTransferHandler constructs handler.
func NewTransferHandler(transferService *service.TransferService) *TransferHandler {
	return &TransferHandler{transfer: transferService}
}

// Import POST /items/import. The payload is a multipart "file" field or the raw body.
func (h *TransferHandler) Import(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	kind, err := service.ParseTransferKind(firstNonEmpty(c.FormValue("kind"), c.Query("kind")))
	if err != nil {
		return err
	}

	rawFormat := firstNonEmpty(c.FormValue("format"), c.Query("format"))
	var body io.Reader
	if fh, ferr := c.FormFile("file"); ferr == nil {
		if rawFormat == "" {
			rawFormat = strings.TrimPrefix(filepath.Ext(fh.Filename), ".")
		}
		f, err := fh.Open()
		if err != nil {
			return apperrors.NewValidationError("unreadable upload", nil)
		}
		defer f.Close()
		body = f
	} else {
		if len(c.Body()) == 0 {
			return apperrors.NewValidationError("file required", nil)
		}
		body = bytes.NewReader(c.Body())
	}

	format, err := transfer.ParseFormat(rawFormat)
	if err != nil {
		return formatError(err, rawFormat)
	}

	summary, err := h.transfer.Import(c.UserContext(), identity, kind, format, body)
	if err != nil {
		return err
	}
	resp := dto.ImportSummaryResponse{
		Kind:     string(summary.Kind),
		Total:    summary.Total,
		Imported: summary.Imported,
		Skipped:  summary.Skipped,
		Errors:   make([]dto.ImportRowError, 0, len(summary.Errors)),
	}
	for _, rowErr := range summary.Errors {
		resp.Errors = append(resp.Errors, dto.ImportRowError{Row: rowErr.Row, Reason: rowErr.Reason})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Export GET /items/export?kind=&format=&archive=.
func (h *TransferHandler) Export(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	kind, err := service.ParseTransferKind(c.Query("kind", string(service.KindItems)))
	if err != nil {
		return err
	}
	format, err := transfer.ParseFormat(c.Query("format"))
	if err != nil {
		return formatError(err, c.Query("format"))
	}

	result, err := h.transfer.Export(c.UserContext(), identity, kind, format, queryBool(c, "archive"))
	if err != nil {
		return err
	}
	if result.ArchiveKey != "" {
		c.Set(ArchiveKeyHeader, result.ArchiveKey)
	}
	c.Set(fiber.HeaderContentType, result.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", result.Filename))
	return c.Status(http.StatusOK).Send(result.Body)
}

func formatError(err error, raw string) error {
	if errors.Is(err, transfer.ErrUnsupportedFormat) {
		return apperrors.NewValidationError("format must be csv or xlsx", map[string]any{"format": raw})
	}
	return apperrors.NewValidationError(err.Error(), nil)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
