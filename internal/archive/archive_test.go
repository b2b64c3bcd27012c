package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/stock-ledger/internal/config"
)

func TestNewS3ArchiverDisabledWithoutBucket(t *testing.T) {
	if _, err := NewS3Archiver(context.Background(), config.ExportConfig{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestMemoryArchiverStoresCopies(t *testing.T) {
	a := NewMemoryArchiver()
	body := []byte("name\nOrtho\n")
	if err := a.Put(context.Background(), "exports/departments.csv", "text/csv", body); err != nil {
		t.Fatalf("put: %v", err)
	}
	body[0] = 'X'
	got, ok := a.Get("exports/departments.csv")
	if !ok || string(got) != "name\nOrtho\n" {
		t.Fatalf("unexpected object: %q", got)
	}
	if keys := a.Keys(); len(keys) != 1 {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
