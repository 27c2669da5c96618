package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ersonp/lore-chronicle/internal/domain/services"
	"github.com/ersonp/lore-chronicle/internal/infrastructure/parsers"
)

// ImportHandler feeds relationship files and uploads into the ImportService.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{service: service}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format     string                    // "json", "csv", or "auto"
	DryRun     bool                      // Validate without saving
	OnConflict services.ConflictStrategy // How to handle existing edges
}

// HandleFile imports the relationships stored at path.
func (h *ImportHandler) HandleFile(ctx context.Context, bookID, path string, opts ImportOptions) (*services.ImportResult, error) {
	// Resolve first so an unsupported file is rejected before it is opened.
	if _, err := parsers.Resolve(opts.Format, path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return h.HandleReader(ctx, bookID, path, f, opts)
}

// HandleReader imports relationships read from r. name only picks the
// parser when opts.Format is empty or "auto".
func (h *ImportHandler) HandleReader(ctx context.Context, bookID, name string, r io.Reader, opts ImportOptions) (*services.ImportResult, error) {
	p, err := parsers.Resolve(opts.Format, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", services.ErrInvalidImport, err)
	}
	return h.service.ImportFrom(ctx, bookID, p, r, services.ImportOptions{
		DryRun:     opts.DryRun,
		OnConflict: opts.OnConflict,
	})
}
