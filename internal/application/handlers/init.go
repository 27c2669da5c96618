// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/ersonp/lore-chronicle/internal/domain/ports"
	"github.com/ersonp/lore-chronicle/internal/infrastructure/config"
)

// StoreOpener opens the relational store described by cfg.
type StoreOpener func(cfg config.SQLiteConfig) (ports.RelationalDB, error)

// InitHandler handles project initialization.
type InitHandler struct {
	open StoreOpener
}

// NewInitHandler creates a new init handler.
func NewInitHandler(open StoreOpener) *InitHandler {
	return &InitHandler{open: open}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath   string
	DatabasePath string
	AvatarRoot   string
}

// Handle writes the default config and creates the database schema.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("chronicle already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if h.open != nil {
		db, err := h.open(cfg.SQLite)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if err := db.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	result := &InitResult{
		ConfigPath:   config.ConfigFilePath(basePath),
		DatabasePath: cfg.SQLite.Path,
	}
	if cfg.Images.Provider == "filesystem" && cfg.Images.Root != "" {
		if err := os.MkdirAll(cfg.Images.Root, 0755); err != nil {
			return nil, fmt.Errorf("creating avatar directory: %w", err)
		}
		result.AvatarRoot = cfg.Images.Root
	}
	return result, nil
}
