package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
	"github.com/ersonp/lore-chronicle/internal/domain/services"
	"github.com/ersonp/lore-chronicle/internal/domain/timeline"
	"github.com/ersonp/lore-chronicle/internal/infrastructure/config"
	"github.com/ersonp/lore-chronicle/internal/infrastructure/images"
	"github.com/ersonp/lore-chronicle/internal/infrastructure/logging"
	"github.com/ersonp/lore-chronicle/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	BasePath            string
	Config              *config.Config
	Books               *config.BooksConfig
	Logger              *zap.Logger
	RelationshipHandler *handlers.RelationshipHandler
	TimelineHandler     *handlers.TimelineHandler
	StoryHandler        *handlers.StoryHandler
	ImportHandler       *handlers.ImportHandler
}

// BookID resolves the --book flag, or the current book when it is unset.
func (d *Deps) BookID() (string, error) {
	return d.Books.Resolve(globalBook)
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	books, err := config.LoadBooks(cwd)
	if err != nil {
		return fmt.Errorf("loading books: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // stderr sync fails on some terminals

	repo, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer repo.Close()

	// Ensure schema exists
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	avatars, err := images.New(ctx, cfg.Images)
	if err != nil {
		return fmt.Errorf("creating image loader: %w", err)
	}

	layout, err := timeline.ParseLayout(cfg.Timeline.Layout)
	if err != nil {
		return fmt.Errorf("timeline.layout: %w", err)
	}

	relationshipService := services.NewRelationshipService(repo, logger)
	storyService := services.NewStoryService(repo, logger, services.WithAvatarCache(avatars))
	timelineService := services.NewTimelineService(repo, avatars, logger,
		services.WithConcurrency(cfg.Timeline.AvatarConcurrency),
	)
	importService := services.NewImportService(relationshipService, repo, logger)
	relationshipService.OnChange(timelineService)
	storyService.OnChange(timelineService)

	return fn(&Deps{
		BasePath:            cwd,
		Config:              cfg,
		Books:               books,
		Logger:              logger,
		RelationshipHandler: handlers.NewRelationshipHandler(relationshipService),
		TimelineHandler:     handlers.NewTimelineHandler(timelineService, layout),
		StoryHandler:        handlers.NewStoryHandler(storyService),
		ImportHandler:       handlers.NewImportHandler(importService),
	})
}

// withBook provides the dependencies together with the resolved book id.
func withBook(ctx context.Context, fn func(*Deps, string) error) error {
	return withDeps(ctx, func(d *Deps) error {
		bookID, err := d.BookID()
		if err != nil {
			return err
		}
		return fn(d, bookID)
	})
}

// withRelationshipHandler provides access to the RelationshipHandler for relationship commands.
func withRelationshipHandler(ctx context.Context, fn func(*handlers.RelationshipHandler) error) error {
	return withDeps(ctx, func(d *Deps) error {
		return fn(d.RelationshipHandler)
	})
}
