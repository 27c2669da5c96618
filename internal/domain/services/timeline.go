package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/lore-chronicle/internal/domain/entities"
	"github.com/ersonp/lore-chronicle/internal/domain/ports"
	"github.com/ersonp/lore-chronicle/internal/domain/timeline"
)

// DefaultAvatarConcurrency bounds parallel avatar and relationship reads.
const DefaultAvatarConcurrency = 8

// TimelineOption configures a TimelineService.
type TimelineOption func(*TimelineService)

// WithConcurrency sets how many loader calls run at once.
func WithConcurrency(n int) TimelineOption {
	return func(s *TimelineService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLocation sets the time zone used for day boundaries.
func WithLocation(loc *time.Location) TimelineOption {
	return func(s *TimelineService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// TimelineService gathers the inputs of a book's timeline, derives it and
// keeps the most recent result per book.
//
// Each book carries a generation counter. Refresh and Invalidate bump it, and
// a refresh only publishes its result if no newer bump happened meanwhile.
type TimelineService struct {
	db          ports.RelationalDB
	images      ports.ImageLoader
	logger      *zap.Logger
	concurrency int
	location    *time.Location

	mu    sync.Mutex
	books map[string]*bookTimeline
}

type bookTimeline struct {
	generation uint64
	cancel     context.CancelFunc
	latest     *timeline.Timeline
}

// NewTimelineService creates a new TimelineService. images may be nil, in
// which case no avatars are loaded.
func NewTimelineService(db ports.RelationalDB, images ports.ImageLoader, logger *zap.Logger, opts ...TimelineOption) *TimelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TimelineService{
		db:          db,
		images:      images,
		logger:      logger.Named("timeline"),
		concurrency: DefaultAvatarConcurrency,
		location:    time.Local,
		books:       make(map[string]*bookTimeline),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build loads everything the timeline of bookID needs and derives it. Failed
// avatar or per-character relationship reads are logged and skipped.
func (s *TimelineService) Build(ctx context.Context, bookID string, layout timeline.LayoutMode) (*timeline.Timeline, error) {
	chapters, err := s.db.ListChapters(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}
	scenes, err := s.db.ListScenes(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing scenes: %w", err)
	}
	characters, err := s.db.ListCharacters(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}

	var (
		relationships map[string][]entities.Relationship
		avatars       map[string]string
		wg            sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		relationships = s.loadRelationships(ctx, characters)
	}()
	go func() {
		defer wg.Done()
		avatars = s.loadAvatars(ctx, characters)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tl := timeline.Derive(timeline.Input{
		Chapters:      chapters,
		Scenes:        scenes,
		Characters:    characters,
		Relationships: relationships,
		Avatars:       avatars,
		Layout:        layout,
		Location:      s.location,
	})

	s.logger.Debug("timeline built",
		zap.String("book_id", bookID),
		zap.String("layout", string(layout)),
		zap.Int("items", len(tl.Items)),
		zap.Int("groups", len(tl.Groups)),
	)
	return &tl, nil
}

func (s *TimelineService) loadRelationships(ctx context.Context, characters []entities.Character) map[string][]entities.Relationship {
	var mu sync.Mutex
	result := make(map[string][]entities.Relationship, len(characters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range characters {
		id := characters[i].ID
		g.Go(func() error {
			edges, err := s.db.FindRelationshipsByCharacter(gctx, id)
			if err != nil {
				s.logger.Warn("loading relationships", zap.String("character_id", id), zap.Error(err))
				return nil
			}
			mu.Lock()
			result[id] = edges
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return result
}

func (s *TimelineService) loadAvatars(ctx context.Context, characters []entities.Character) map[string]string {
	result := make(map[string]string)
	if s.images == nil {
		return result
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range characters {
		id, ref := characters[i].ID, characters[i].Avatar
		if ref == "" {
			continue
		}
		g.Go(func() error {
			data, err := s.images.GetImageData(gctx, ref)
			if err != nil {
				s.logger.Warn("loading avatar", zap.String("character_id", id), zap.String("avatar", ref), zap.Error(err))
				return nil
			}
			if data == "" {
				return nil
			}
			mu.Lock()
			result[id] = data
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return result
}

// Refresh rebuilds the timeline of bookID and caches it. A refresh that is
// overtaken by a newer Refresh or Invalidate is cancelled and returns
// ErrStaleTimeline.
func (s *TimelineService) Refresh(ctx context.Context, bookID string, layout timeline.LayoutMode) (*timeline.Timeline, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	state := s.state(bookID)
	if state.cancel != nil {
		state.cancel()
	}
	state.generation++
	generation := state.generation
	state.cancel = cancel
	s.mu.Unlock()

	tl, err := s.Build(ctx, bookID, layout)

	s.mu.Lock()
	defer s.mu.Unlock()
	if state.generation != generation {
		s.logger.Debug("discarding stale timeline", zap.String("book_id", bookID), zap.Uint64("generation", generation))
		return nil, ErrStaleTimeline
	}
	state.cancel = nil
	if err != nil {
		return nil, err
	}
	state.latest = tl
	return tl, nil
}

// Invalidate drops the cached timeline of bookID and supersedes any refresh
// in flight.
func (s *TimelineService) Invalidate(bookID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state(bookID)
	state.generation++
	if state.cancel != nil {
		state.cancel()
		state.cancel = nil
	}
	state.latest = nil
}

// Latest returns the cached timeline of bookID, if any.
func (s *TimelineService) Latest(bookID string) (*timeline.Timeline, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.books[bookID]
	if !ok || state.latest == nil {
		return nil, false
	}
	return state.latest, true
}

// Generation returns the current generation of bookID.
func (s *TimelineService) Generation(bookID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.books[bookID]; ok {
		return state.generation
	}
	return 0
}

func (s *TimelineService) state(bookID string) *bookTimeline {
	state, ok := s.books[bookID]
	if !ok {
		state = &bookTimeline{}
		s.books[bookID] = state
	}
	return state
}
