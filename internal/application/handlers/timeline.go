package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/lore-chronicle/internal/domain/services"
	"github.com/ersonp/lore-chronicle/internal/domain/timeline"
)

// TimelineHandler serves derived timelines.
type TimelineHandler struct {
	service       *services.TimelineService
	defaultLayout timeline.LayoutMode
}

// NewTimelineHandler creates a new TimelineHandler. Only timelines in the
// default layout are cached.
func NewTimelineHandler(service *services.TimelineService, defaultLayout timeline.LayoutMode) *TimelineHandler {
	if defaultLayout == "" {
		defaultLayout = timeline.LayoutSeparate
	}
	return &TimelineHandler{service: service, defaultLayout: defaultLayout}
}

// TimelineResult is a derived timeline with the layout it was built for.
type TimelineResult struct {
	BookID string              `json:"book_id"`
	Layout timeline.LayoutMode `json:"layout"`
	Cached bool                `json:"cached"`
	timeline.Timeline
}

// HandleGet returns the timeline of bookID. An empty layout selects the
// default one, which is served from cache when possible.
func (h *TimelineHandler) HandleGet(ctx context.Context, bookID, layout string) (*TimelineResult, error) {
	mode, err := h.layout(layout)
	if err != nil {
		return nil, err
	}

	if mode == h.defaultLayout {
		if tl, ok := h.service.Latest(bookID); ok {
			return &TimelineResult{BookID: bookID, Layout: mode, Cached: true, Timeline: *tl}, nil
		}
		return h.refresh(ctx, bookID, mode)
	}

	tl, err := h.service.Build(ctx, bookID, mode)
	if err != nil {
		return nil, fmt.Errorf("building timeline: %w", err)
	}
	return &TimelineResult{BookID: bookID, Layout: mode, Timeline: *tl}, nil
}

// HandleRefresh rebuilds the cached default-layout timeline of bookID.
func (h *TimelineHandler) HandleRefresh(ctx context.Context, bookID string) (*TimelineResult, error) {
	return h.refresh(ctx, bookID, h.defaultLayout)
}

func (h *TimelineHandler) refresh(ctx context.Context, bookID string, mode timeline.LayoutMode) (*TimelineResult, error) {
	tl, err := h.service.Refresh(ctx, bookID, mode)
	if err != nil {
		return nil, fmt.Errorf("refreshing timeline: %w", err)
	}
	return &TimelineResult{BookID: bookID, Layout: mode, Timeline: *tl}, nil
}

func (h *TimelineHandler) layout(s string) (timeline.LayoutMode, error) {
	if s == "" {
		return h.defaultLayout, nil
	}
	return timeline.ParseLayout(s)
}
