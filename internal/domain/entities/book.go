// Package entities contains core domain data structures.
package entities

import (
	"sort"
	"time"
)

// Book groups the characters, chapters and scenes of one story.
type Book struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Chapter belongs to a book and orders its scenes.
type Chapter struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Scene belongs to exactly one chapter. Dates are kept as entered; the
// timeline decides what is usable.
type Scene struct {
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	ChapterID string    `json:"chapter_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content,omitempty"`
	StartDate *string   `json:"start_date,omitempty"`
	EndDate   *string   `json:"end_date,omitempty"`
	Position  int       `json:"position"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SortChapters orders chapters by position, then creation time, then id.
func SortChapters(chapters []Chapter) {
	sort.SliceStable(chapters, func(i, j int) bool {
		a, b := chapters[i], chapters[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// SortScenes orders scenes by position, then creation time, then id.
func SortScenes(scenes []Scene) {
	sort.SliceStable(scenes, func(i, j int) bool {
		a, b := scenes[i], scenes[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
