package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/lore-chronicle/internal/application/handlers"
	"github.com/ersonp/lore-chronicle/internal/domain/entities"
	"github.com/ersonp/lore-chronicle/internal/domain/timeline"
)

func TestMatchCharacter(t *testing.T) {
	chars := []entities.Character{
		{ID: "c1", FirstName: "Ann", LastName: "Lee"},
		{ID: "c2", FirstName: "Ben", LastName: "Lee"},
		{ID: "c3", FirstName: "Ben", LastName: "Stone"},
	}

	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr string
	}{
		{name: "by id", ref: "c2", want: "c2"},
		{name: "by full name", ref: "ben stone", want: "c3"},
		{name: "by first name", ref: "ANN", want: "c1"},
		{name: "ambiguous", ref: "Ben", wantErr: "ambiguous"},
		{name: "missing", ref: "Cy", wantErr: "not found"},
		{name: "empty", ref: " ", wantErr: "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := matchCharacter(chars, tt.ref)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeyValues(t *testing.T) {
	got, err := parseKeyValues([]string{"birthDate=1990-01-01", "note=a=b", "deathDate="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"birthDate": "1990-01-01", "note": "a=b", "deathDate": ""}, got)

	_, err = parseKeyValues([]string{"novalue"})
	require.Error(t, err)

	_, err = parseKeyValues([]string{"=x"})
	require.Error(t, err)
}

func TestParseMetadata(t *testing.T) {
	got, err := parseMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseMetadata([]string{"marriageDate=2015-06-06"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"marriageDate": "2015-06-06"}, got)
}

func TestMetadataSuffix(t *testing.T) {
	assert.Empty(t, metadataSuffix(nil))
	assert.Equal(t, " (a=1, b=x)", metadataSuffix(map[string]any{"b": "x", "a": 1}))
}

func TestRelatedName(t *testing.T) {
	assert.Equal(t, "unknown", relatedName(nil))
	assert.Equal(t, "Ann Lee", relatedName(&entities.RelatedCharacter{ID: "c1", FirstName: "Ann", LastName: "Lee"}))
	assert.Equal(t, "c1", relatedName(&entities.RelatedCharacter{ID: "c1"}))
}

func TestPrintTimelineTree(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC) }
	end := day(3)

	result := &handlers.TimelineResult{
		BookID: "b1",
		Timeline: timeline.Timeline{
			Groups: []timeline.Group{
				{ID: "book-timeline", Content: "Book Timeline", NestedGroups: []string{"chapter-1"}},
				{ID: "chapter-1", Content: "One", NestedGroups: []string{"chapter-1-scenes"}},
				{ID: "chapter-1-scenes", Content: "Scenes"},
				{ID: "characters", Content: "Characters", NestedGroups: []string{"character-ann"}},
				{ID: "character-ann", Content: "Ann"},
			},
			Items: []timeline.Item{
				{ID: "scene-s1", Group: "chapter-1-scenes", Content: "Opening", Start: day(1), End: &end},
				{ID: "birth-ann", Group: "character-ann", Content: "Ann born", Start: day(2)},
			},
		},
	}

	var buf bytes.Buffer
	printTimelineTree(&buf, result)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"Book Timeline",
		"  One",
		"    Scenes",
		"      - 2020-01-01 .. 2020-01-03  Opening",
		"Characters",
		"  Ann",
		"    - 2020-01-02  Ann born",
	}, lines)
}
