package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBooks_Missing(t *testing.T) {
	books, err := LoadBooks(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, books.Books)
}

func TestBooksConfig_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	books := &BooksConfig{}

	key := books.Add("The Long War", BookEntry{ID: "id-1", Description: "first"})
	books.Add("Sequel", BookEntry{ID: "id-2"})
	assert.Equal(t, "the_long_war", key)
	assert.Equal(t, "the_long_war", books.Current)

	require.NoError(t, books.Save(dir))

	loaded, err := LoadBooks(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"sequel", "the_long_war"}, loaded.Names())
	assert.Equal(t, "first", loaded.Books["the_long_war"].Description)
}

func TestBooksConfig_Resolve(t *testing.T) {
	books := &BooksConfig{}

	_, err := books.Resolve("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no books configured")

	books.Add("Saga", BookEntry{ID: "id-1"})
	books.Add("Other", BookEntry{ID: "id-2"})

	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  string
	}{
		{name: "current book", input: "", expected: "id-1"},
		{name: "by name", input: "Other", expected: "id-2"},
		{name: "by id", input: "id-2", expected: "id-2"},
		{name: "unknown", input: "nope", wantErr: "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := books.Resolve(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}

	books.Remove("Saga")
	_, err = books.Resolve("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no current book")
}
