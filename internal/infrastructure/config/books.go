package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// BooksConfig maps short book names to book ids so the CLI can address
// books by name.
type BooksConfig struct {
	Current string               `yaml:"current,omitempty"`
	Books   map[string]BookEntry `yaml:"books,omitempty"`
}

// BookEntry holds the registry data of one book.
type BookEntry struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description,omitempty"`
}

// LoadBooks loads the books registry from the .chronicle directory.
func LoadBooks(basePath string) (*BooksConfig, error) {
	data, err := os.ReadFile(BooksFilePath(basePath))
	if os.IsNotExist(err) {
		// Return empty config if file doesn't exist
		return &BooksConfig{
			Books: make(map[string]BookEntry),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading books file: %w", err)
	}

	var cfg BooksConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing books file: %w", err)
	}

	if cfg.Books == nil {
		cfg.Books = make(map[string]BookEntry)
	}

	return &cfg, nil
}

// Save writes the books registry to the books file.
func (b *BooksConfig) Save(basePath string) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshaling books config: %w", err)
	}

	if err := os.WriteFile(BooksFilePath(basePath), data, 0600); err != nil {
		return fmt.Errorf("writing books file: %w", err)
	}

	return nil
}

// Add registers a book under its sanitized name and returns that name. The
// first book added becomes the current one.
func (b *BooksConfig) Add(name string, entry BookEntry) string {
	if b.Books == nil {
		b.Books = make(map[string]BookEntry)
	}
	key := SanitizeBookName(name)
	b.Books[key] = entry
	if b.Current == "" {
		b.Current = key
	}
	return key
}

// Remove removes a book from the registry.
func (b *BooksConfig) Remove(name string) {
	key := SanitizeBookName(name)
	delete(b.Books, key)
	if b.Current == key {
		b.Current = ""
	}
}

// Names returns the registered names in sorted order.
func (b *BooksConfig) Names() []string {
	names := make([]string, 0, len(b.Books))
	for k := range b.Books {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the book id for name. An empty name selects the current
// book, and a value that is already a registered id is returned as is.
func (b *BooksConfig) Resolve(name string) (string, error) {
	if len(b.Books) == 0 {
		return "", errors.New("no books configured (run 'chronicle books create' first)")
	}

	if name == "" {
		if b.Current == "" {
			return "", errors.New("no current book set (use --book)")
		}
		name = b.Current
	}

	if entry, ok := b.Books[SanitizeBookName(name)]; ok {
		return entry.ID, nil
	}
	for _, entry := range b.Books {
		if entry.ID == name {
			return entry.ID, nil
		}
	}

	names := b.Names()
	if len(names) > 5 {
		names = append(names[:5], "...")
	}
	return "", fmt.Errorf("book %q not found (available: %s)", name, strings.Join(names, ", "))
}
