package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses relationships from a JSON array.
type JSONParser struct{}

// Parse reads JSON from the reader and returns parsed relationships.
func (p *JSONParser) Parse(r io.Reader) ([]RawRelationship, error) {
	var rels []RawRelationship

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&rels); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Set line numbers (array index + 1, 1-indexed)
	for i := range rels {
		rels[i].LineNum = i + 1
	}

	return rels, nil
}
