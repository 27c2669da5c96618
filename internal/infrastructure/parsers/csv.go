package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Required CSV columns. Every other non-empty column becomes metadata.
var requiredColumns = []string{"character", "type", "related"}

// CSVParser parses relationships from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed relationships.
// Expected columns: character, type, related, then optional metadata columns
// such as marriageDate or engagementDate.
func (p *CSVParser) Parse(r io.Reader) ([]RawRelationship, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, header)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) ([]string, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	present := make(map[string]bool, len(header))
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
		present[header[i]] = true
	}

	for _, col := range requiredColumns {
		if !present[col] {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return header, nil
}

// readRecords reads all data rows and converts them to RawRelationships.
func (p *CSVParser) readRecords(reader *csv.Reader, header []string) ([]RawRelationship, error) {
	var rels []RawRelationship
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		rels = append(rels, parseRecord(record, header, lineNum))
	}

	return rels, nil
}

// parseRecord converts a CSV record to a RawRelationship.
func parseRecord(record []string, header []string, lineNum int) RawRelationship {
	rel := RawRelationship{LineNum: lineNum}
	for i, col := range header {
		if i >= len(record) {
			break
		}
		value := strings.TrimSpace(record[i])
		switch col {
		case "character":
			rel.Character = value
		case "type":
			rel.Type = value
		case "related":
			rel.Related = value
		default:
			if value == "" || col == "" {
				continue
			}
			if rel.Metadata == nil {
				rel.Metadata = make(map[string]any)
			}
			rel.Metadata[col] = value
		}
	}
	return rel
}
