package main

// Output formats.
const (
	formatTree = "tree"
	formatList = "list"
	formatJSON = "json"

	formatCSV      = "csv"
	formatMarkdown = "markdown"
)

// Valid output formats per command.
var (
	relationsFormats = []string{formatTree, formatList, formatJSON}
	timelineFormats  = []string{formatTree, formatJSON}
	exportFormats    = []string{formatJSON, formatCSV, formatMarkdown}
)

// dateLayout is how dates are printed in tree output.
const dateLayout = "2006-01-02"
