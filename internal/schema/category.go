package schema

import "strings"

// Category is the coarse classification of a declared column type.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNumeric
	CategoryText
	CategoryDate
	CategoryBoolean
)

func (c Category) String() string {
	switch c {
	case CategoryNumeric:
		return "NUMERIC"
	case CategoryText:
		return "TEXT"
	case CategoryDate:
		return "DATE"
	case CategoryBoolean:
		return "BOOLEAN"
	default:
		return "UNKNOWN"
	}
}

// Keyword groups are tried in order; the first group with a keyword
// contained in the lower-cased declared type wins.
var categoryKeywords = []struct {
	category Category
	words    []string
}{
	{CategoryNumeric, []string{"int", "number", "numeric", "decimal", "float", "double", "real"}},
	{CategoryText, []string{"char", "clob", "text", "string", "varchar"}},
	{CategoryDate, []string{"date", "timestamp", "time"}},
	{CategoryBoolean, []string{"bool"}},
}

// CategoryOf classifies a declared type string by keyword matching.
func CategoryOf(declared string) Category {
	t := strings.ToLower(strings.TrimSpace(declared))
	if t == "" {
		return CategoryUnknown
	}
	for _, group := range categoryKeywords {
		for _, w := range group.words {
			if strings.Contains(t, w) {
				return group.category
			}
		}
	}
	return CategoryUnknown
}
