package extract

import (
	"strings"
	"unicode/utf8"
)

// Normalize derives the structured view from raw text and detected tables.
// Pure function: malformed lines contribute nothing, they are never errors.
//
// Lines are trimmed and blank lines are dropped. Key/value pairs come from a
// single split on the first colon of each line where both sides are non-empty
// after trimming; a duplicate label overwrites the earlier value.
func Normalize(rawText string, tables []Table) StructuredData {
	sd := StructuredData{
		KeyValuePairs: map[string]string{},
		TablesCount:   len(tables),
		TextLength:    utf8.RuneCountInString(rawText),
		Lines:         []string{},
	}

	for _, line := range strings.Split(rawText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sd.Lines = append(sd.Lines, line)

		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)
		if label == "" || value == "" {
			continue
		}
		sd.KeyValuePairs[label] = value
	}

	return sd
}
