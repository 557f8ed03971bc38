package application

import (
	"encoding/json"
	"strings"

	"github.com/dfryer1193/mediasweep/shared/phpserial"
)

// idTokens extracts the attachment IDs listed in a custom field value. It understands
// comma-separated lists ("12,34"), JSON arrays ("[\"12\",34]") and PHP-serialized arrays
// ("a:1:{i:0;s:2:\"12\";}"). Array keys and serialized lengths are never IDs.
func idTokens(value string) []string {
	value = strings.TrimSpace(value)

	if phpserial.IsArray(value) {
		if arr, err := phpserial.DecodeArray(value); err == nil {
			return wholeIDs(phpserial.Values(arr))
		}
		// Undecodable values are split like plain text so a damaged field still keeps its images.
		return plainIDs(value)
	}

	if strings.HasPrefix(value, "[") {
		if items, ok := jsonValues(value); ok {
			return wholeIDs(items)
		}
	}

	return plainIDs(value)
}

// containsIDToken reports whether id appears as a whole token in value
func containsIDToken(value string, id string) bool {
	id = normalizeID(id)
	for _, tok := range idTokens(value) {
		if tok == id {
			return true
		}
	}
	return false
}

func jsonValues(value string) ([]string, bool) {
	dec := json.NewDecoder(strings.NewReader(value))
	dec.UseNumber()

	var items []any
	if err := dec.Decode(&items); err != nil {
		return nil, false
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case json.Number:
			out = append(out, v.String())
		}
	}
	return out, true
}

func plainIDs(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})

	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		ids = appendID(ids, f)
	}
	return ids
}

func wholeIDs(values []string) []string {
	ids := make([]string, 0, len(values))
	for _, v := range values {
		ids = appendID(ids, strings.TrimSpace(v))
	}
	return ids
}

func appendID(ids []string, s string) []string {
	if isDigits(s) {
		ids = append(ids, normalizeID(s))
	}
	return ids
}

func normalizeID(id string) string {
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" && id != "" {
		return "0"
	}
	return trimmed
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
