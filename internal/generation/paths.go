package generation

import (
	"encoding/json"
	"strconv"
	"strings"
)

// lookup walks a dotted path such as "generations.0.generated_images.0.url"
// through decoded JSON. Numeric segments index into arrays. Missing segments
// yield ok=false rather than an error.
func lookup(doc map[string]any, path string) (any, bool) {
	var current any = doc
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// lookupString returns the first non-empty string found on any of the paths.
// Numbers are formatted so numeric identifiers are accepted too.
func lookupString(doc map[string]any, paths ...string) (string, bool) {
	for _, path := range paths {
		value, ok := lookup(doc, path)
		if !ok {
			continue
		}
		var text string
		switch v := value.(type) {
		case string:
			text = strings.TrimSpace(v)
		case json.Number:
			text = v.String()
		case float64:
			text = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if text != "" {
			return text, true
		}
	}
	return "", false
}
