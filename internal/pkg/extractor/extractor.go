// Package extractor recovers a structured JSON object from raw generative
// backend output. Backends sometimes wrap valid JSON in prose or markdown
// fences despite instructions; the substring step recovers those cases
// without a full markdown parser.
package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opmgt/beergame-coach/internal/entity"
)

// FirstJSONObject parses rawText as a JSON object. If the whole text does
// not parse, it retries on the substring between the first '{' and the last
// '}'. Returns entity.ErrMalformedOutput when no object can be recovered.
func FirstJSONObject(rawText string) (map[string]any, error) {
	if obj, ok := tryParseObject(rawText); ok {
		return obj, nil
	}

	first := strings.Index(rawText, "{")
	last := strings.LastIndex(rawText, "}")
	if first != -1 && last != -1 && last > first {
		if obj, ok := tryParseObject(rawText[first : last+1]); ok {
			return obj, nil
		}
	}

	return nil, fmt.Errorf("%w: no JSON object in %d bytes of output", entity.ErrMalformedOutput, len(rawText))
}

func tryParseObject(s string) (map[string]any, bool) {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, false
	}

	obj, ok := parsed.(map[string]any)
	return obj, ok
}
