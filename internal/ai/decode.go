package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spigell/assessment-recommender/internal/schemas"
)

// DecodeJSON extracts the JSON document from a model response, validates it against
// schema and decodes it into out.
func DecodeJSON(raw, schema string, out any) error {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return fmt.Errorf("response contains no json")
	}

	if strings.TrimSpace(schema) != "" {
		if err := schemas.ValidateJSONString(schema, cleaned); err != nil {
			return err
		}
	}

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// ExtractJSON strips markdown code fences and any prose around the outermost
// JSON object or array.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	start := strings.IndexAny(raw, "{[")
	if start == -1 {
		return ""
	}
	closing := "}"
	if raw[start] == '[' {
		closing = "]"
	}
	end := strings.LastIndex(raw, closing)
	if end < start {
		return ""
	}

	return raw[start : end+1]
}
