package ai

import (
	"encoding/json"
	"strings"
)

// decodeGeminiOutput accepts the analysis block as an object or as JSON text.
// Text that does not decode to an object is returned as the summary.
func decodeGeminiOutput(v any) (obj map[string]any, fallbackSummary string) {
	switch out := v.(type) {
	case map[string]any:
		return out, ""
	case string:
		content := extractJSON(out)
		if content == "" {
			return nil, ""
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(content), &decoded); err != nil || decoded == nil {
			return nil, strings.TrimSpace(out)
		}
		return decoded, ""
	}
	return nil, ""
}

// extractJSON strips a markdown code fence, if any, around JSON content
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
