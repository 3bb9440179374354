package ai

import (
	"encoding/json"
	"strings"

	apperrors "sofia/internal/errors"
	"sofia/internal/validator"
)

// CleanJSON strips Markdown fences and surrounding prose from a model
// reply, keeping the outermost JSON object or array.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	opening, closing := "{", "}"
	objStart := strings.Index(s, "{")
	arrStart := strings.Index(s, "[")
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		opening, closing = "[", "]"
	}
	if start := strings.Index(s, opening); start != -1 {
		if end := strings.LastIndex(s, closing); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}

// DecodeJSON parses a model reply into the struct type T and validates it. Any failure is
// reported as AI_MALFORMED_RESPONSE so callers can take their fallback.
func DecodeJSON[T any](raw string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(CleanJSON(raw)), &out); err != nil {
		return out, apperrors.Wrap(apperrors.ErrAIMalformed, err)
	}
	if err := validator.Struct(out); err != nil {
		return out, apperrors.Wrap(apperrors.ErrAIMalformed, err)
	}
	return out, nil
}
