package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/sakowicz/actual-ai/internal/common"
	"github.com/sakowicz/actual-ai/internal/model"
)

// categoryIDPattern matches a canonical category identifier: 32 hex digits
// grouped 8-4-4-4-12 with the version and variant nibbles constrained.
var categoryIDPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}`)

// findCategoryID scans raw model text for the first category-identifier
// shaped substring, tolerating models that wrap the answer in prose.
// The match is returned in canonical lowercase form.
func findCategoryID(text string) (string, bool) {
	match := categoryIDPattern.FindString(text)
	if match == "" {
		return "", false
	}

	id, err := uuid.Parse(match)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// extractSuggestionArray locates the first '[' and last ']' in raw model
// text and decodes the enclosed substring as a JSON array, tolerating
// commentary the model may emit around it. All failure modes return an
// error; callers degrade to an empty suggestion list.
func extractSuggestionArray(text string) ([]json.RawMessage, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, common.ErrNoJSONArray
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &elements); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNotJSONArray, err)
	}
	return elements, nil
}

// parseGroupSuggestions validates each element independently: an element is
// accepted iff it is an object with non-empty string name and numeric
// confidence at or above the threshold. Invalid elements are skipped
// without affecting siblings. The accepted list is capped at maxGroups.
func parseGroupSuggestions(elements []json.RawMessage, threshold float64, maxGroups int) []model.GroupSuggestion {
	suggestions := make([]model.GroupSuggestion, 0, len(elements))
	for _, raw := range elements {
		var s model.GroupSuggestion
		if err := json.Unmarshal(raw, &s); err != nil {
			slog.Debug("skipping malformed group suggestion", "element", string(raw), "error", err)
			continue
		}
		if s.Name == "" {
			slog.Debug("skipping group suggestion without a name", "element", string(raw))
			continue
		}
		if s.Confidence < threshold {
			slog.Debug("skipping group suggestion below confidence threshold",
				"name", s.Name,
				"confidence", s.Confidence,
				"threshold", threshold)
			continue
		}
		suggestions = append(suggestions, s)
	}

	return capSuggestions(suggestions, maxGroups, "groups")
}

// parseRuleSuggestions validates structure only: stage present, conditions
// and actions present as arrays, numeric confidence at or above the
// threshold. Field and op vocabularies are the backend's to reject.
func parseRuleSuggestions(elements []json.RawMessage, threshold float64, maxRules int) []model.RuleSuggestion {
	suggestions := make([]model.RuleSuggestion, 0, len(elements))
	for _, raw := range elements {
		var s model.RuleSuggestion
		if err := json.Unmarshal(raw, &s); err != nil {
			slog.Debug("skipping malformed rule suggestion", "element", string(raw), "error", err)
			continue
		}
		if s.Stage == "" || s.Conditions == nil || s.Actions == nil {
			slog.Debug("skipping structurally incomplete rule suggestion", "element", string(raw))
			continue
		}
		if s.Confidence < threshold {
			slog.Debug("skipping rule suggestion below confidence threshold",
				"confidence", s.Confidence,
				"threshold", threshold)
			continue
		}
		suggestions = append(suggestions, s)
	}

	return capSuggestions(suggestions, maxRules, "rules")
}

// capSuggestions truncates a valid-suggestion list to the configured
// maximum. The cap is requested in the prompt but models do not always
// honor it.
func capSuggestions[T any](suggestions []T, limit int, kind string) []T {
	if limit <= 0 || len(suggestions) <= limit {
		return suggestions
	}
	slog.Warn("model returned more suggestions than requested, truncating",
		"kind", kind,
		"returned", len(suggestions),
		"limit", limit)
	return suggestions[:limit]
}
