package correction

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/renameio/v2"
)

// Replacement is one textual substitution proposed by the correction model.
type Replacement struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Reason      string `json:"reason,omitempty"`
}

// SaveReplacements persists the replacement list so later stages can apply
// the same substitutions to segment-level text.
func SaveReplacements(path string, replacements []Replacement) error {
	if replacements == nil {
		replacements = []Replacement{}
	}
	data, err := json.MarshalIndent(replacements, "", "  ")
	if err != nil {
		return fmt.Errorf("encode replacements: %w", err)
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write replacements: %w", err)
	}
	return nil
}

// LoadReplacements reads a replacement list written by SaveReplacements. A
// missing file is an empty list, not an error.
func LoadReplacements(path string) ([]Replacement, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read replacements: %w", err)
	}
	var replacements []Replacement
	if err := json.Unmarshal(data, &replacements); err != nil {
		return nil, fmt.Errorf("decode replacements %s: %w", path, err)
	}
	return filterReplacements(replacements), nil
}

// noCorrectionsSentence is the literal reply the system prompt asks for when
// the transcript is already clean.
const noCorrectionsSentence = "no corrections needed"

var lineSeparators = []string{" -> ", " → ", " => ", ": "}

// ParseResponse extracts replacements from a model reply. A JSON payload is
// tried first; otherwise each line is scanned for a separator. Identity pairs
// and commentary lines are dropped, so a chatty model degrades to fewer
// corrections rather than a failure.
func ParseResponse(response string) []Replacement {
	response = stripCodeFences(response)
	if strings.Contains(strings.ToLower(response), noCorrectionsSentence) {
		return nil
	}

	if replacements, ok := parseJSONResponse(response); ok {
		return replacements
	}

	var replacements []Replacement
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if rep, ok := parseLine(line); ok {
			replacements = append(replacements, rep)
		}
	}
	return replacements
}

func parseJSONResponse(response string) ([]Replacement, bool) {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return nil, false
	}

	var wrapped struct {
		Replacements []Replacement `json:"replacements"`
	}
	if err := json.Unmarshal([]byte(trimmed), &wrapped); err == nil && wrapped.Replacements != nil {
		return filterReplacements(wrapped.Replacements), true
	}

	var list []Replacement
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		return filterReplacements(list), true
	}
	return nil, false
}

func parseLine(line string) (Replacement, bool) {
	for _, separator := range lineSeparators {
		pos := strings.Index(line, separator)
		if pos < 0 {
			continue
		}
		original := strings.Trim(strings.TrimSpace(line[:pos]), `"`)
		rest := line[pos+len(separator):]

		var reason string
		if paren := strings.Index(rest, "("); paren >= 0 {
			reason = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest[paren+1:]), ")"))
			rest = rest[:paren]
		}
		replacement := strings.Trim(strings.TrimSpace(rest), `"`)

		if original == "" || replacement == "" || original == replacement {
			return Replacement{}, false
		}
		return Replacement{Original: original, Replacement: replacement, Reason: reason}, true
	}
	return Replacement{}, false
}

func filterReplacements(in []Replacement) []Replacement {
	out := make([]Replacement, 0, len(in))
	for _, rep := range in {
		rep.Original = strings.TrimSpace(rep.Original)
		rep.Replacement = strings.TrimSpace(rep.Replacement)
		if rep.Original == "" || rep.Replacement == "" || rep.Original == rep.Replacement {
			continue
		}
		out = append(out, rep)
	}
	return out
}

func stripCodeFences(response string) string {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.Index(trimmed, "\n"); newline >= 0 {
		// Drop a language tag on the fence line.
		first := strings.TrimSpace(trimmed[:newline])
		if first != "" && !strings.ContainsAny(first, " \t") && len(first) < 16 {
			trimmed = trimmed[newline+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
