package stage

import "strings"

// Stage represents one discrete step in an item's processing lifecycle.
type Stage string

const (
	Discovered         Stage = "discovered"
	AudioExtracted     Stage = "audio_extracted"
	Transcribed        Stage = "transcribed"
	Corrected          Stage = "corrected"
	SubtitlesGenerated Stage = "subtitles_generated"
	Completed          Stage = "completed"
	Failed             Stage = "failed"
)

// executionOrder lists the stages that perform work, in the only order they
// may run. Discovered is the initial marker, Completed/Failed are terminal.
var executionOrder = []Stage{
	AudioExtracted,
	Transcribed,
	Corrected,
	SubtitlesGenerated,
}

var allStages = append([]Stage{Discovered}, append(append([]Stage{}, executionOrder...), Completed, Failed)...)

var stageSet = func() map[Stage]struct{} {
	set := make(map[Stage]struct{}, len(allStages))
	for _, s := range allStages {
		set[s] = struct{}{}
	}
	return set
}()

// ExecutionOrder returns the ordered list of work-performing stages.
func ExecutionOrder() []Stage {
	cp := make([]Stage, len(executionOrder))
	copy(cp, executionOrder)
	return cp
}

// All returns every known stage including terminals.
func All() []Stage {
	cp := make([]Stage, len(allStages))
	copy(cp, allStages)
	return cp
}

// Parse converts a string into a known Stage.
func Parse(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a stage ends an item's pipeline.
func (s Stage) IsTerminal() bool {
	return s == Completed || s == Failed
}

// Before reports whether s precedes other in execution order. Terminal and
// marker stages compare by their position in the full lifecycle.
func (s Stage) Before(other Stage) bool {
	return s.index() < other.index()
}

func (s Stage) index() int {
	for i, candidate := range allStages {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Next returns the stage that follows s in the lifecycle, or Completed once
// the execution order is exhausted. Failed has no successor.
func (s Stage) Next() Stage {
	if s == Failed || s == Completed {
		return s
	}
	idx := s.index()
	if idx < 0 || idx+1 >= len(allStages) {
		return Completed
	}
	next := allStages[idx+1]
	if next == Failed {
		return Completed
	}
	return next
}

// Label returns a human-readable form for progress output.
func (s Stage) Label() string {
	parts := strings.Fields(strings.ReplaceAll(string(s), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
