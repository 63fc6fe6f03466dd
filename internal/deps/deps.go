package deps

import (
	"fmt"
	"os/exec"
	"slices"
	"strings"

	"matscribe/internal/config"
)

// Requirement defines an external binary matscribe relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Required derives the binary requirements for the given configuration.
// ffmpeg and ffprobe are always needed for audio extraction; the local
// whisper CLI is required only when the local backend participates in the
// transcription chain, and downgrades to optional when a remote endpoint
// could serve instead.
func Required(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Extracts mono WAV audio from video files",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Inspects video files for audio streams",
		},
	}
	if slices.Contains(cfg.Transcription.Providers, "local") {
		remoteConfigured := strings.TrimSpace(cfg.Transcription.RemoteEndpoint) != "" &&
			slices.Contains(cfg.Transcription.Providers, "remote")
		reqs = append(reqs, Requirement{
			Name:        "Whisper CLI",
			Command:     cfg.Transcription.LocalBinary,
			Description: "Local speech-to-text fallback",
			Optional:    remoteConfigured,
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of required dependencies that are not
// available. An empty result means processing can start.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Optional && !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
