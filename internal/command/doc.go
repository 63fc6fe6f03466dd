// Package command wraps external tool invocation with a bounded duration and
// typed error classification, so every collaborator that shells out (ffmpeg,
// ffprobe, whisper) shares the same timeout and failure semantics.
package command
