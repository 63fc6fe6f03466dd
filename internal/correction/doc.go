// Package correction fixes domain-specific transcription errors by asking a
// language model for replacement pairs and applying them to the transcript.
package correction
