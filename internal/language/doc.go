// Package language normalizes language identifiers between config values,
// whisper arguments, and operator-facing output.
package language
