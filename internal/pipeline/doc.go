// Package pipeline sequences the per-item stages and owns resume, skip, and
// failure semantics.
package pipeline
