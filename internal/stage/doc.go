// Package stage defines the ordered processing lifecycle (discovered through
// subtitles_generated, terminal completed/failed) and the Handler contract the
// pipeline drives each stage through.
package stage
