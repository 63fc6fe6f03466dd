// Package media discovers video inputs and derives their stable identity:
// item ID, display title, and the size+mtime fingerprint that invalidates
// stale resumable state.
package media
