// Package subtitles renders timed transcript segments as SRT files and
// validates the result.
package subtitles
