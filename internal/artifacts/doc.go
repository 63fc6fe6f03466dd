// Package artifacts defines where stage outputs live on disk and how to
// recognize them, so interrupted runs can resume from whatever survived.
package artifacts
