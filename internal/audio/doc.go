// Package audio extracts normalized WAV audio from video sources with ffmpeg.
package audio
