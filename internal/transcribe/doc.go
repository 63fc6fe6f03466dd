// Package transcribe turns extracted audio into timed transcripts, trying a
// remote whisper server first and falling back to a local whisper binary.
package transcribe
