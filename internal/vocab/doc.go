// Package vocab carries the Brazilian Jiu-Jitsu dictionary that steers
// transcription and correction toward the sport's terminology.
package vocab
