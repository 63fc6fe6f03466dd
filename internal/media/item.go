package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fingerprint is a cheap content-change signal for a source file. Size plus
// modification time is enough to detect the edits that matter here (re-exports,
// replaced files) without hashing gigabytes of video.
type Fingerprint struct {
	Size    int64 `json:"size"`
	ModTime int64 `json:"mod_time"`
}

// String renders the canonical "<size>:<mtime>" form persisted in state records.
func (f Fingerprint) String() string {
	return strconv.FormatInt(f.Size, 10) + ":" + strconv.FormatInt(f.ModTime, 10)
}

// ParseFingerprint parses the canonical string form.
func ParseFingerprint(value string) (Fingerprint, error) {
	var fp Fingerprint
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return fp, fmt.Errorf("malformed fingerprint %q", value)
	}
	size, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return fp, fmt.Errorf("malformed fingerprint size %q: %w", parts[0], err)
	}
	mod, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return fp, fmt.Errorf("malformed fingerprint mtime %q: %w", parts[1], err)
	}
	fp.Size = size
	fp.ModTime = mod
	return fp, nil
}

// Item is one video file queued for processing.
type Item struct {
	// ID is stable across runs: sanitized filename stem plus a short hash of
	// the absolute source path, so identically named files in different
	// directories never collide.
	ID           string
	SourcePath   string
	DisplayTitle string
	Fingerprint  Fingerprint
}

// NewItem builds an Item for the given video file, stating it to capture the
// current fingerprint.
func NewItem(sourcePath string) (Item, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return Item{}, fmt.Errorf("resolve source path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Item{}, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return Item{}, fmt.Errorf("source %q is a directory", abs)
	}
	return Item{
		ID:           DeriveID(abs),
		SourcePath:   abs,
		DisplayTitle: DeriveTitle(abs),
		Fingerprint:  Fingerprint{Size: info.Size(), ModTime: info.ModTime().Unix()},
	}, nil
}

// CurrentFingerprint re-stats the source file.
func (i Item) CurrentFingerprint() (Fingerprint, error) {
	info, err := os.Stat(i.SourcePath)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("stat source: %w", err)
	}
	return Fingerprint{Size: info.Size(), ModTime: info.ModTime().Unix()}, nil
}

// DeriveID computes the stable item identifier for an absolute source path.
func DeriveID(absPath string) string {
	stem := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	sum := sha256.Sum256([]byte(absPath))
	return sanitizeStem(stem) + "-" + hex.EncodeToString(sum[:4])
}

func sanitizeStem(stem string) string {
	var b strings.Builder
	b.Grow(len(stem))
	prevUnderscore := false
	for _, r := range strings.ToLower(stem) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			prevUnderscore = false
		default:
			if !prevUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "item"
	}
	const maxStem = 48
	if len(out) > maxStem {
		out = out[:maxStem]
	}
	return out
}

// DeriveTitle infers a human-readable title from a video filename.
func DeriveTitle(sourcePath string) string {
	if sourcePath == "" {
		return "Unknown Video"
	}
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		title = "Unknown Video"
	}
	return cases.Title(language.Und).String(title)
}
