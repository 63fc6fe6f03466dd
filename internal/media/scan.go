package media

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"matscribe/internal/logging"
)

// Scan walks inputRoot and returns one Item per video file, sorted by path for
// deterministic scheduling order. Hidden directories (including the work
// directory) are skipped. A file that disappears or cannot be statted during
// the walk is logged and skipped; only the unreadable root aborts the scan.
func Scan(inputRoot string, extensions []string, logger *slog.Logger) ([]Item, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	info, err := os.Stat(inputRoot)
	if err != nil {
		return nil, fmt.Errorf("stat input root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input root %q is not a directory", inputRoot)
	}

	extSet := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = struct{}{}
	}

	var items []Item
	err = filepath.WalkDir(inputRoot, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			if path != inputRoot && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			return nil
		}
		if _, ok := extSet[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			return nil
		}
		item, err := NewItem(path)
		if err != nil {
			logger.WarnContext(context.Background(), "skipping unreadable video file",
				logging.String("path", path),
				logging.Error(err))
			return nil
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", inputRoot, err)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].SourcePath < items[j].SourcePath })
	return items, nil
}
