package logger

import (
	"os"
	"path/filepath"
	"time"
)

// PruneDir deletes regular files in dir last modified before cutoff, skipping protected names.
func PruneDir(dir string, cutoff time.Time, protected []string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	keep := make(map[string]struct{}, len(protected))
	for _, name := range protected {
		keep[name] = struct{}{}
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := keep[e.Name()]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
