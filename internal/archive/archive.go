package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// stampLayout is the time format in backup names
const stampLayout = "20060102-150405"

// DefaultDir returns the archive directory used next to a catalog
func DefaultDir(catalogPath string) string {
	return filepath.Join(filepath.Dir(catalogPath), "archive")
}

// Backup copies a catalog into dir as <base>-<timestamp><ext> and returns
// the backup path. An empty dir means DefaultDir.
func Backup(path, dir string) (string, error) {
	// Check if catalog exists
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("catalog does not exist: %s", path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat catalog: %w", err)
	}

	if dir == "" {
		dir = DefaultDir(path)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)

	// Generate timestamp
	timestamp := time.Now().Format(stampLayout)
	backupPath := filepath.Join(dir, fmt.Sprintf("%s-%s%s", base, timestamp, ext))

	// Check if backup already exists (two runs within one second)
	if _, err := os.Stat(backupPath); err == nil {
		timestamp = time.Now().Format(stampLayout + ".000000")
		backupPath = filepath.Join(dir, fmt.Sprintf("%s-%s%s", base, timestamp, ext))
	}

	if err := copyFile(path, backupPath, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("failed to back up catalog: %w", err)
	}

	log.Debug("Catalog backed up", "path", path, "backup", backupPath)
	return backupPath, nil
}

// Prune removes all but the newest keep backups of the catalog at path
// from dir. keep <= 0 keeps everything.
func Prune(path, dir string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	if dir == "" {
		dir = DefaultDir(path)
	}

	ext := filepath.Ext(path)
	prefix := strings.TrimSuffix(filepath.Base(path), ext) + "-"

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read archive directory: %w", err)
	}

	type backup struct {
		name  string
		taken time.Time
	}
	var backups []backup
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || filepath.Ext(name) != ext {
			continue
		}
		// Only names whose suffix is a timestamp belong to this catalog.
		// Parsing accepts the optional microsecond fraction of Backup.
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)
		taken, err := time.ParseInLocation(stampLayout, stamp, time.Local)
		if err != nil {
			continue
		}
		backups = append(backups, backup{name: name, taken: taken})
	}

	if len(backups) <= keep {
		return 0, nil
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].taken.Equal(backups[j].taken) {
			return backups[i].name < backups[j].name
		}
		return backups[i].taken.Before(backups[j].taken)
	})
	removed := 0
	for _, b := range backups[:len(backups)-keep] {
		if err := os.Remove(filepath.Join(dir, b.name)); err != nil {
			return removed, fmt.Errorf("failed to remove old backup: %w", err)
		}
		removed++
	}
	return removed, nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
