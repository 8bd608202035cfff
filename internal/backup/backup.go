package backup

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const backupPrefix = "motoshop-db-"

type BackupInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"-"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type Manager struct {
	backupDir string
	maxAge    time.Duration
}

func NewManager(backupDir string, retentionDays int) *Manager {
	os.MkdirAll(backupDir, 0750)
	return &Manager{
		backupDir: backupDir,
		maxAge:    time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// BackupDatabase creates a gzip-compressed copy of the SQLite database.
func (m *Manager) BackupDatabase(dbPath string) (*BackupInfo, error) {
	ts := time.Now().Format("20060102-150405")
	name := fmt.Sprintf("%s%s.sqlite.gz", backupPrefix, ts)
	outPath := filepath.Join(m.backupDir, name)

	src, err := os.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	defer dst.Close()

	gz, err := gzip.NewWriterLevel(dst, gzip.BestCompression)
	if err != nil {
		os.Remove(outPath)
		return nil, fmt.Errorf("gzip writer: %w", err)
	}

	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		os.Remove(outPath)
		return nil, fmt.Errorf("copy db: %w", err)
	}
	gz.Close()

	info, _ := os.Stat(outPath)
	return &BackupInfo{
		Name:      name,
		Path:      outPath,
		Size:      info.Size(),
		CreatedAt: time.Now(),
	}, nil
}

// ListBackups returns all backup files sorted by creation time (newest first).
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var backups []BackupInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Name:      e.Name(),
			Path:      filepath.Join(m.backupDir, e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// RestoreDatabase replaces the current database file with a backup.
// The caller must ensure the database is not in active use.
func (m *Manager) RestoreDatabase(backupName, dbPath string) error {
	// Prevent path traversal
	if strings.Contains(backupName, "/") || strings.Contains(backupName, "..") {
		return fmt.Errorf("invalid backup name")
	}
	if !strings.HasPrefix(backupName, backupPrefix) {
		return fmt.Errorf("not a database backup: %s", backupName)
	}

	backupPath := filepath.Join(m.backupDir, backupName)
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup not found: %w", err)
	}

	// Keep a safety copy of the current database before overwriting
	safetyName := fmt.Sprintf("%spre-restore-%s.sqlite.gz", backupPrefix, time.Now().Format("20060102-150405"))
	if err := m.compressTo(dbPath, filepath.Join(m.backupDir, safetyName)); err != nil {
		return fmt.Errorf("safety backup: %w", err)
	}

	backupFile, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer backupFile.Close()

	gzReader, err := gzip.NewReader(backupFile)
	if err != nil {
		return fmt.Errorf("gzip reader: %w", err)
	}
	defer gzReader.Close()

	dstFile, err := os.Create(dbPath)
	if err != nil {
		return fmt.Errorf("create db file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, gzReader); err != nil {
		return fmt.Errorf("restore copy: %w", err)
	}
	return nil
}

func (m *Manager) compressTo(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	gz, err := gzip.NewWriterLevel(dst, gzip.BestSpeed)
	if err != nil {
		return err
	}
	if _, err := io.Copy(gz, src); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// DeleteBackup removes a specific backup file.
func (m *Manager) DeleteBackup(name string) error {
	if strings.Contains(name, "/") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid backup name")
	}
	if !strings.HasPrefix(name, backupPrefix) {
		return fmt.Errorf("not a database backup: %s", name)
	}
	return os.Remove(filepath.Join(m.backupDir, name))
}

// CleanOldBackups removes backups older than the retention period.
func (m *Manager) CleanOldBackups() int {
	cutoff := time.Now().Add(-m.maxAge)
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(m.backupDir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed
}

// FormatSize returns a human-readable file size.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
