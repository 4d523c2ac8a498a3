package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BackupManager handles database backup and restore operations.
type BackupManager struct {
	db *DB
}

// NewBackupManager creates a backup manager for an open database.
func NewBackupManager(db *DB) *BackupManager {
	return &BackupManager{db: db}
}

// Backup writes an atomic copy of the database into dir using VACUUM INTO
// and returns the backup file path. VACUUM INTO needs no exclusive lock, so
// the live connection keeps serving while the copy runs.
func (bm *BackupManager) Backup(dir string) (string, error) {
	if bm.db.path == ":memory:" {
		return "", fmt.Errorf("cannot back up an in-memory database")
	}

	if dir == "" {
		dir = filepath.Join(filepath.Dir(bm.db.path), "backups")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("drawsim-%s.db", time.Now().UTC().Format("20060102-150405"))
	dest := filepath.Join(dir, name)

	if _, err := os.Stat(dest); err == nil {
		return "", fmt.Errorf("backup file already exists: %s", dest)
	}

	// VACUUM INTO rejects paths containing single quotes rather than trying
	// to escape them.
	if strings.ContainsRune(dest, '\'') {
		return "", fmt.Errorf("backup path must not contain single quotes: %s", dest)
	}

	if _, err := bm.db.conn.Exec(fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		return "", fmt.Errorf("vacuum into backup: %w", err)
	}

	if err := verifyBackup(dest); err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("verify backup: %w", err)
	}

	return dest, nil
}

// verifyBackup opens the backup file and runs an integrity check.
func verifyBackup(path string) error {
	conn, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var result string
	if err := conn.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
