package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BackupTo creates a consistent SQLite snapshot at dstPath using VACUUM INTO.
// This works even when WAL mode is enabled.
func (d *SQLite) BackupTo(ctx context.Context, dstPath string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o750); err != nil {
		return err
	}
	// VACUUM INTO refuses to overwrite
	if err := os.Remove(dstPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	escaped := strings.ReplaceAll(dstPath, "'", "''")
	_, err := d.sql.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s';", escaped))
	return err
}

// BackupName is the timestamped file name used by scheduled backups.
func BackupName(dir string, at time.Time) string {
	return filepath.Join(dir, "goldlive-"+at.UTC().Format("20060102-150405")+".db")
}
