// Package maintenance runs the periodic housekeeping loop: token and
// audit-log pruning plus the daily database backup.
package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"motoshop/internal/auth"
	"motoshop/internal/backup"
	"motoshop/internal/security"
)

type Sweeper struct {
	DB       *sql.DB
	Interval time.Duration
	Backups  *backup.Manager
	DBPath   string

	ActivityRetentionDays int
	SecurityRetentionDays int

	lastBackup time.Time
}

func NewSweeper(db *sql.DB, interval time.Duration, backups *backup.Manager, dbPath string, activityDays, securityDays int) *Sweeper {
	return &Sweeper{
		DB:                    db,
		Interval:              interval,
		Backups:               backups,
		DBPath:                dbPath,
		ActivityRetentionDays: activityDays,
		SecurityRetentionDays: securityDays,
	}
}

func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ctx.Done():
			log.Println("Maintenance sweeper stopped")
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	if n := auth.CleanupExpiredTokens(s.DB); n > 0 {
		log.Printf("pruned %d expired revoked tokens", n)
	}
	s.pruneActivityLog()
	s.pruneSecurityEvents()

	if s.Backups != nil && time.Since(s.lastBackup) >= 24*time.Hour {
		if bi, err := s.Backups.BackupDatabase(s.DBPath); err != nil {
			log.Printf("scheduled backup failed: %v", err)
		} else {
			log.Printf("scheduled backup: %s (%s)", bi.Name, backup.FormatSize(bi.Size))
			s.lastBackup = time.Now()
		}
		if removed := s.Backups.CleanOldBackups(); removed > 0 {
			log.Printf("removed %d expired backups", removed)
		}
	}
}

func (s *Sweeper) pruneActivityLog() {
	if s.ActivityRetentionDays <= 0 {
		return
	}
	res, err := s.DB.Exec(
		fmt.Sprintf("DELETE FROM activity_log WHERE created_at < datetime('now', '-%d days')", s.ActivityRetentionDays),
	)
	if err != nil {
		log.Printf("activity log prune failed: %v", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("pruned %d activity log rows", n)
	}
}

// pruneSecurityEvents trims the security log far beyond the lockout
// window, so pruning can never change a derived lockout answer. The
// cutoff is formatted with the store's own timestamp layout; SQLite's
// datetime() output uses a different separator and would not compare
// correctly against the stored strings.
func (s *Sweeper) pruneSecurityEvents() {
	if s.SecurityRetentionDays <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -s.SecurityRetentionDays).Format(security.TimeLayout)
	res, err := s.DB.Exec("DELETE FROM security_events WHERE created_at < ?", cutoff)
	if err != nil {
		log.Printf("security event prune failed: %v", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("pruned %d security event rows", n)
	}
}
