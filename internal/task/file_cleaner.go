package task

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartFileCleaner schedules removal of recordings and chunk folders
// older than the retention window. Normally the pipeline deletes its
// own files after transcription; this sweep catches what error paths
// left behind.
func StartFileCleaner(db *gorm.DB, uploadDir string, schedule string, retentionDays int) {
	startSweep(db, "file_cleanup", schedule, func() {
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		runFileCleanup(db, uploadDir, cutoff)
	})
}

func runFileCleanup(db *gorm.DB, uploadDir string, cutoff time.Time) {
	if err := models.RecordCronRun(db, "file_cleanup", ""); err != nil {
		logger.Warn("failed to write cron audit entry", zap.String("job", "file_cleanup"), zap.Error(err))
	}

	removed := cleanOldRecordings(uploadDir, cutoff)
	removed += cleanOldChunkDirs(filepath.Join(uploadDir, "chunks"), cutoff)
	if removed > 0 {
		logger.Info("stale media removed", zap.Int("count", removed))
	}
}

func cleanOldRecordings(dir string, cutoff time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".mp3") {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.Warn("failed to remove stale recording", zap.String("file", path), zap.Error(err))
			continue
		}
		removed++
	}
	return removed
}

func cleanOldChunkDirs(dir string, cutoff time.Time) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("failed to remove stale chunk dir", zap.String("dir", path), zap.Error(err))
			continue
		}
		removed++
	}
	return removed
}
