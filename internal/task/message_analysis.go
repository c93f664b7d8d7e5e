package task

import (
	"context"
	"time"

	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/internal/pipeline"
	"github.com/travelops/callscore/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartMessageAnalysis schedules the WhatsApp thread analysis chain,
// which processes the previous day's messages.
func StartMessageAnalysis(db *gorm.DB, p *pipeline.Pipeline, schedule string) {
	startSweep(db, "message_analysis", schedule, func() {
		runMessageSweep(db, p)
	})
}

func runMessageSweep(db *gorm.DB, p *pipeline.Pipeline) {
	if err := models.RecordCronRun(db, "message_analysis", ""); err != nil {
		logger.Warn("failed to write cron audit entry", zap.String("job", "message_analysis"), zap.Error(err))
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.Add(-24 * time.Hour)

	p.RunMessageChain(context.Background(), yesterday)
}
