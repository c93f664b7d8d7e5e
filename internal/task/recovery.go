package task

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/internal/pipeline"
	"github.com/travelops/callscore/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartChunkRetry schedules the recovery sweep for calls parked in
// CHUNK_ERROR.
func StartChunkRetry(db *gorm.DB, p *pipeline.Pipeline, schedule string) {
	startSweep(db, "chunk_retry", schedule, func() {
		runRecoverySweep(db, "chunk_retry", models.StageChunkError, models.StageChunkRetried,
			func(ctx context.Context, rec *models.CallRecord) error {
				return p.Chunk(ctx, rec)
			})
	})
}

// StartTranscribeRetry schedules the recovery sweep for calls parked
// in TRANSCRIBE_ERROR.
func StartTranscribeRetry(db *gorm.DB, p *pipeline.Pipeline, schedule string) {
	startSweep(db, "transcribe_retry", schedule, func() {
		runRecoverySweep(db, "transcribe_retry", models.StageTranscribeError, models.StageTranscribeRetried,
			func(ctx context.Context, rec *models.CallRecord) error {
				return p.Transcribe(ctx, rec)
			})
	})
}

// StartAnalysisRetry schedules the recovery sweep for calls parked in
// ANALYZE_ERROR.
func StartAnalysisRetry(db *gorm.DB, p *pipeline.Pipeline, schedule string) {
	startSweep(db, "analysis_retry", schedule, func() {
		runRecoverySweep(db, "analysis_retry", models.StageAnalyzeError, models.StageAnalyzeRetried,
			func(ctx context.Context, rec *models.CallRecord) error {
				return p.Analyze(ctx, rec)
			})
	})
}

func startSweep(db *gorm.DB, job, schedule string, fn func()) {
	c := cron.New()
	_, err := c.AddFunc(schedule, fn)
	if err != nil {
		logger.Error("failed to add cron job", zap.String("job", job), zap.Error(err))
		return
	}
	c.Start()
	logger.Info("cron job started", zap.String("job", job), zap.String("schedule", schedule))
}

// runRecoverySweep retries at most one parked record. The record is
// claimed by flipping its error stage to the retried stage first, so a
// concurrent sweep cannot pick it up; if the retry fails again the
// record stays parked in the retried stage instead of being selected
// forever.
func runRecoverySweep(db *gorm.DB, job, errStage, retriedStage string, retry func(ctx context.Context, rec *models.CallRecord) error) {
	if err := models.RecordCronRun(db, job, ""); err != nil {
		logger.Warn("failed to write cron audit entry", zap.String("job", job), zap.Error(err))
	}

	var rec models.CallRecord
	err := db.Where("stage = ?", errStage).Order("id asc").First(&rec).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("recovery sweep query failed", zap.String("job", job), zap.Error(err))
		}
		return
	}

	won, err := models.UpdateStage(db, rec.ID, errStage, retriedStage)
	if err != nil {
		logger.Error("failed to claim record for retry", zap.String("job", job), zap.Uint("callId", rec.ID), zap.Error(err))
		return
	}
	if !won {
		return
	}
	rec.Stage = retriedStage

	logger.Info("retrying parked call", zap.String("job", job), zap.Uint("callId", rec.ID))
	if err := retry(context.Background(), &rec); err != nil {
		logger.Warn("retry failed, parking record", zap.String("job", job), zap.Uint("callId", rec.ID), zap.Error(err))
		// The stage function put the record back into the error stage;
		// park it so the next sweep moves on to another record.
		if _, uerr := models.UpdateStage(db, rec.ID, errStage, retriedStage); uerr != nil {
			logger.Error("failed to park record", zap.String("job", job), zap.Uint("callId", rec.ID), zap.Error(uerr))
		}
	}
}
