package task

import (
	"context"

	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/crm"
	"github.com/travelops/callscore/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Pusher is the CRM bulk-ingest surface used by the export sweeps.
type Pusher interface {
	PushCalls(ctx context.Context, items []crm.CallItem) error
	PushMessages(ctx context.Context, items []crm.MessageItem) error
}

// StartCRMExport schedules the export of completed calls and agent
// messages not yet pushed to the CRM.
func StartCRMExport(db *gorm.DB, pusher Pusher, schedule string, batch int) {
	startSweep(db, "crm_export", schedule, func() {
		runCRMExportSweep(context.Background(), db, pusher, batch)
	})
}

func runCRMExportSweep(ctx context.Context, db *gorm.DB, pusher Pusher, batch int) {
	if err := models.RecordCronRun(db, "crm_export", ""); err != nil {
		logger.Warn("failed to write cron audit entry", zap.String("job", "crm_export"), zap.Error(err))
	}
	if batch <= 0 {
		batch = 100
	}

	exportCalls(ctx, db, pusher, batch)
	exportMessages(ctx, db, pusher, batch)
}

func exportCalls(ctx context.Context, db *gorm.DB, pusher Pusher, batch int) {
	var recs []models.CallRecord
	if err := db.Where("sent_to_crm = ? AND stage = ?", false, models.StageComplete).
		Order("id asc").
		Limit(batch).
		Find(&recs).Error; err != nil {
		logger.Error("loading calls for CRM export failed", zap.Error(err))
		return
	}
	if len(recs) == 0 {
		return
	}

	items := make([]crm.CallItem, 0, len(recs))
	ids := make([]uint, 0, len(recs))
	for _, rec := range recs {
		items = append(items, crm.CallItem{
			TicketCode: rec.TicketCode,
			Phone:      rec.Phone,
			Payload:    rec.Payload,
		})
		ids = append(ids, rec.ID)
	}

	if err := pusher.PushCalls(ctx, items); err != nil {
		logger.Error("CRM call export failed", zap.Int("count", len(items)), zap.Error(err))
		return
	}
	if err := db.Model(&models.CallRecord{}).
		Where("id IN ?", ids).
		Update("sent_to_crm", true).Error; err != nil {
		logger.Error("failed to mark exported calls", zap.Error(err))
		return
	}
	logger.Info("calls exported to CRM", zap.Int("count", len(items)))
}

func exportMessages(ctx context.Context, db *gorm.DB, pusher Pusher, batch int) {
	var msgs []models.WhatsAppMessage
	if err := db.Where("sent_to_crm = ? AND from_agent = ?", false, true).
		Order("id asc").
		Limit(batch).
		Find(&msgs).Error; err != nil {
		logger.Error("loading messages for CRM export failed", zap.Error(err))
		return
	}
	if len(msgs) == 0 {
		return
	}

	items := make([]crm.MessageItem, 0, len(msgs))
	ids := make([]uint, 0, len(msgs))
	for _, msg := range msgs {
		items = append(items, crm.MessageItem{
			TicketCode: msg.TicketCode,
			Phone:      msg.Phone,
			Sender:     msg.Sender,
			Body:       msg.Body,
			SentAt:     msg.CreatedAt.Format("2006-01-02 15:04:05"),
		})
		ids = append(ids, msg.ID)
	}

	if err := pusher.PushMessages(ctx, items); err != nil {
		logger.Error("CRM message export failed", zap.Int("count", len(items)), zap.Error(err))
		return
	}
	if err := db.Model(&models.WhatsAppMessage{}).
		Where("id IN ?", ids).
		Update("sent_to_crm", true).Error; err != nil {
		logger.Error("failed to mark exported messages", zap.Error(err))
		return
	}
	logger.Info("messages exported to CRM", zap.Int("count", len(items)))
}
