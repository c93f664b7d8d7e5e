package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/logger"
	"go.uber.org/zap"
)

// RunMessageChain advances the WhatsApp analysis chain one full pass
// for the given day: collect tickets, attach messages, summarize,
// analyze. Each step only touches rows in the preceding status, so a
// failed step is simply retried on the next run.
func (p *Pipeline) RunMessageChain(ctx context.Context, dayStart time.Time) {
	day := dayStart.Format("2006-01-02")
	p.collectThreads(dayStart, day)
	p.attachMessages(day)
	p.summarizeThreads(ctx, day)
	p.analyzeThreads(ctx, day)
}

// collectThreads creates a MessageAnalysis row per ticket that had
// messages during the day.
func (p *Pipeline) collectThreads(dayStart time.Time, day string) {
	var msgs []models.WhatsAppMessage
	if err := p.db.Select("ticket_code", "phone").
		Where("created_at >= ? AND created_at < ? AND ticket_code <> ''", dayStart, dayStart.Add(24*time.Hour)).
		Find(&msgs).Error; err != nil {
		logger.Error("message thread collection failed", zap.Error(err))
		return
	}

	seen := make(map[string]bool)
	for _, msg := range msgs {
		if seen[msg.TicketCode] {
			continue
		}
		seen[msg.TicketCode] = true
		row := models.MessageAnalysis{
			TicketCode: msg.TicketCode,
			Day:        day,
			Phone:      msg.Phone,
			Status:     models.MessageStatusCollected,
		}
		if err := p.db.Where("ticket_code = ? AND day = ?", msg.TicketCode, day).
			FirstOrCreate(&row).Error; err != nil {
			logger.Warn("failed to collect message thread",
				zap.String("ticket", msg.TicketCode), zap.Error(err))
		}
	}
}

// attachMessages stores the ticket's full message list as JSON on rows
// in the collected status.
func (p *Pipeline) attachMessages(day string) {
	var rows []models.MessageAnalysis
	if err := p.db.Where("day = ? AND status = ?", day, models.MessageStatusCollected).
		Find(&rows).Error; err != nil {
		logger.Error("loading collected threads failed", zap.Error(err))
		return
	}

	for _, row := range rows {
		var msgs []models.WhatsAppMessage
		if err := p.db.Where("ticket_code = ?", row.TicketCode).
			Order("id asc").
			Find(&msgs).Error; err != nil {
			logger.Warn("loading thread messages failed", zap.String("ticket", row.TicketCode), zap.Error(err))
			continue
		}
		if err := p.db.Model(&models.MessageAnalysis{}).Where("id = ?", row.ID).Updates(map[string]any{
			"messages": models.EncodeJSON(msgs),
			"status":   models.MessageStatusAttached,
		}).Error; err != nil {
			logger.Warn("attaching thread messages failed", zap.Uint("id", row.ID), zap.Error(err))
		}
	}
}

// summarizeThreads produces the rolling summary for rows with attached
// messages.
func (p *Pipeline) summarizeThreads(ctx context.Context, day string) {
	var rows []models.MessageAnalysis
	if err := p.db.Where("day = ? AND status = ?", day, models.MessageStatusAttached).
		Find(&rows).Error; err != nil {
		logger.Error("loading attached threads failed", zap.Error(err))
		return
	}

	for _, row := range rows {
		var msgs []models.WhatsAppMessage
		if err := decodeMessages(row.Messages, &msgs); err != nil {
			logger.Warn("thread messages unreadable, skipping", zap.Uint("id", row.ID))
			continue
		}

		var sb strings.Builder
		for _, msg := range msgs {
			fmt.Fprintf(&sb, "%s: %s\n", msg.Sender, msg.Body)
		}

		summary, err := p.llm.Complete(ctx, p.cfg.SummaryModel, []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: threadSummaryPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		})
		if err != nil {
			logger.Warn("thread summarization failed", zap.Uint("id", row.ID), zap.Error(err))
			continue
		}

		if err := p.db.Model(&models.MessageAnalysis{}).Where("id = ?", row.ID).Updates(map[string]any{
			"summary": summary,
			"status":  models.MessageStatusSummarized,
		}).Error; err != nil {
			logger.Warn("saving thread summary failed", zap.Uint("id", row.ID), zap.Error(err))
		}
	}
}

func decodeMessages(raw string, out *[]models.WhatsAppMessage) error {
	if raw == "" {
		return fmt.Errorf("no messages stored")
	}
	return json.Unmarshal([]byte(raw), out)
}

// analyzeThreads runs the extraction prompt over summarized threads
// and upserts the flattened extract.
func (p *Pipeline) analyzeThreads(ctx context.Context, day string) {
	var rows []models.MessageAnalysis
	if err := p.db.Where("day = ? AND status = ?", day, models.MessageStatusSummarized).
		Find(&rows).Error; err != nil {
		logger.Error("loading summarized threads failed", zap.Error(err))
		return
	}

	for _, row := range rows {
		raw, err := p.llm.Complete(ctx, p.cfg.ChatModel, []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: messageAnalysisPrompt},
			{Role: openai.ChatMessageRoleUser, Content: row.Summary},
		})
		if err != nil {
			logger.Warn("thread analysis failed", zap.Uint("id", row.ID), zap.Error(err))
			continue
		}

		parsed := parseAnalysis(raw)
		satisfaction := satisfactionOf(parsed)

		if err := p.db.Model(&models.MessageAnalysis{}).Where("id = ?", row.ID).Updates(map[string]any{
			"analysis": models.EncodeJSON(parsed),
			"status":   models.MessageStatusAnalyzed,
		}).Error; err != nil {
			logger.Warn("saving thread analysis failed", zap.Uint("id", row.ID), zap.Error(err))
			continue
		}
		if err := UpsertMessageExtract(p.db, row.ID, row.TicketCode, parsed, satisfaction); err != nil {
			logger.Warn("thread extract upsert failed", zap.Uint("id", row.ID), zap.Error(err))
		}
	}
}
