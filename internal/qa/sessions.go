package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/logger"
	"go.uber.org/zap"
)

// ChatAnswer answers one operator message inside a chat session about
// a ticket, grounded in the ticket's transcripts. A zero sessionID
// starts a new session; a non-zero callID scopes the new session to
// that single call.
func (s *Service) ChatAnswer(ctx context.Context, ticketCode string, sessionID, callID uint, userMsg string) (*models.ChatSession, string, error) {
	session, err := s.loadOrCreateSession(ticketCode, sessionID, callID)
	if err != nil {
		return nil, "", err
	}

	if err := s.db.Create(&models.ChatMessage{
		SessionID: session.ID,
		Role:      openai.ChatMessageRoleUser,
		Content:   userMsg,
	}).Error; err != nil {
		return nil, "", err
	}

	messages, err := s.buildChatContext(session)
	if err != nil {
		return nil, "", err
	}

	answer, err := s.completer.Complete(ctx, s.cfg.ChatModel, messages)
	if err != nil {
		logger.Error("chat completion failed",
			zap.Uint("sessionId", session.ID), zap.Error(err))
		return session, apologyAnswer, nil
	}

	if err := s.db.Create(&models.ChatMessage{
		SessionID: session.ID,
		Role:      openai.ChatMessageRoleAssistant,
		Content:   answer,
	}).Error; err != nil {
		return nil, "", err
	}

	if err := s.maybeSummarize(ctx, session); err != nil {
		logger.Warn("session summarization failed",
			zap.Uint("sessionId", session.ID), zap.Error(err))
	}
	return session, answer, nil
}

func (s *Service) loadOrCreateSession(ticketCode string, sessionID, callID uint) (*models.ChatSession, error) {
	if sessionID != 0 {
		var session models.ChatSession
		if err := s.db.First(&session, sessionID).Error; err != nil {
			return nil, err
		}
		return &session, nil
	}
	session := &models.ChatSession{TicketCode: ticketCode, CallID: callID}
	if err := s.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// buildChatContext assembles the completion messages: the grounding
// transcripts, the rolling summary of folded-out turns, then the live
// (unsummarized) messages in order. Call-scoped sessions only ground
// on their one call's transcript.
func (s *Service) buildChatContext(session *models.ChatSession) ([]openai.ChatCompletionMessage, error) {
	query := s.db.Select("id", "transcription").
		Where("ticket_code = ? AND transcription <> ''", session.TicketCode)
	if session.CallID != 0 {
		query = query.Where("id = ?", session.CallID)
	}
	var recs []models.CallRecord
	if err := query.Order("id asc").Find(&recs).Error; err != nil {
		return nil, err
	}
	var transcripts strings.Builder
	for _, rec := range recs {
		fmt.Fprintf(&transcripts, "--- Call %d ---\n%s\n", rec.ID, rec.Transcription)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt + "\n\nTranscripts:\n" + transcripts.String()},
	}
	if session.Summary != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: "Earlier conversation summary: " + session.Summary,
		})
	}

	var live []models.ChatMessage
	if err := s.db.Where("session_id = ? AND summarized = ?", session.ID, false).
		Order("id asc").
		Find(&live).Error; err != nil {
		return nil, err
	}
	for _, msg := range live {
		messages = append(messages, openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content})
	}
	return messages, nil
}

// maybeSummarize folds the oldest live messages into the session
// summary once more than SummarizeAfter of them have accumulated.
func (s *Service) maybeSummarize(ctx context.Context, session *models.ChatSession) error {
	var liveCount int64
	if err := s.db.Model(&models.ChatMessage{}).
		Where("session_id = ? AND summarized = ?", session.ID, false).
		Count(&liveCount).Error; err != nil {
		return err
	}
	if liveCount <= int64(s.cfg.SummarizeAfter) {
		return nil
	}

	var oldest []models.ChatMessage
	if err := s.db.Where("session_id = ? AND summarized = ?", session.ID, false).
		Order("id asc").
		Limit(s.cfg.SummarizeBatch).
		Find(&oldest).Error; err != nil {
		return err
	}

	var sb strings.Builder
	if session.Summary != "" {
		fmt.Fprintf(&sb, "Previous summary: %s\n\n", session.Summary)
	}
	for _, msg := range oldest {
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
	}

	summary, err := s.completer.Complete(ctx, s.cfg.SummaryModel, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: sessionSummaryPrompt},
		{Role: openai.ChatMessageRoleUser, Content: sb.String()},
	})
	if err != nil {
		return err
	}

	ids := make([]uint, 0, len(oldest))
	for _, msg := range oldest {
		ids = append(ids, msg.ID)
	}
	if err := s.db.Model(&models.ChatMessage{}).
		Where("id IN ?", ids).
		Update("summarized", true).Error; err != nil {
		return err
	}

	session.Summary = summary
	return s.db.Model(&models.ChatSession{}).
		Where("id = ?", session.ID).
		Update("summary", summary).Error
}
