package qa

import (
	"context"
	"fmt"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/travelops/callscore/internal/models"
)

func TestChatAnswerCreatesSessionAndMessages(t *testing.T) {
	completer := &fakeCompleter{reply: "the customer asked about Rome"}
	svc, db := newTestService(t, &fakeEmbedder{}, completer)

	rec := &models.CallRecord{TicketCode: "T-20", Transcription: "agent: hello. customer: I want Rome."}
	assert.NoError(t, db.Create(rec).Error)

	session, answer, err := svc.ChatAnswer(context.Background(), "T-20", 0, 0, "what did they want?")
	assert.NoError(t, err)
	assert.NotZero(t, session.ID)
	assert.Equal(t, "the customer asked about Rome", answer)

	// Transcript grounding reached the model.
	assert.Contains(t, completer.got[0].Content, "I want Rome.")

	var count int64
	assert.NoError(t, db.Model(&models.ChatMessage{}).Where("session_id = ?", session.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestChatAnswerReusesSession(t *testing.T) {
	completer := &fakeCompleter{reply: "answer"}
	svc, db := newTestService(t, &fakeEmbedder{}, completer)

	first, _, err := svc.ChatAnswer(context.Background(), "T-21", 0, 0, "one")
	assert.NoError(t, err)
	second, _, err := svc.ChatAnswer(context.Background(), "T-21", first.ID, 0, "two")
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	assert.NoError(t, db.Model(&models.ChatSession{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestChatAnswerCallScopedSession(t *testing.T) {
	completer := &fakeCompleter{reply: "scoped answer"}
	svc, db := newTestService(t, &fakeEmbedder{}, completer)

	other := &models.CallRecord{TicketCode: "T-24", Transcription: "customer wants Paris"}
	assert.NoError(t, db.Create(other).Error)
	target := &models.CallRecord{TicketCode: "T-24", Transcription: "customer wants Tokyo"}
	assert.NoError(t, db.Create(target).Error)

	session, _, err := svc.ChatAnswer(context.Background(), "T-24", 0, target.ID, "where to?")
	assert.NoError(t, err)
	assert.Equal(t, target.ID, session.CallID)

	// Only the scoped call's transcript grounds the model.
	assert.Contains(t, completer.got[0].Content, "customer wants Tokyo")
	assert.NotContains(t, completer.got[0].Content, "customer wants Paris")
}

func TestMaybeSummarizeFoldsOldestMessages(t *testing.T) {
	completer := &fakeCompleter{reply: "rolling summary"}
	svc, db := newTestService(t, &fakeEmbedder{}, completer)

	session := &models.ChatSession{TicketCode: "T-22"}
	assert.NoError(t, db.Create(session).Error)
	for i := 0; i < 11; i++ {
		assert.NoError(t, db.Create(&models.ChatMessage{
			SessionID: session.ID,
			Role:      openai.ChatMessageRoleUser,
			Content:   fmt.Sprintf("message %d", i),
		}).Error)
	}

	assert.NoError(t, svc.maybeSummarize(context.Background(), session))

	var folded int64
	assert.NoError(t, db.Model(&models.ChatMessage{}).
		Where("session_id = ? AND summarized = ?", session.ID, true).
		Count(&folded).Error)
	assert.Equal(t, int64(6), folded)

	var reloaded models.ChatSession
	assert.NoError(t, db.First(&reloaded, session.ID).Error)
	assert.Equal(t, "rolling summary", reloaded.Summary)

	// Oldest messages were the ones folded.
	var oldest models.ChatMessage
	assert.NoError(t, db.Where("session_id = ?", session.ID).Order("id asc").First(&oldest).Error)
	assert.True(t, oldest.Summarized)
}

func TestMaybeSummarizeBelowThresholdIsNoop(t *testing.T) {
	completer := &fakeCompleter{reply: "should not be used"}
	svc, db := newTestService(t, &fakeEmbedder{}, completer)

	session := &models.ChatSession{TicketCode: "T-23"}
	assert.NoError(t, db.Create(session).Error)
	for i := 0; i < 5; i++ {
		assert.NoError(t, db.Create(&models.ChatMessage{SessionID: session.ID, Role: "user", Content: "m"}).Error)
	}

	assert.NoError(t, svc.maybeSummarize(context.Background(), session))

	var reloaded models.ChatSession
	assert.NoError(t, db.First(&reloaded, session.ID).Error)
	assert.Empty(t, reloaded.Summary)
}
