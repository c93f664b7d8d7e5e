package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/crm"
)

type fakePusher struct {
	calls    [][]crm.CallItem
	messages [][]crm.MessageItem
	err      error
}

func (f *fakePusher) PushCalls(_ context.Context, items []crm.CallItem) error {
	f.calls = append(f.calls, items)
	return f.err
}

func (f *fakePusher) PushMessages(_ context.Context, items []crm.MessageItem) error {
	f.messages = append(f.messages, items)
	return f.err
}

func TestCRMExportMarksSentCalls(t *testing.T) {
	db := models.SetupTestDB(t, models.AllEntities()...)
	pusher := &fakePusher{}

	done := &models.CallRecord{TicketCode: "T-1", Stage: models.StageComplete, Payload: `{"From":"x"}`}
	pending := &models.CallRecord{TicketCode: "T-2", Stage: models.StageTranscribing}
	assert.NoError(t, db.Create(done).Error)
	assert.NoError(t, db.Create(pending).Error)

	runCRMExportSweep(context.Background(), db, pusher, 100)

	assert.Len(t, pusher.calls, 1)
	assert.Len(t, pusher.calls[0], 1)
	assert.Equal(t, "T-1", pusher.calls[0][0].TicketCode)

	var reloaded models.CallRecord
	assert.NoError(t, db.First(&reloaded, done.ID).Error)
	assert.True(t, reloaded.SentToCRM)

	// Incomplete call untouched. Use a fresh struct: GORM reuses a
	// populated destination's primary key as a query condition.
	var pendingReloaded models.CallRecord
	assert.NoError(t, db.First(&pendingReloaded, pending.ID).Error)
	assert.False(t, pendingReloaded.SentToCRM)
}

func TestCRMExportOnlyAgentMessages(t *testing.T) {
	db := models.SetupTestDB(t, models.AllEntities()...)
	pusher := &fakePusher{}

	agent := &models.WhatsAppMessage{TicketCode: "T-3", FromAgent: true, Body: "sent options"}
	customer := &models.WhatsAppMessage{TicketCode: "T-3", FromAgent: false, Body: "thanks"}
	assert.NoError(t, db.Create(agent).Error)
	assert.NoError(t, db.Create(customer).Error)

	runCRMExportSweep(context.Background(), db, pusher, 100)

	assert.Len(t, pusher.messages, 1)
	assert.Len(t, pusher.messages[0], 1)
	assert.Equal(t, "sent options", pusher.messages[0][0].Body)

	var reloaded models.WhatsAppMessage
	assert.NoError(t, db.First(&reloaded, customer.ID).Error)
	assert.False(t, reloaded.SentToCRM)
}

func TestCRMExportFailureLeavesFlags(t *testing.T) {
	db := models.SetupTestDB(t, models.AllEntities()...)
	pusher := &fakePusher{err: errors.New("crm down")}

	rec := &models.CallRecord{TicketCode: "T-4", Stage: models.StageComplete}
	assert.NoError(t, db.Create(rec).Error)

	runCRMExportSweep(context.Background(), db, pusher, 100)

	var reloaded models.CallRecord
	assert.NoError(t, db.First(&reloaded, rec.ID).Error)
	assert.False(t, reloaded.SentToCRM)
}

func TestCRMExportRespectsBatchLimit(t *testing.T) {
	db := models.SetupTestDB(t, models.AllEntities()...)
	pusher := &fakePusher{}

	for i := 0; i < 5; i++ {
		assert.NoError(t, db.Create(&models.CallRecord{TicketCode: "T-5", Stage: models.StageComplete}).Error)
	}

	runCRMExportSweep(context.Background(), db, pusher, 3)

	assert.Len(t, pusher.calls, 1)
	assert.Len(t, pusher.calls[0], 3)
}
