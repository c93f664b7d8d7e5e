package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/travelops/callscore/internal/models"
)

func TestRunMessageChainFullPass(t *testing.T) {
	llm := &fakeCompleter{reply: goodAnalysis}
	p, db, _ := newTestPipeline(t, &fakeSplitter{}, &fakeTranscriber{}, llm, &fakeDeliverer{})
	p.cfg.SummaryModel = "summary-model"

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, body := range []string{"hi, looking for a trip to Rome", "sure, sending options"} {
		assert.NoError(t, db.Create(&models.WhatsAppMessage{
			TicketCode: "T-30",
			Phone:      "+972500000000",
			Sender:     "customer",
			Body:       body,
		}).Error)
	}

	p.RunMessageChain(context.Background(), dayStart)

	var row models.MessageAnalysis
	assert.NoError(t, db.Where("ticket_code = ?", "T-30").First(&row).Error)
	assert.Equal(t, models.MessageStatusAnalyzed, row.Status)
	assert.NotEmpty(t, row.Messages)
	assert.NotEmpty(t, row.Summary)
	assert.NotEmpty(t, row.Analysis)

	var ex models.MessageExtract
	assert.NoError(t, db.Where("message_analysis_id = ?", row.ID).First(&ex).Error)
	assert.Equal(t, "booked a trip", ex.Summary)
	assert.Equal(t, 7, ex.Satisfaction)
	assert.Equal(t, "YES", ex.ExchangeRateResistance)
	assert.Equal(t, "TravelWiz", ex.CompetitorNames)
	assert.Equal(t, "NO", ex.AdvisedIndependentBooking)
}

func TestRunMessageChainIsIdempotentPerDay(t *testing.T) {
	llm := &fakeCompleter{reply: goodAnalysis}
	p, db, _ := newTestPipeline(t, &fakeSplitter{}, &fakeTranscriber{}, llm, &fakeDeliverer{})

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	assert.NoError(t, db.Create(&models.WhatsAppMessage{TicketCode: "T-31", Sender: "customer", Body: "hello"}).Error)

	p.RunMessageChain(context.Background(), dayStart)
	p.RunMessageChain(context.Background(), dayStart)

	var count int64
	assert.NoError(t, db.Model(&models.MessageAnalysis{}).Where("ticket_code = ?", "T-31").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
