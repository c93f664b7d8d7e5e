package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/travelops/callscore/internal/models"
	"github.com/travelops/callscore/pkg/config"
	"gorm.io/gorm"
)

type fakeSplitter struct {
	paths []string
	err   error
}

func (f *fakeSplitter) SplitFile(_ context.Context, _, _ string) ([]string, error) {
	return f.paths, f.err
}

type fakeTranscriber struct {
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeTranscriber) TranscribeFile(_ context.Context, path string) (string, error) {
	f.calls = append(f.calls, path)
	if err, ok := f.errs[path]; ok {
		return "", err
	}
	return f.texts[path], nil
}

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, _ []openai.ChatCompletionMessage) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeIndex struct {
	built []uint
}

func (f *fakeIndex) BuildIndex(_ context.Context, rec *models.CallRecord) error {
	f.built = append(f.built, rec.ID)
	return nil
}

type fakeDeliverer struct {
	ok        bool
	err       error
	gotTicket string
	gotBody   string
}

func (f *fakeDeliverer) PostMessage(_ context.Context, ticketCode, body string) (bool, error) {
	f.gotTicket = ticketCode
	f.gotBody = body
	return f.ok, f.err
}

const goodAnalysis = `{"summary":"booked a trip","destination":"Rome",` +
	`"exchange_rate_resistance":"YES","exchange_rate_resistance_details":"pushed back on the THB rate",` +
	`"competitors_mentioned":"YES","competitor_names":"TravelWiz",` +
	`"payment_terms_resistance":"NO","cancellation_policy_resistance":"NO",` +
	`"agent_advised_independent_booking":"NO",` +
	`"service_score":{"expected_satisfaction":7}}`

func newTestPipeline(t *testing.T, splitter AudioSplitter, tr ChunkTranscriber, llm Completer, deliverer Deliverer) (*Pipeline, *gorm.DB, *fakeIndex) {
	t.Helper()
	db := models.SetupTestDB(t, models.AllEntities()...)
	cfg := &config.Config{
		ChatModel:          "test-model",
		UploadDir:          t.TempDir(),
		TranscriptLinkBase: "https://scores.example.com/calls",
	}
	idx := &fakeIndex{}
	p := New(db, cfg, splitter, tr, llm, idx, deliverer)
	p.Spawn = func(_ string, fn func()) { fn() }
	return p, db, idx
}

func createRecord(t *testing.T, db *gorm.DB, rec *models.CallRecord) *models.CallRecord {
	t.Helper()
	assert.NoError(t, db.Create(rec).Error)
	return rec
}

func TestTranscribeConcatenatesChunksInOrder(t *testing.T) {
	tr := &fakeTranscriber{texts: map[string]string{
		"a.mp3": "part A",
		"b.mp3": "part B\nline two",
		"c.mp3": "part C",
	}}
	llm := &fakeCompleter{reply: goodAnalysis}
	p, db, idx := newTestPipeline(t, &fakeSplitter{}, tr, llm, &fakeDeliverer{})

	rec := createRecord(t, db, &models.CallRecord{
		TicketCode: "T-1",
		Stage:      models.StageChunked,
		ChunkPaths: models.EncodeJSON([]string{"a.mp3", "b.mp3", "c.mp3"}),
	})

	assert.NoError(t, p.Transcribe(context.Background(), rec))

	assert.Equal(t, []string{"a.mp3", "b.mp3", "c.mp3"}, tr.calls)

	var reloaded models.CallRecord
	assert.NoError(t, db.First(&reloaded, rec.ID).Error)
	assert.Equal(t, "part A\r\n\r\npart B\r\nline two\r\n\r\npart C\r\n\r\n", reloaded.Transcription)
	// Detached analysis ran synchronously and completed the record.
	assert.Equal(t, models.StageComplete, reloaded.Stage)
	assert.Equal(t, []uint{rec.ID}, idx.built)
}

func TestTranscribeSkipsFailingChunk(t *testing.T) {
	tr := &fakeTranscriber{
		texts: map[string]string{"a.mp3": "first", "c.mp3": "third"},
		errs:  map[string]error{"b.mp3": errors.New("provider down")},
	}
	p, db, _ := newTestPipeline(t, &fakeSplitter{}, tr, &fakeCompleter{reply: goodAnalysis}, &fakeDeliverer{})

	rec := createRecord(t, db, &models.CallRecord{
		TicketCode: "T-2",
		Stage:      models.StageChunked,
		ChunkPaths: models.EncodeJSON([]string{"a.mp3", "b.mp3", "c.mp3"}),
	})

	assert.NoError(t, p.Transcribe(context.Background(), rec))

	var reloaded models.CallRecord
	assert.NoError(t, db.First(&reloaded, rec.ID).Error)
	assert.Equal(t, "first\r\n\r\nthird\r\n\r\n", reloaded.Transcription)
}

func TestTranscribeBlankAggregateFails(t *testing.T) {
	tr := &fakeTranscriber{errs: map[string]error{
		"a.mp3": errors.New("boom"),
		"b.mp3": errors.New("boom"),
	}}
	p, db, idx := newTestPipeline(t, &fakeSplitter{}, tr, &fakeCompleter{reply: goodAnalysis}, &fakeDeliverer{})

	rec := createRecord(t, db, &models.CallRecord{
		TicketCode: "T-3",
		Stage:      models.StageChunked,
		ChunkPaths: models.EncodeJSON([]string{"a.mp3", "b.mp3"}),
	})

	err := p.Transcribe(context.Background(), rec)
	assert.ErrorIs(t, err, ErrNoTranscription)

	var reloaded models.CallRecord
	assert.NoError(t, db.First(&reloaded, rec.ID).Error)
	assert.Equal(t, models.StageTranscribeError, reloaded.Stage)
	assert.Empty(t, idx.built)
}

func TestChunkFailureParksRecord(t *testing.T) {
	splitter := &fakeSplitter{err: errors.New("no chunk files were created")}
	p, db, _ := newTestPipeline(t, splitter, &fakeTranscriber{}, &fakeCompleter{}, &fakeDeliverer{})

	rec := createRecord(t, db, &models.CallRecord{
		TicketCode: "T-4",
		Stage:      models.StageReceived,
		FilePath:   "/tmp/missing.mp3",
	})

	assert.Error(t, p.Chunk(context.Background(), rec))

	var reloaded models.CallRecord
	assert.NoError(t, db.First(&reloaded, rec.ID).Error)
	assert.Equal(t, models.StageChunkError, reloaded.Stage)
	assert.Contains(t, reloaded.StageError, "no chunk files")
}

func TestAnalyzeStoresExtract(t *testing.T) {
	llm := &fakeCompleter{reply: goodAnalysis}
	p, db, _ := newTestPipeline(t, &fakeSplitter{}, &fakeTranscriber{}, llm, &fakeDeliverer{})

	rec := createRecord(t, db, &models.CallRecord{
		TicketCode:    "T-5",
		Stage:         models.StageTranscribed,
		Transcription: "hello",
	})

	assert.NoError(t, p.Analyze(context.Background(), rec))

	var reloaded models.CallRecord
	assert.NoError(t, db.First(&reloaded, rec.ID).Error)
	assert.Equal(t, models.StageComplete, reloaded.Stage)
	assert.Equal(t, 7, reloaded.Satisfaction)

	var ex models.AnalysisExtract
	assert.NoError(t, db.Where("call_record_id = ?", rec.ID).First(&ex).Error)
	assert.Equal(t, "booked a trip", ex.Summary)
	assert.Equal(t, "Rome", ex.Destination)
	assert.Equal(t, "YES", ex.ExchangeRateResistance)
	assert.Equal(t, "pushed back on the THB rate", ex.ExchangeRateDetails)
	assert.Equal(t, "YES", ex.CompetitorsMentioned)
	assert.Equal(t, "TravelWiz", ex.CompetitorNames)
	assert.Equal(t, "NO", ex.PaymentTermsResistance)
	assert.Equal(t, "NO", ex.CancellationPolicyResistance)
	assert.Equal(t, "NO", ex.AdvisedIndependentBooking)
}

func TestAnalyzeNormalizesBooleanFlags(t *testing.T) {
	llm := &fakeCompleter{reply: `{"summary":"s",` +
		`"exchange_rate_resistance":true,"competitors_mentioned":false,` +
		`"payment_terms_resistance":true,"cancellation_policy_resistance":false,` +
		`"agent_advised_independent_booking":true}`}
	p, db, _ := newTestPipeline(t, &fakeSplitter{}, &fakeTranscriber{}, llm, &fakeDeliverer{})

	rec := createRecord(t, db, &models.CallRecord{TicketCode: "T-5b", Transcription: "x"})

	assert.NoError(t, p.Analyze(context.Background(), rec))

	var ex models.AnalysisExtract
	assert.NoError(t, db.Where("call_record_id = ?", rec.ID).First(&ex).Error)
	assert.Equal(t, "YES", ex.ExchangeRateResistance)
	assert.Equal(t, "NO", ex.CompetitorsMentioned)
	assert.Equal(t, "YES", ex.PaymentTermsResistance)
	assert.Equal(t, "NO", ex.CancellationPolicyResistance)
	assert.Equal(t, "YES", ex.AdvisedIndependentBooking)
}

func TestAnalyzeUpsertIsIdempotent(t *testing.T) {
	llm := &fakeCompleter{reply: goodAnalysis}
	p, db, _ := newTestPipeline(t, &fakeSplitter{}, &fakeTranscriber{}, llm, &fakeDeliverer{})

	rec := createRecord(t, db, &models.CallRecord{TicketCode: "T-6", Transcription: "x"})

	assert.NoError(t, p.Analyze(context.Background(), rec))
	assert.NoError(t, p.Analyze(context.Background(), rec))

	var count int64
	assert.NoError(t, db.Model(&models.AnalysisExtract{}).Where("call_record_id = ?", rec.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAnalyzeFallsBackToRawSummary(t *testing.T) {
	llm := &fakeCompleter{reply: "the model rambled instead of returning JSON"}
	p, db, _ := newTestPipeline(t, &fakeSplitter{}, &fakeTranscriber{}, llm, &fakeDeliverer{})

	rec := createRecord(t, db, &models.CallRecord{TicketCode: "T-7", Transcription: "x"})

	assert.NoError(t, p.Analyze(context.Background(), rec))

	var ex models.AnalysisExtract
	assert.NoError(t, db.Where("call_record_id = ?", rec.ID).First(&ex).Error)
	assert.Equal(t, "the model rambled instead of returning JSON", ex.Summary)
	assert.Equal(t, 0, ex.Satisfaction)
}

func TestAnalyzeProviderFailure(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("overloaded")}
	p, db, _ := newTestPipeline(t, &fakeSplitter{}, &fakeTranscriber{}, llm, &fakeDeliverer{})

	rec := createRecord(t, db, &models.CallRecord{TicketCode: "T-8", Transcription: "x"})

	assert.Error(t, p.Analyze(context.Background(), rec))

	var reloaded models.CallRecord
	assert.NoError(t, db.First(&reloaded, rec.ID).Error)
	assert.Equal(t, models.StageAnalyzeError, reloaded.Stage)
}

func TestDeliverFlipsForwardedFlagOnAck(t *testing.T) {
	deliverer := &fakeDeliverer{ok: true}
	p, db, _ := newTestPipeline(t, &fakeSplitter{}, &fakeTranscriber{}, &fakeCompleter{}, deliverer)

	rec := createRecord(t, db, &models.CallRecord{
		TicketCode: "T-9",
		Payload: `{"Direction":"OUT","StartTimeUTC":"2026-08-26 09:00:00","EndTimeUTC":"2026-08-26 09:05:14",` +
			`"Duration":"314","Contact":"+97250000001","Agent":"102","Username":"agent@agency.example.com"}`,
	})

	assert.NoError(t, p.Deliver(context.Background(), rec))

	assert.Equal(t, "T-9", deliverer.gotTicket)
	assert.Equal(t, "Call type: OUT, Start time: 2026-08-26 09:00:00, End time: 2026-08-26 09:05:14, "+
		"Duration: 314 seconds, Customer Number: +97250000001, Called From: 102, "+
		"User: agent@agency.example.com, "+
		fmt.Sprintf("transcript: https://scores.example.com/calls/%d", rec.ID), deliverer.gotBody)

	var reloaded models.CallRecord
	assert.NoError(t, db.First(&reloaded, rec.ID).Error)
	assert.True(t, reloaded.ForwardedToTicket)
}

func TestDeliverWithoutAckLeavesFlag(t *testing.T) {
	deliverer := &fakeDeliverer{ok: false}
	p, db, _ := newTestPipeline(t, &fakeSplitter{}, &fakeTranscriber{}, &fakeCompleter{}, deliverer)

	rec := createRecord(t, db, &models.CallRecord{TicketCode: "T-10"})

	assert.NoError(t, p.Deliver(context.Background(), rec))

	var reloaded models.CallRecord
	assert.NoError(t, db.First(&reloaded, rec.ID).Error)
	assert.False(t, reloaded.ForwardedToTicket)
}

func TestParseAnalysisUnwrapsFences(t *testing.T) {
	m := parseAnalysis("```json\n{\"summary\":\"ok\"}\n```")
	assert.Equal(t, "ok", m["summary"])
}

func TestYesNoNormalization(t *testing.T) {
	assert.Equal(t, "YES", yesNo("yes"))
	assert.Equal(t, "YES", yesNo("YES"))
	assert.Equal(t, "NO", yesNo("no"))
	assert.Equal(t, "YES", yesNo(true))
	assert.Equal(t, "NO", yesNo(nil))
	assert.Equal(t, "NO", yesNo("maybe"))
}
