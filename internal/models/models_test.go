package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateStageOptimistic(t *testing.T) {
	db := SetupTestDB(t, AllEntities()...)

	rec := &CallRecord{TicketCode: "T-100", Stage: StageTranscribeError}
	assert.NoError(t, db.Create(rec).Error)

	won, err := UpdateStage(db, rec.ID, StageTranscribeError, StageTranscribeRetried)
	assert.NoError(t, err)
	assert.True(t, won)

	// A second writer expecting the old stage loses.
	won, err = UpdateStage(db, rec.ID, StageTranscribeError, StageTranscribeRetried)
	assert.NoError(t, err)
	assert.False(t, won)

	var reloaded CallRecord
	assert.NoError(t, db.First(&reloaded, rec.ID).Error)
	assert.Equal(t, StageTranscribeRetried, reloaded.Stage)
}

func TestSetStageWritesErrorNote(t *testing.T) {
	db := SetupTestDB(t, AllEntities()...)

	rec := &CallRecord{TicketCode: "T-101", Stage: StageChunking}
	assert.NoError(t, db.Create(rec).Error)

	assert.NoError(t, SetStage(db, rec.ID, StageChunkError, "ffmpeg exploded"))

	var reloaded CallRecord
	assert.NoError(t, db.First(&reloaded, rec.ID).Error)
	assert.Equal(t, StageChunkError, reloaded.Stage)
	assert.Equal(t, "ffmpeg exploded", reloaded.StageError)
}

func TestDecodeStringSliceLenient(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, DecodeStringSlice(`["a","b"]`))
	assert.Nil(t, DecodeStringSlice(""))
	assert.Nil(t, DecodeStringSlice("not json"))
	assert.Nil(t, DecodeStringSlice(`{"a":1}`))
}

func TestDecodeMapLenient(t *testing.T) {
	m := DecodeMap(`{"summary":"ok"}`)
	assert.Equal(t, "ok", m["summary"])
	assert.Nil(t, DecodeMap("broken{"))
	assert.Nil(t, DecodeMap(""))
}

func TestRecordCronRun(t *testing.T) {
	db := SetupTestDB(t, AllEntities()...)

	assert.NoError(t, RecordCronRun(db, "transcribe_retry", "sweep"))

	var entries []CronAuditEntry
	assert.NoError(t, db.Find(&entries).Error)
	assert.Len(t, entries, 1)
	assert.Equal(t, "transcribe_retry", entries[0].Job)
}
