package models

import "gorm.io/gorm"

// Processing stages of a call record. Each phase has a success state,
// an error state, and a retried state the recovery sweeps move error
// records into so a record is never retried twice automatically.
const (
	StageReceived = "RECEIVED"

	StageChunking     = "CHUNKING"
	StageChunkError   = "CHUNK_ERROR"
	StageChunkRetried = "CHUNK_RETRIED"
	StageChunked      = "CHUNKED"

	StageTranscribing      = "TRANSCRIBING"
	StageTranscribeError   = "TRANSCRIBE_ERROR"
	StageTranscribeRetried = "TRANSCRIBE_RETRIED"
	StageTranscribed       = "TRANSCRIBED"

	StageAnalyzing      = "ANALYZING"
	StageAnalyzeError   = "ANALYZE_ERROR"
	StageAnalyzeRetried = "ANALYZE_RETRIED"
	StageComplete       = "COMPLETE"
)

// UpdateStage moves a record from one stage to another with an
// optimistic guard: the UPDATE only matches when the record is still
// in the expected stage, so concurrent writers cannot clobber each
// other. The returned bool reports whether this caller won.
func UpdateStage(db *gorm.DB, id uint, from, to string) (bool, error) {
	res := db.Model(&CallRecord{}).
		Where("id = ? AND stage = ?", id, from).
		Update("stage", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetStage writes a stage unconditionally, together with an optional
// error note. Used by the stage functions themselves, which own the
// record while it is in a working state.
func SetStage(db *gorm.DB, id uint, stage, stageError string) error {
	return db.Model(&CallRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{"stage": stage, "stage_error": stageError}).Error
}
