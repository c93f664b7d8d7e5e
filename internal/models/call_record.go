package models

import (
	"time"
)

// CallRecord is one recorded call moving through the processing
// pipeline. Large derived artifacts (chunk paths, analysis, embedding
// index) are stored as JSON text columns on the row itself.
type CallRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	TicketCode string `json:"ticketCode" gorm:"size:100;index"`
	Phone      string `json:"phone" gorm:"size:64;index"`
	AgentEmail string `json:"agentEmail" gorm:"size:128"`

	RecordingURL string `json:"recordingUrl" gorm:"size:1000"`
	FilePath     string `json:"filePath" gorm:"size:500"`
	ChunkDir     string `json:"chunkDir" gorm:"size:500"`
	ChunkPaths   string `json:"chunkPaths,omitempty" gorm:"type:text"`

	Transcription string `json:"transcription,omitempty" gorm:"type:text"`
	Analysis      string `json:"analysis,omitempty" gorm:"type:text"`
	Embeddings    string `json:"-" gorm:"type:text"`
	Satisfaction  int    `json:"satisfaction"`

	Stage      string `json:"stage" gorm:"size:40;index"`
	StageError string `json:"stageError,omitempty" gorm:"size:2000"`

	Payload string `json:"payload,omitempty" gorm:"type:text"`

	ForwardedToTicket bool `json:"forwardedToTicket"`
	SentToCRM         bool `json:"sentToCrm" gorm:"column:sent_to_crm;index"`
}

func (CallRecord) TableName() string {
	return "call_records"
}

// PendingStages are the stages a call can still progress from without
// operator intervention.
var PendingStages = []string{
	StageReceived, StageChunking, StageChunked,
	StageTranscribing, StageTranscribed, StageAnalyzing,
}
