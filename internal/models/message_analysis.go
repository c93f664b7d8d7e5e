package models

import "time"

// MessageAnalysis statuses. The analysis chain advances each row one
// status per sweep.
const (
	MessageStatusCollected  = 0
	MessageStatusAttached   = 1
	MessageStatusSummarized = 2
	MessageStatusAnalyzed   = 3
)

// MessageAnalysis tracks the per-ticket WhatsApp analysis chain:
// collect the ticket, attach its messages, summarize, analyze.
type MessageAnalysis struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	TicketCode string `json:"ticketCode" gorm:"size:100;uniqueIndex:idx_msg_analysis_ticket_day"`
	Day        string `json:"day" gorm:"size:10;uniqueIndex:idx_msg_analysis_ticket_day"`
	Phone      string `json:"phone" gorm:"size:64;index"`

	Messages string `json:"messages,omitempty" gorm:"type:text"`
	Summary  string `json:"summary,omitempty" gorm:"type:text"`
	Analysis string `json:"analysis,omitempty" gorm:"type:text"`

	Status int  `json:"status" gorm:"index"`
	Sent   bool `json:"sent" gorm:"index"`
}

func (MessageAnalysis) TableName() string {
	return "message_analyses"
}

// MessageExtract is the flattened form of a message-thread analysis,
// mirroring AnalysisExtract for calls.
type MessageExtract struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	MessageAnalysisID uint   `json:"messageAnalysisId" gorm:"uniqueIndex"`
	TicketCode        string `json:"ticketCode" gorm:"size:100;index"`

	Summary      string `json:"summary" gorm:"type:text"`
	Satisfaction int    `json:"satisfaction"`

	ExchangeRateResistance       string `json:"exchangeRateResistance" gorm:"size:10"`
	ExchangeRateDetails          string `json:"exchangeRateDetails,omitempty" gorm:"size:1000"`
	CompetitorsMentioned         string `json:"competitorsMentioned" gorm:"size:10"`
	CompetitorNames              string `json:"competitorNames,omitempty" gorm:"size:1000"`
	PaymentTermsResistance       string `json:"paymentTermsResistance" gorm:"size:10"`
	PaymentTermsDetails          string `json:"paymentTermsDetails,omitempty" gorm:"size:1000"`
	CancellationPolicyResistance string `json:"cancellationPolicyResistance" gorm:"size:10"`
	CancellationPolicyDetails    string `json:"cancellationPolicyDetails,omitempty" gorm:"size:1000"`
	AdvisedIndependentBooking    string `json:"advisedIndependentBooking" gorm:"size:10"`
	AdvisedIndependentDetails    string `json:"advisedIndependentDetails,omitempty" gorm:"size:1000"`
}

func (MessageExtract) TableName() string {
	return "message_extracts"
}
