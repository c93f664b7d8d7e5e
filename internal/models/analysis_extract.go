package models

import "time"

// AnalysisExtract is the flattened, queryable form of a call analysis.
// YES/NO columns answer "did this happen on the call", each paired
// with a free-text details column. One row per call, upserted.
type AnalysisExtract struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	CallRecordID uint   `json:"callRecordId" gorm:"uniqueIndex"`
	TicketCode   string `json:"ticketCode" gorm:"size:100;index"`

	Summary      string `json:"summary" gorm:"type:text"`
	Satisfaction int    `json:"satisfaction"`
	Destination  string `json:"destination,omitempty" gorm:"size:200"`

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

func (AnalysisExtract) TableName() string {
	return "analysis_extracts"
}
