package models

import "time"

// CallQA is one answered question over a ticket's calls, kept for
// auditing which transcript chunks backed the answer.
type CallQA struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`

	TicketCode string `json:"ticketCode" gorm:"size:100;index"`
	// CallIDs is the JSON array of call record ids whose chunks backed
	// the answer.
	CallIDs  string `json:"callIds,omitempty" gorm:"type:text"`
	Question string `json:"question" gorm:"type:text"`
	Answer   string `json:"answer" gorm:"type:text"`
	Context  string `json:"context,omitempty" gorm:"type:text"`
}

func (CallQA) TableName() string {
	return "call_qas"
}
