package models

import "time"

// ConversationThread links a ticket to a customer phone number. It is
// upserted by the ticket webhook, keyed by ticket code plus phone.
type ConversationThread struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	TicketCode string `json:"ticketCode" gorm:"size:100;uniqueIndex:idx_thread_ticket_phone"`
	Phone      string `json:"phone" gorm:"size:64;uniqueIndex:idx_thread_ticket_phone"`
	Subject    string `json:"subject,omitempty" gorm:"size:500"`
	AgentEmail string `json:"agentEmail,omitempty" gorm:"size:128"`
}

func (ConversationThread) TableName() string {
	return "conversation_threads"
}
