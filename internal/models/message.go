package models

import "time"

// WhatsAppMessage is one inbound or outbound message captured by the
// message webhook.
type WhatsAppMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`

	TicketCode string `json:"ticketCode" gorm:"size:100;index"`
	Phone      string `json:"phone" gorm:"size:64;index"`
	Sender     string `json:"sender" gorm:"size:200"`
	Body       string `json:"body" gorm:"type:text"`
	FromAgent  bool   `json:"fromAgent"`
	SentToCRM  bool   `json:"sentToCrm" gorm:"column:sent_to_crm;index"`
}

func (WhatsAppMessage) TableName() string {
	return "whatsapp_messages"
}
