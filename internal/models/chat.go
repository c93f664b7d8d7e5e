package models

import "time"

// ChatSession is one operator conversation about a ticket's calls.
// Summary holds the rolling summary of older messages that were folded
// out of the live window.
type ChatSession struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	TicketCode string `json:"ticketCode" gorm:"size:100;index"`
	// CallID scopes the session to one call; zero means the whole
	// ticket.
	CallID  uint   `json:"callId" gorm:"index"`
	Summary string `json:"summary,omitempty" gorm:"type:text"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// ChatMessage is one turn inside a chat session. Summarized marks
// messages already folded into the session summary.
type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`

	SessionID  uint   `json:"sessionId" gorm:"index"`
	Role       string `json:"role" gorm:"size:20"`
	Content    string `json:"content" gorm:"type:text"`
	Summarized bool   `json:"summarized" gorm:"index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
