package models

// AllEntities lists every persisted model, in dependency order, for
// AutoMigrate.
func AllEntities() []any {
	return []any{
		&ConversationThread{},
		&CallRecord{},
		&AnalysisExtract{},
		&WhatsAppMessage{},
		&MessageAnalysis{},
		&MessageExtract{},
		&ChatSession{},
		&ChatMessage{},
		&CallQA{},
		&CronAuditEntry{},
	}
}
