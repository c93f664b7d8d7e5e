package models

import (
	"time"

	"gorm.io/gorm"
)

// CronAuditEntry records that a scheduled job ran. One row is written
// at the start of every execution regardless of outcome.
type CronAuditEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`

	Job  string `json:"job" gorm:"size:100;index"`
	Note string `json:"note,omitempty" gorm:"size:500"`
}

func (CronAuditEntry) TableName() string {
	return "cron_audit_entries"
}

// RecordCronRun writes the audit row for a job execution.
func RecordCronRun(db *gorm.DB, job, note string) error {
	return db.Create(&CronAuditEntry{Job: job, Note: note}).Error
}
