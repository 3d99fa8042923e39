package chat

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is an asynchronous tutoring turn. The user message is stored when the
// job is created; the worker produces the AI reply.
type Job struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	UserID   uint64 `gorm:"not null;index:uniq_job_user_idempo,unique,priority:1"`
	ScriptID uint64 `gorm:"index;not null"`

	Question string `gorm:"type:text;not null"`
	Code     string `gorm:"type:text"`
	Language string `gorm:"type:varchar(30);not null"`

	IdempotencyKey *string `gorm:"type:varchar(128);index:uniq_job_user_idempo,unique,priority:2"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	UserMessageID uint64

	// Filled when succeeded
	ResultMessageID *uint64 `gorm:"index"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Job) TableName() string { return "tutor_jobs" }
