package entity

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// RefreshRunStatus represents the lifecycle state of a refresh run.
type RefreshRunStatus string

const (
	RunStatusRunning   RefreshRunStatus = "running"
	RunStatusCompleted RefreshRunStatus = "completed"
	RunStatusStopped   RefreshRunStatus = "stopped"
	RunStatusFailed    RefreshRunStatus = "failed"
)

// RefreshRun records one execution of the refresh pipeline.
type RefreshRun struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Status      RefreshRunStatus `gorm:"type:varchar(20);not null" json:"status"`
	StartedAt   time.Time        `gorm:"not null" json:"started_at"`
	CompletedAt sql.NullTime     `json:"completed_at"`

	ProcessedCount int `gorm:"not null;default:0" json:"processed_count"`
	UpdatedCount   int `gorm:"not null;default:0" json:"updated_count"`
	SkippedCount   int `gorm:"not null;default:0" json:"skipped_count"`
	FailedCount    int `gorm:"not null;default:0" json:"failed_count"`

	Messages     pq.StringArray `gorm:"type:text[]" json:"messages"`
	ErrorMessage sql.NullString `json:"error_message"`
}

// TableName specifies the table name for the RefreshRun model.
func (RefreshRun) TableName() string {
	return "refresh_runs"
}
