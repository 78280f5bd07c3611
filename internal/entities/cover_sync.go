package entities

import "time"

// CoverSyncStatus is the state of a cover enrichment batch.
type CoverSyncStatus string

const (
	CoverSyncRunning   CoverSyncStatus = "running"
	CoverSyncCompleted CoverSyncStatus = "completed"
	CoverSyncCancelled CoverSyncStatus = "cancelled"
	// CoverSyncAbandoned marks a batch whose process stopped reporting.
	CoverSyncAbandoned CoverSyncStatus = "abandoned"
)

// CoverSync is the single row describing the latest `covers` batch.
type CoverSync struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Status           CoverSyncStatus `gorm:"size:20" json:"status"`
	Candidates       int             `json:"candidates"`
	Processed        int             `json:"processed"`
	Found            int             `json:"found"`
	Missed           int             `json:"missed"`
	CurrentBookID    string          `gorm:"size:64" json:"current_book_id,omitempty"`
	CurrentTitle     string          `gorm:"size:512" json:"current_title,omitempty"`
	LastMissedBookID string          `gorm:"size:64" json:"last_missed_book_id,omitempty"`
	LastMissReason   string          `gorm:"type:text" json:"last_miss_reason,omitempty"`
	Note             string          `gorm:"type:text" json:"note,omitempty"`
	StartedAt        time.Time       `json:"started_at"`
	HeartbeatAt      time.Time       `json:"heartbeat_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
}

func (CoverSync) TableName() string {
	return "cover_syncs"
}
