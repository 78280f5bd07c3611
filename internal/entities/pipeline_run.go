package entities

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// PipelineRun is one execution of the fetch pipeline.
type PipelineRun struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	RunID       string     `gorm:"uniqueIndex;size:36" json:"run_id"`
	Status      RunStatus  `gorm:"size:20;index" json:"status"`
	CSVBooks    int        `json:"csv_books"`
	FeedBooks   int        `json:"feed_books"`
	PriorBooks  int        `json:"prior_books"`
	MergedBooks int        `json:"merged_books"`
	Warnings    int        `json:"warnings"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt   time.Time  `gorm:"index" json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

func (PipelineRun) TableName() string {
	return "pipeline_runs"
}

// StoredBook mirrors a BookRecord in the database, keyed by identity key.
type StoredBook struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	IdentityKey   string       `gorm:"uniqueIndex;size:1024" json:"identity_key"`
	Title         string       `gorm:"index;size:512" json:"title"`
	Author        string       `gorm:"index;size:256" json:"author"`
	Rating        int          `json:"rating"`
	ReadAt        string       `gorm:"size:64" json:"read_at"`
	ReadAtTime    *time.Time   `gorm:"index" json:"read_at_time,omitempty"`
	BookID        string       `gorm:"index;size:32" json:"book_id"`
	ISBN          string       `gorm:"size:20" json:"isbn"`
	ImageURL      string       `gorm:"size:2048" json:"image_url"`
	AverageRating float64      `json:"average_rating"`
	BookPublished string       `gorm:"size:16" json:"book_published"`
	NumPages      int          `json:"num_pages"`
	Source        RecordSource `gorm:"size:8" json:"source"`
	Position      int          `json:"position"`
	LastRunID     string       `gorm:"index;size:36" json:"last_run_id"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (StoredBook) TableName() string {
	return "books"
}
