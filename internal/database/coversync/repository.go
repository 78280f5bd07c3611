// Package coversync records the progress of cover enrichment batches so that
// an interrupted or concurrent `covers` run can be detected.
//
// The repository keeps a single row and implements covers.ProgressReporter:
//
//	repo := coversync.NewRepository(db)
//	enricher.SetProgressReporter(repo)
package coversync

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const (
	rowID = 1

	// StaleAfter is how long a running batch may go without progress before
	// it is considered abandoned.
	StaleAfter = 10 * time.Minute
)

// Repository handles the cover sync row.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a new cover sync repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Latest returns the latest batch, or nil when covers never ran.
func (r *Repository) Latest() (*entities.CoverSync, error) {
	var row entities.CoverSync
	err := r.db.First(&row, rowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// BatchStarted resets the row for a new batch.
func (r *Repository) BatchStarted(candidates int) error {
	now := r.now()
	return r.db.Save(&entities.CoverSync{
		ID:          rowID,
		Status:      entities.CoverSyncRunning,
		Candidates:  candidates,
		StartedAt:   now,
		HeartbeatAt: now,
	}).Error
}

// BookProcessed stores the counters after one book and remembers the last miss.
func (r *Repository) BookProcessed(p covers.Progress) error {
	updates := map[string]any{
		"processed":       p.Done,
		"found":           p.Found,
		"missed":          p.Missed,
		"current_book_id": p.Book.BookID,
		"current_title":   p.Book.Title,
		"heartbeat_at":    r.now(),
	}
	if p.Err != nil {
		updates["last_missed_book_id"] = p.Book.BookID
		updates["last_miss_reason"] = p.Err.Error()
	}
	return r.db.Model(&entities.CoverSync{ID: rowID}).Updates(updates).Error
}

// BatchFinished closes the batch as completed or cancelled.
func (r *Repository) BatchFinished(cancelled bool, missed int) error {
	status := entities.CoverSyncCompleted
	note := ""
	if missed > 0 {
		note = fmt.Sprintf("%d covers not found", missed)
	}
	if cancelled {
		status = entities.CoverSyncCancelled
		note = "stopped before every book was checked"
	}
	return r.finish(status, note)
}

// IsRunning reports whether another batch is still making progress. A running
// batch without updates for StaleAfter is marked abandoned.
func (r *Repository) IsRunning() (bool, error) {
	row, err := r.Latest()
	if err != nil || row == nil || row.Status != entities.CoverSyncRunning {
		return false, err
	}
	if r.now().Sub(row.HeartbeatAt) > StaleAfter {
		note := fmt.Sprintf("no progress since %s", row.HeartbeatAt.UTC().Format(time.RFC3339))
		if err := r.finish(entities.CoverSyncAbandoned, note); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *Repository) finish(status entities.CoverSyncStatus, note string) error {
	now := r.now()
	return r.db.Model(&entities.CoverSync{ID: rowID}).Updates(map[string]any{
		"status":          status,
		"note":            note,
		"current_book_id": "",
		"current_title":   "",
		"heartbeat_at":    now,
		"completed_at":    now,
	}).Error
}
