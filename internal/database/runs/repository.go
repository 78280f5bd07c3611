// Package runs records the history of pipeline executions.
package runs

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// DefaultLimit is used by Recent when limit is not positive.
const DefaultLimit = 10

// Repository handles pipeline run records.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new runs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Start inserts a run in the running state.
func (r *Repository) Start(runID string, startedAt time.Time) (*entities.PipelineRun, error) {
	run := &entities.PipelineRun{
		RunID:     runID,
		Status:    entities.RunStatusRunning,
		StartedAt: startedAt,
	}
	if err := r.db.Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// Finish stores the outcome of a run. A non-nil runErr marks it failed.
func (r *Repository) Finish(run *entities.PipelineRun, runErr error) error {
	now := time.Now()
	run.FinishedAt = &now
	run.Status = entities.RunStatusSucceeded
	if runErr != nil {
		run.Status = entities.RunStatusFailed
		run.Error = runErr.Error()
	}
	return r.db.Save(run).Error
}

// Recent returns the latest runs, newest first.
func (r *Repository) Recent(limit int) ([]entities.PipelineRun, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var runs []entities.PipelineRun
	err := r.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

// LastSucceeded returns the most recent successful run, or nil when there is none.
func (r *Repository) LastSucceeded() (*entities.PipelineRun, error) {
	var run entities.PipelineRun
	err := r.db.Where("status = ?", entities.RunStatusSucceeded).Order("started_at DESC").First(&run).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
