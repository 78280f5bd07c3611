// Package books mirrors the merged reading log into the books table.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	n, err := repo.ReplaceAll(runID, merged)
package books

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/importers"
)

const insertBatchSize = 200

// Repository handles book mirror operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ReplaceAll makes the books table match records exactly. Rows are upserted by
// identity key and tagged with runID; rows from earlier runs that were not
// touched are removed. Returns the number of rows removed.
func (r *Repository) ReplaceAll(runID string, records []entities.BookRecord) (int64, error) {
	rows := make([]entities.StoredBook, 0, len(records))
	for i, rec := range records {
		rows = append(rows, toStored(runID, i, rec))
	}

	var removed int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "identity_key"}},
				DoUpdates: clause.AssignmentColumns(mirrorColumns),
			}).CreateInBatches(&rows, insertBatchSize).Error
			if err != nil {
				return fmt.Errorf("upsert books: %w", err)
			}
		}

		res := tx.Where("last_run_id <> ?", runID).Delete(&entities.StoredBook{})
		if res.Error != nil {
			return fmt.Errorf("delete stale books: %w", res.Error)
		}
		removed = res.RowsAffected
		return nil
	})
	return removed, err
}

// Count returns the number of mirrored books.
func (r *Repository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&entities.StoredBook{}).Count(&n).Error
	return n, err
}

var mirrorColumns = []string{
	"title", "author", "rating", "read_at", "read_at_time", "book_id", "isbn",
	"image_url", "average_rating", "book_published", "num_pages", "source",
	"position", "last_run_id", "updated_at",
}

func toStored(runID string, position int, rec entities.BookRecord) entities.StoredBook {
	row := entities.StoredBook{
		IdentityKey:   rec.Key(),
		Title:         rec.Title,
		Author:        rec.Author,
		Rating:        rec.Rating,
		ReadAt:        rec.ReadAt,
		BookID:        rec.BookID,
		ISBN:          rec.ISBN,
		ImageURL:      rec.ImageURL,
		AverageRating: rec.AverageRating,
		BookPublished: rec.BookPublished,
		NumPages:      rec.NumPages,
		Source:        rec.Source,
		Position:      position,
		LastRunID:     runID,
	}
	if t, ok := importers.ParseReadAt(rec.ReadAt); ok {
		utc := t.UTC()
		row.ReadAtTime = &utc
	}
	return row
}
