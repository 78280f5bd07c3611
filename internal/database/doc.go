// Package database provides the optional SQLite mirror of the reading log.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── books/           # Mirror of the merged book list
//	├── runs/            # Pipeline run history
//	└── coversync/       # Progress of the latest cover enrichment batch
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./data/bookshelf.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	runsRepo := runs.NewRepository(db.DB)
//
//	run, err := runsRepo.Start(runID, time.Now())
//	removed, err := booksRepo.ReplaceAll(runID, merged)
//
// # Interface Implementations
//
//   - coversync.Repository: implements covers.ProgressReporter
//
// The JSON document written by the store package remains the source of truth.
// The database is rebuilt from it on every successful run.
package database
