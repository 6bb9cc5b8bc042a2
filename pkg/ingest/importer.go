package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/japaniel/reviewgen/pkg/dataset"
	"github.com/japaniel/reviewgen/pkg/db"
)

// Importer stages raw review records in the database so a later training run
// can read them back in file order.
type Importer struct {
	DB        *sql.DB
	BatchSize int
	// FlushInterval forces a commit of a partial batch. 0 disables it.
	FlushInterval time.Duration
	// Logger is used for informational messages (e.g. resume status). nil means no logging.
	Logger *log.Logger
	// OnProgress is called after every BatchSize staged reviews with the count so far.
	OnProgress func(imported int)
}

// ImportStats summarizes one import run.
type ImportStats struct {
	dataset.Stats
	Imported int
	// Skipped counts reviews at or before the stored checkpoint.
	Skipped int
}

// NewImporter creates a new Importer.
func NewImporter(conn *sql.DB) *Importer {
	return &Importer{
		DB:            conn,
		BatchSize:     500,
		FlushInterval: time.Second,
	}
}

// ImportFile registers the dataset at path and stages its reviews.
func (im *Importer) ImportFile(ctx context.Context, path, url string) (int64, ImportStats, error) {
	datasetID, err := db.CreateOrGetDataset(im.DB, path, url)
	if err != nil {
		return 0, ImportStats{}, fmt.Errorf("failed to register dataset: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return datasetID, ImportStats{}, err
	}
	defer f.Close()

	st, err := im.Import(ctx, datasetID, f)
	return datasetID, st, err
}

// Import reads review lines from r and stages them under datasetID.
// It resumes after the last checkpointed line, so an interrupted import can
// simply be run again.
func (im *Importer) Import(ctx context.Context, datasetID int64, r io.Reader) (ImportStats, error) {
	var st ImportStats

	last, err := db.GetDatasetProgress(im.DB, datasetID)
	if err != nil {
		return st, fmt.Errorf("failed to retrieve progress: %w", err)
	}
	if last >= 0 && im.Logger != nil {
		im.Logger.Printf("Resuming import from line %d", last+1)
	}

	bw := NewBatchWriter(im.DB, im.BatchSize, im.FlushInterval)

	readStats, err := dataset.ReadReviews(r, func(line int, rv dataset.Review) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if line <= last {
			st.Skipped++
			return nil
		}
		rec := db.Review{
			DatasetID:      datasetID,
			Line:           line,
			ReviewerID:     rv.ReviewerID,
			ASIN:           rv.ASIN,
			ReviewText:     rv.ReviewText,
			Summary:        rv.Summary,
			Overall:        rv.Overall,
			UnixReviewTime: rv.UnixReviewTime,
		}
		err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			if err := db.InsertReview(tx, rec); err != nil {
				return err
			}
			// Checkpoint progress for this review in the same transaction
			if err := db.UpdateDatasetProgress(tx, datasetID, rec.Line); err != nil {
				return fmt.Errorf("failed to save progress: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		st.Imported++
		if im.OnProgress != nil && im.BatchSize > 0 && st.Imported%im.BatchSize == 0 {
			im.OnProgress(st.Imported)
		}
		return nil
	})
	st.Stats = readStats

	if closeErr := bw.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return st, err
	}

	// Trailing blank or malformed lines never reach a write, so move the
	// checkpoint to the end of the stream explicitly.
	if readStats.Lines-1 > last {
		if err := db.UpdateDatasetProgress(im.DB, datasetID, readStats.Lines-1); err != nil {
			return st, fmt.Errorf("failed to save progress: %w", err)
		}
	}
	if im.OnProgress != nil {
		im.OnProgress(st.Imported)
	}
	if im.Logger != nil {
		im.Logger.Printf("Imported %d reviews (%d skipped, %d malformed lines)", st.Imported, st.Skipped, st.Malformed)
	}
	return st, nil
}
