package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// CreateOrGetDataset returns existing dataset id or inserts a new dataset and returns its id.
func CreateOrGetDataset(db DBExecutor, path, url string) (int64, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return 0, fmt.Errorf("dataset path must be non-empty")
	}

	const maxRetries = 3

	var id int64
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := db.QueryRow(`SELECT id FROM datasets WHERE path = ? AND url = ?`, trimmedPath, url).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, err
		}

		res, err := db.Exec(`INSERT INTO datasets (path, url) VALUES (?, ?)`, trimmedPath, url)
		if err != nil {
			// If another concurrent transaction inserted the same dataset, retry the SELECT.
			if isUniqueConstraintErr(err) {
				continue
			}
			return 0, err
		}
		return res.LastInsertId()
	}

	return 0, fmt.Errorf("could not create or get dataset after %d retries", maxRetries)
}

// InsertReview stages one review. Re-inserting the same dataset line is a no-op,
// which makes resumed imports idempotent.
func InsertReview(db DBExecutor, r Review) error {
	if r.DatasetID <= 0 {
		return fmt.Errorf("datasetID must be positive")
	}
	if strings.TrimSpace(r.ReviewText) == "" {
		return fmt.Errorf("review text must be non-empty")
	}
	_, err := db.Exec(`INSERT INTO reviews (dataset_id, line, reviewer_id, asin, review_text, summary, overall, unix_review_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(dataset_id, line) DO NOTHING`,
		r.DatasetID, r.Line, r.ReviewerID, r.ASIN, r.ReviewText, r.Summary, r.Overall, r.UnixReviewTime)
	if err != nil {
		return fmt.Errorf("insert review line %d: %w", r.Line, err)
	}
	return nil
}

// CountReviews returns the number of staged reviews for a dataset.
func CountReviews(db DBExecutor, datasetID int64) (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM reviews WHERE dataset_id = ?`, datasetID).Scan(&n)
	return n, err
}

// ReviewTexts returns the staged review texts of a dataset in file order.
func ReviewTexts(db DBExecutor, datasetID int64) ([]string, error) {
	rows, err := db.Query(`SELECT review_text FROM reviews WHERE dataset_id = ? ORDER BY line`, datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetReviewsByASIN returns the staged reviews for one product.
func GetReviewsByASIN(db DBExecutor, asin string) ([]Review, error) {
	rows, err := db.Query(`SELECT id, dataset_id, line, reviewer_id, asin, review_text, summary, overall, unix_review_time
		FROM reviews WHERE asin = ? ORDER BY dataset_id, line`, asin)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Review
	for rows.Next() {
		var r Review
		var reviewer, a, summary sql.NullString
		var overall sql.NullFloat64
		var ts sql.NullInt64
		if err := rows.Scan(&r.ID, &r.DatasetID, &r.Line, &reviewer, &a, &r.ReviewText, &summary, &overall, &ts); err != nil {
			return nil, err
		}
		r.ReviewerID = reviewer.String
		r.ASIN = a.String
		r.Summary = summary.String
		r.Overall = overall.Float64
		r.UnixReviewTime = ts.Int64
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDatasetProgress returns the last imported line index for a dataset, -1 if none.
func GetDatasetProgress(db DBExecutor, datasetID int64) (int, error) {
	var index int
	err := db.QueryRow("SELECT last_processed_line FROM datasets WHERE id = ?", datasetID).Scan(&index)
	if err != nil {
		return 0, err
	}
	return index, nil
}

// UpdateDatasetProgress updates the last imported line index.
func UpdateDatasetProgress(db DBExecutor, datasetID int64, index int) error {
	_, err := db.Exec("UPDATE datasets SET last_processed_line = ? WHERE id = ?", index, datasetID)
	return err
}

// ResetDataset drops the staged reviews of a dataset and rewinds its progress.
func ResetDataset(db DBExecutor, datasetID int64) error {
	if _, err := db.Exec(`DELETE FROM reviews WHERE dataset_id = ?`, datasetID); err != nil {
		return err
	}
	return UpdateDatasetProgress(db, datasetID, -1)
}

// GetDataset returns the dataset record with the given id.
func GetDataset(db DBExecutor, datasetID int64) (Dataset, error) {
	var d Dataset
	err := db.QueryRow(`SELECT id, path, url, last_processed_line, added_at FROM datasets WHERE id = ?`, datasetID).
		Scan(&d.ID, &d.Path, &d.URL, &d.LastProcessedLine, &d.AddedAt)
	if err != nil {
		return Dataset{}, err
	}
	return d, nil
}
