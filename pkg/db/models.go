package db

import "time"

// Dataset is a provenance record for one review file.
type Dataset struct {
	ID                int64
	Path              string
	URL               string
	LastProcessedLine int
	AddedAt           time.Time
}

// Review is one staged review record.
type Review struct {
	ID             int64
	DatasetID      int64
	Line           int
	ReviewerID     string
	ASIN           string
	ReviewText     string
	Summary        string
	Overall        float64
	UnixReviewTime int64
}
