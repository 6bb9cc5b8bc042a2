package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize caps a single JSON record. Some reviews run to tens of kilobytes.
const maxLineSize = 4 * 1024 * 1024

// Review matches one line of the Amazon product review dump.
type Review struct {
	ReviewerID     string  `json:"reviewerID"`
	ASIN           string  `json:"asin"`
	ReviewerName   string  `json:"reviewerName"`
	Helpful        []int   `json:"helpful"`
	ReviewText     string  `json:"reviewText"`
	Overall        float64 `json:"overall"`
	Summary        string  `json:"summary"`
	UnixReviewTime int64   `json:"unixReviewTime"`
	ReviewTime     string  `json:"reviewTime"`
}

// Stats summarizes one pass over a review stream.
type Stats struct {
	Lines     int
	Reviews   int
	Malformed int
}

// ReadReviews decodes r line by line and calls fn for every review that has
// text, with the zero-based line number. Blank and malformed lines are counted
// and skipped. A non-nil error from fn stops the scan and is returned.
func ReadReviews(r io.Reader, fn func(line int, rv Review) error) (Stats, error) {
	var st Stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for ; sc.Scan(); st.Lines++ {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rv Review
		if err := json.Unmarshal([]byte(raw), &rv); err != nil {
			st.Malformed++
			continue
		}
		if strings.TrimSpace(rv.ReviewText) == "" {
			st.Malformed++
			continue
		}
		st.Reviews++
		if err := fn(st.Lines, rv); err != nil {
			return st, err
		}
	}
	if err := sc.Err(); err != nil {
		return st, fmt.Errorf("failed to read reviews: %w", err)
	}
	return st, nil
}

// LoadReviewTexts reads every review text from the file at path, in order.
func LoadReviewTexts(path string) ([]string, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer f.Close()

	var texts []string
	st, err := ReadReviews(f, func(_ int, rv Review) error {
		texts = append(texts, rv.ReviewText)
		return nil
	})
	return texts, st, err
}
