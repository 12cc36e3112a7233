package domain

import "time"

// ReviewSession is the immutable record of one review event.
type ReviewSession struct {
	ItemID           string    `json:"item_id" validate:"required"`
	Quality          int       `json:"quality" validate:"gte=0,lte=5"`
	ResponseTimeMs   int64     `json:"response_time_ms"`
	PreviousInterval int       `json:"previous_interval"`
	NewInterval      int       `json:"new_interval"`
	PreviousEase     float64   `json:"previous_ease"`
	NewEase          float64   `json:"new_ease"`
	Timestamp        time.Time `json:"timestamp"`
	Subject          string    `json:"subject"`
	Chapter          string    `json:"chapter"`
	// ElapsedDays is the time since the item's previous review. It is zero
	// and FirstReview is set when the item had never been reviewed.
	ElapsedDays float64 `json:"elapsed_days"`
	FirstReview bool    `json:"first_review,omitempty"`
}

// Correct reports whether the review counts as a successful recall.
func (s ReviewSession) Correct() bool {
	return s.Quality >= 3
}
