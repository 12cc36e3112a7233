package domain

import "time"

// Status is the lifecycle stage of a review item.
type Status string

const (
	StatusNew       Status = "new"
	StatusLearning  Status = "learning"
	StatusReview    Status = "review"
	StatusGraduated Status = "graduated"
	StatusSuspended Status = "suspended"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusNew, StatusLearning, StatusReview, StatusGraduated, StatusSuspended}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Difficulty is the author-facing difficulty tier of an item.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

// ItemType describes what kind of content an item points at.
type ItemType string

const (
	TypeFlashcard ItemType = "flashcard"
	TypeQuestion  ItemType = "question"
	TypeNote      ItemType = "note"
	TypeConcept   ItemType = "concept"
)

// ReviewItem is one schedulable unit of content together with its
// scheduling and performance state.
type ReviewItem struct {
	ID         string     `json:"id" validate:"required"`
	ContentRef string     `json:"content_ref"`
	Subject    string     `json:"subject"`
	Chapter    string     `json:"chapter"`
	Type       ItemType   `json:"type"`
	Tags       []string   `json:"tags,omitempty"`
	Origin     string     `json:"origin,omitempty"` // deck source the item was imported from
	Difficulty Difficulty `json:"difficulty" validate:"oneof=easy medium hard"`

	EaseFactor  float64    `json:"ease_factor" validate:"gte=1.3,lte=3"`
	Interval    int        `json:"interval" validate:"gte=0"` // days
	Repetitions int        `json:"repetitions" validate:"gte=0"`
	NextReview  time.Time  `json:"next_review"`
	LastReview  *time.Time `json:"last_review,omitempty"`

	TotalReviews        int     `json:"total_reviews" validate:"gte=0"`
	CorrectReviews      int     `json:"correct_reviews" validate:"gte=0,ltefield=TotalReviews"`
	Accuracy            float64 `json:"accuracy" validate:"gte=0,lte=100"` // percent
	AverageResponseTime float64 `json:"average_response_time"`            // milliseconds

	Status    Status    `json:"status" validate:"oneof=new learning review graduated suspended"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers never share slices or pointers with
// the engine's state.
func (it ReviewItem) Clone() ReviewItem {
	out := it
	if it.Tags != nil {
		out.Tags = append([]string(nil), it.Tags...)
	}
	if it.LastReview != nil {
		v := *it.LastReview
		out.LastReview = &v
	}
	return out
}

// Overdue reports whether the item's review instant lies strictly before now.
func (it ReviewItem) Overdue(now time.Time) bool {
	return now.Sub(it.NextReview) > 0
}

// Due reports whether the item belongs in the review queue at now.
func (it ReviewItem) Due(now time.Time) bool {
	return it.Status != StatusSuspended && !it.NextReview.After(now)
}
