package domain

// Card is a single question-answer entry parsed from a markdown deck.
type Card struct {
	Question   string
	Answer     string
	Context    string
	Subject    string
	Chapter    string
	Tags       []string
	Difficulty Difficulty
	Hash       string
}
