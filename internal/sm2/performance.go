package sm2

// Performance holds the running review counters of an item.
type Performance struct {
	TotalReviews        int
	CorrectReviews      int
	Accuracy            float64 // percent, [0,100]
	AverageResponseTime float64 // milliseconds
}

// Record folds one review into the counters.
func (p Performance) Record(quality int, responseTimeMs int64) Performance {
	if responseTimeMs < 0 {
		responseTimeMs = 0
	}
	p.TotalReviews++
	if ClampQuality(quality) >= PassQuality {
		p.CorrectReviews++
	}
	n := float64(p.TotalReviews)
	p.Accuracy = float64(p.CorrectReviews) / n * 100
	p.AverageResponseTime += (float64(responseTimeMs) - p.AverageResponseTime) / n
	return p
}
