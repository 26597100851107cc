package generation

// ReadingBand describes the age-appropriate content level used to steer
// generation
type ReadingBand struct {
	Level          string // picture-book, early-reader, chapter-book
	Label          string // "Ages 3-5", "Ages 6-8", "Ages 9-12"
	MinWordsPerDay int
	MaxWordsPerDay int
}

// BandForAge maps a child's age to a reading band
func BandForAge(age int) ReadingBand {
	switch {
	case age <= 5:
		return ReadingBand{Level: "picture-book", Label: "Ages 3-5", MinWordsPerDay: 50, MaxWordsPerDay: 100}
	case age <= 8:
		return ReadingBand{Level: "early-reader", Label: "Ages 6-8", MinWordsPerDay: 100, MaxWordsPerDay: 150}
	default:
		return ReadingBand{Level: "chapter-book", Label: "Ages 9-12", MinWordsPerDay: 150, MaxWordsPerDay: 250}
	}
}

// readingWordsPerMinute is the pace used to estimate fragment read times
const readingWordsPerMinute = 100

// EstimateReadMinutes converts a word count to whole minutes, at least one
func EstimateReadMinutes(wordCount int) int {
	minutes := (wordCount + readingWordsPerMinute - 1) / readingWordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
