package models

import "time"

const (
	MinMoodScore = 1
	MaxMoodScore = 5
)

var moodLabels = [...]string{"Very Low", "Low", "Neutral", "Good", "Very Good"}

// MoodEntry is a single self-reported mood score.
type MoodEntry struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Score     int       `db:"score" json:"score"`
	LoggedAt  time.Time `db:"logged_at" json:"logged_at"`
}

// MoodLabel returns the human label for a score, or "" when out of range.
func MoodLabel(score int) string {
	if score < MinMoodScore || score > MaxMoodScore {
		return ""
	}
	return moodLabels[score-MinMoodScore]
}
