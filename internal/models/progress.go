package models

import "time"

// StudentAggregate is the running per-student progress summary.
type StudentAggregate struct {
	Username string `json:"username"`
	Class    string `json:"class"`
	RP       int    `json:"rp"`
	Quizzes  int    `json:"quizzes"`
	Tier     string `json:"tier"`
	Avatar   string `json:"avatar"`
}

// QuizAttempt is one entry of the append-only attempt log.
type QuizAttempt struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Quiz           string    `json:"quiz"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQ"`
	RP             int       `json:"rp"`
	Difficulty     string    `json:"difficulty"`
	Timestamp      time.Time `json:"timestamp"`
	// DisplayTime is the human-readable form of Timestamp.
	DisplayTime string `json:"ts"`
}

// CurrentStudent identifies whose progress is being updated.
type CurrentStudent struct {
	Username string
	Class    string
	Avatar   string
}
