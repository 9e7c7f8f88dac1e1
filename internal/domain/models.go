package domain

import "time"

// OptionCount is the fixed number of options on every question.
const OptionCount = 4

// Subject is the top of the catalog hierarchy.
type Subject struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Chapter belongs to exactly one subject.
type Chapter struct {
	ID          int64     `json:"id"`
	SubjectID   int64     `json:"subjectId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Quiz is a scheduled, timed set of questions inside a chapter.
type Quiz struct {
	ID        int64         `json:"id"`
	ChapterID int64         `json:"chapterId"`
	Date      time.Time     `json:"date"`
	Duration  time.Duration `json:"duration"`
	Remarks   string        `json:"remarks,omitempty"`
	Questions []Question    `json:"questions,omitempty"`
}

// DurationSeconds is the countdown seed for a new attempt.
func (q Quiz) DurationSeconds() int {
	return int(q.Duration / time.Second)
}

// IsUpcoming reports whether the quiz is scheduled on or after the given day.
func (q Quiz) IsUpcoming(today time.Time) bool {
	return !Day(q.Date).Before(Day(today))
}

// Question models an MCQ question; the correct answer is an index into Options.
type Question struct {
	ID           int64               `json:"id"`
	QuizID       int64               `json:"quizId"`
	Title        string              `json:"title"`
	Statement    string              `json:"statement"`
	Options      [OptionCount]string `json:"options"`
	CorrectIndex int                 `json:"correctIndex"`
}

// CorrectOption returns the text graded against submitted answers.
func (q Question) CorrectOption() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= OptionCount {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// QuizSummary is a quiz listing row with its catalog ancestry.
type QuizSummary struct {
	Quiz
	ChapterName   string `json:"chapterName"`
	SubjectID     int64  `json:"subjectId"`
	SubjectName   string `json:"subjectName"`
	QuestionCount int    `json:"questionCount"`
}

// User is an account; PasswordHash is never serialized.
type User struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	PasswordHash  string     `json:"-"`
	Name          string     `json:"name"`
	IsAdmin       bool       `json:"isAdmin"`
	Qualification string     `json:"qualification,omitempty"`
	DOB           *time.Time `json:"dob,omitempty"`
}

// Score is one completed attempt. Rows are immutable.
type Score struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	QuizID      int64     `json:"quizId"`
	Score       int       `json:"score"`
	Remarks     string    `json:"remarks,omitempty"`
	AttemptDate time.Time `json:"attemptDate"`
}

// ScoreCursor selects rows at or before a position in (attempt date, id) order.
type ScoreCursor struct {
	Date time.Time
	ID   int64
}

// ScoreFilter narrows score queries. Zero values are ignored.
type ScoreFilter struct {
	UserID int64
	QuizID int64
	// UpTo keeps rows with date < UpTo.Date, or date == UpTo.Date and id <= UpTo.ID.
	UpTo *ScoreCursor
}

// Matches applies the filter to a single row.
func (f ScoreFilter) Matches(s Score) bool {
	if f.UserID != 0 && s.UserID != f.UserID {
		return false
	}
	if f.QuizID != 0 && s.QuizID != f.QuizID {
		return false
	}
	if f.UpTo != nil {
		d, c := Day(s.AttemptDate), Day(f.UpTo.Date)
		if d.After(c) {
			return false
		}
		if d.Equal(c) && s.ID > f.UpTo.ID {
			return false
		}
	}
	return true
}

// ScoreHistoryEntry is a score enriched for history display.
type ScoreHistoryEntry struct {
	Score
	Attempt     int    `json:"attempt"`
	Total       int    `json:"total"`
	SubjectName string `json:"subjectName"`
	ChapterName string `json:"chapterName"`
}

// SubjectCount is a per-subject attempt count.
type SubjectCount struct {
	SubjectID   int64  `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	Attempts    int    `json:"attempts"`
}

// SubjectMaxScore is the best score achieved in a subject.
type SubjectMaxScore struct {
	SubjectID   int64  `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	MaxScore    int    `json:"maxScore"`
}

// MonthCount is an attempt count for a year-month bucket ("2006-01").
type MonthCount struct {
	Month    string `json:"month"`
	Attempts int    `json:"attempts"`
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
