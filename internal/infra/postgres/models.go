package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quizmaster/internal/domain"
)

type subjectModel struct {
	bun.BaseModel `bun:"table:subjects,alias:su"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func (m subjectModel) domain() domain.Subject {
	return domain.Subject{ID: m.ID, Name: m.Name, Description: m.Description, CreatedAt: m.CreatedAt}
}

type chapterModel struct {
	bun.BaseModel `bun:"table:chapters,alias:ch"`

	ID          int64     `bun:"id,pk,autoincrement"`
	SubjectID   int64     `bun:"subject_id,notnull"`
	Name        string    `bun:"name,notnull"`
	Description string    `bun:"description,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

func (m chapterModel) domain() domain.Chapter {
	return domain.Chapter{ID: m.ID, SubjectID: m.SubjectID, Name: m.Name, Description: m.Description, CreatedAt: m.CreatedAt}
}

type quizModel struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID              int64     `bun:"id,pk,autoincrement"`
	ChapterID       int64     `bun:"chapter_id,notnull"`
	Date            time.Time `bun:"date_of_quiz,type:date,notnull"`
	DurationSeconds int       `bun:"duration_seconds,notnull"`
	Remarks         string    `bun:"remarks,notnull"`
}

func newQuizModel(q domain.Quiz) quizModel {
	return quizModel{
		ID:              q.ID,
		ChapterID:       q.ChapterID,
		Date:            domain.Day(q.Date),
		DurationSeconds: q.DurationSeconds(),
		Remarks:         q.Remarks,
	}
}

func (m quizModel) domain() domain.Quiz {
	return domain.Quiz{
		ID:        m.ID,
		ChapterID: m.ChapterID,
		Date:      domain.Day(m.Date),
		Duration:  time.Duration(m.DurationSeconds) * time.Second,
		Remarks:   m.Remarks,
	}
}

// quizSummaryRow is a quiz joined to its chapter and subject.
type quizSummaryRow struct {
	quizModel     `bun:",extend"`
	ChapterName   string `bun:"chapter_name"`
	SubjectID     int64  `bun:"subject_id"`
	SubjectName   string `bun:"subject_name"`
	QuestionCount int    `bun:"question_count"`
}

func (r quizSummaryRow) domain() domain.QuizSummary {
	return domain.QuizSummary{
		Quiz:          r.quizModel.domain(),
		ChapterName:   r.ChapterName,
		SubjectID:     r.SubjectID,
		SubjectName:   r.SubjectName,
		QuestionCount: r.QuestionCount,
	}
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID           int64    `bun:"id,pk,autoincrement"`
	QuizID       int64    `bun:"quiz_id,notnull"`
	Title        string   `bun:"title,notnull"`
	Statement    string   `bun:"statement,notnull"`
	Options      []string `bun:"options,array,notnull"`
	CorrectIndex int      `bun:"correct_index,notnull"`
}

func newQuestionModel(q domain.Question) questionModel {
	return questionModel{
		ID:           q.ID,
		QuizID:       q.QuizID,
		Title:        q.Title,
		Statement:    q.Statement,
		Options:      q.Options[:],
		CorrectIndex: q.CorrectIndex,
	}
}

func (m questionModel) domain() domain.Question {
	q := domain.Question{
		ID:           m.ID,
		QuizID:       m.QuizID,
		Title:        m.Title,
		Statement:    m.Statement,
		CorrectIndex: m.CorrectIndex,
	}
	copy(q.Options[:], m.Options)
	return q
}

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:us"`

	ID            int64      `bun:"id,pk,autoincrement"`
	Username      string     `bun:"username,notnull"`
	PasswordHash  string     `bun:"password_hash,notnull"`
	Name          string     `bun:"name,notnull"`
	IsAdmin       bool       `bun:"is_admin,notnull"`
	Qualification string     `bun:"qualification,notnull"`
	DOB           *time.Time `bun:"dob,type:date"`
}

func newUserModel(u domain.User) userModel {
	return userModel{
		ID:            u.ID,
		Username:      u.Username,
		PasswordHash:  u.PasswordHash,
		Name:          u.Name,
		IsAdmin:       u.IsAdmin,
		Qualification: u.Qualification,
		DOB:           u.DOB,
	}
}

func (m userModel) domain() domain.User {
	return domain.User{
		ID:            m.ID,
		Username:      m.Username,
		PasswordHash:  m.PasswordHash,
		Name:          m.Name,
		IsAdmin:       m.IsAdmin,
		Qualification: m.Qualification,
		DOB:           m.DOB,
	}
}

type scoreModel struct {
	bun.BaseModel `bun:"table:scores,alias:sc"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      int64     `bun:"user_id,notnull"`
	QuizID      int64     `bun:"quiz_id,notnull"`
	Score       int       `bun:"score,notnull"`
	Remarks     string    `bun:"remarks,notnull"`
	AttemptDate time.Time `bun:"attempt_date,type:date,notnull"`
}

func (m scoreModel) domain() domain.Score {
	return domain.Score{
		ID:          m.ID,
		UserID:      m.UserID,
		QuizID:      m.QuizID,
		Score:       m.Score,
		Remarks:     m.Remarks,
		AttemptDate: domain.Day(m.AttemptDate),
	}
}
