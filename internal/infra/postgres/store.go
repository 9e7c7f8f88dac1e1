package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizmaster/internal/domain"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store persists the catalog, users and scores through bun.
// Deletes rely on the ON DELETE CASCADE constraints of the schema.
type Store struct {
	db *bun.DB
}

// OpenDB opens a bun handle over pgdriver.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Subjects

func (s *Store) CreateSubject(ctx context.Context, subject domain.Subject) (domain.Subject, error) {
	m := subjectModel{Name: subject.Name, Description: subject.Description, CreatedAt: subject.CreatedAt}
	if _, err := s.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.Subject{}, mapWriteErr(err, domain.ErrNameTaken, nil)
	}
	return m.domain(), nil
}

func (s *Store) UpdateSubject(ctx context.Context, subject domain.Subject) error {
	m := subjectModel{ID: subject.ID, Name: subject.Name, Description: subject.Description}
	res, err := s.db.NewUpdate().Model(&m).Column("name", "description").WherePK().Exec(ctx)
	if err != nil {
		return mapWriteErr(err, domain.ErrNameTaken, nil)
	}
	return requireAffected(res, domain.ErrSubjectNotFound)
}

func (s *Store) GetSubject(ctx context.Context, subjectID int64) (domain.Subject, error) {
	var m subjectModel
	if err := s.db.NewSelect().Model(&m).Where("su.id = ?", subjectID).Scan(ctx); err != nil {
		return domain.Subject{}, mapReadErr(err, domain.ErrSubjectNotFound)
	}
	return m.domain(), nil
}

func (s *Store) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	var rows []subjectModel
	if err := s.db.NewSelect().Model(&rows).Order("su.id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	out := make([]domain.Subject, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) DeleteSubject(ctx context.Context, subjectID int64) ([]int64, error) {
	var removed []int64
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model((*quizModel)(nil)).Column("qz.id").
			Join("JOIN chapters AS ch ON ch.id = qz.chapter_id").
			Where("ch.subject_id = ?", subjectID).
			Scan(ctx, &removed); err != nil {
			return fmt.Errorf("select subject quizzes: %w", err)
		}
		res, err := tx.NewDelete().Model((*subjectModel)(nil)).Where("id = ?", subjectID).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete subject: %w", err)
		}
		return requireAffected(res, domain.ErrSubjectNotFound)
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Chapters

func (s *Store) CreateChapter(ctx context.Context, chapter domain.Chapter) (domain.Chapter, error) {
	m := chapterModel{SubjectID: chapter.SubjectID, Name: chapter.Name, Description: chapter.Description, CreatedAt: chapter.CreatedAt}
	if _, err := s.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.Chapter{}, mapWriteErr(err, domain.ErrNameTaken, domain.ErrSubjectNotFound)
	}
	return m.domain(), nil
}

func (s *Store) UpdateChapter(ctx context.Context, chapter domain.Chapter) error {
	m := chapterModel{ID: chapter.ID, SubjectID: chapter.SubjectID, Name: chapter.Name, Description: chapter.Description}
	res, err := s.db.NewUpdate().Model(&m).Column("subject_id", "name", "description").WherePK().Exec(ctx)
	if err != nil {
		return mapWriteErr(err, domain.ErrNameTaken, domain.ErrSubjectNotFound)
	}
	return requireAffected(res, domain.ErrChapterNotFound)
}

func (s *Store) GetChapter(ctx context.Context, chapterID int64) (domain.Chapter, error) {
	var m chapterModel
	if err := s.db.NewSelect().Model(&m).Where("ch.id = ?", chapterID).Scan(ctx); err != nil {
		return domain.Chapter{}, mapReadErr(err, domain.ErrChapterNotFound)
	}
	return m.domain(), nil
}

func (s *Store) ListChapters(ctx context.Context, subjectID int64) ([]domain.Chapter, error) {
	var rows []chapterModel
	if err := s.db.NewSelect().Model(&rows).Where("ch.subject_id = ?", subjectID).Order("ch.id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	out := make([]domain.Chapter, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) DeleteChapter(ctx context.Context, chapterID int64) ([]int64, error) {
	var removed []int64
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model((*quizModel)(nil)).Column("qz.id").
			Where("qz.chapter_id = ?", chapterID).
			Scan(ctx, &removed); err != nil {
			return fmt.Errorf("select chapter quizzes: %w", err)
		}
		res, err := tx.NewDelete().Model((*chapterModel)(nil)).Where("id = ?", chapterID).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete chapter: %w", err)
		}
		return requireAffected(res, domain.ErrChapterNotFound)
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// Quizzes

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	m := newQuizModel(quiz)
	m.ID = 0
	if _, err := s.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.Quiz{}, mapWriteErr(err, nil, domain.ErrChapterNotFound)
	}
	return m.domain(), nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	m := newQuizModel(quiz)
	res, err := s.db.NewUpdate().Model(&m).
		Column("chapter_id", "date_of_quiz", "duration_seconds", "remarks").
		WherePK().Exec(ctx)
	if err != nil {
		return mapWriteErr(err, nil, domain.ErrChapterNotFound)
	}
	return requireAffected(res, domain.ErrQuizNotFound)
}

func (s *Store) summaryQuery() *bun.SelectQuery {
	return s.db.NewSelect().
		ColumnExpr("qz.*").
		ColumnExpr("ch.name AS chapter_name").
		ColumnExpr("su.id AS subject_id").
		ColumnExpr("su.name AS subject_name").
		ColumnExpr("(SELECT count(*) FROM questions AS qn WHERE qn.quiz_id = qz.id) AS question_count").
		Join("JOIN chapters AS ch ON ch.id = qz.chapter_id").
		Join("JOIN subjects AS su ON su.id = ch.subject_id")
}

func (s *Store) GetQuizSummary(ctx context.Context, quizID int64) (domain.QuizSummary, error) {
	var row quizSummaryRow
	if err := s.summaryQuery().Model(&row).Where("qz.id = ?", quizID).Scan(ctx); err != nil {
		return domain.QuizSummary{}, mapReadErr(err, domain.ErrQuizNotFound)
	}
	return row.domain(), nil
}

func (s *Store) ListQuizzes(ctx context.Context, chapterID int64) ([]domain.QuizSummary, error) {
	return s.listSummaries(ctx, s.summaryQuery().Where("qz.chapter_id = ?", chapterID))
}

func (s *Store) ListQuizzesFrom(ctx context.Context, day time.Time) ([]domain.QuizSummary, error) {
	return s.listSummaries(ctx, s.summaryQuery().Where("qz.date_of_quiz >= ?::date", sqlDate(day)))
}

func (s *Store) listSummaries(ctx context.Context, q *bun.SelectQuery) ([]domain.QuizSummary, error) {
	var rows []quizSummaryRow
	if err := q.Model(&rows).OrderExpr("qz.date_of_quiz, qz.id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.QuizSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) DeleteQuiz(ctx context.Context, quizID int64) error {
	res, err := s.db.NewDelete().Model((*quizModel)(nil)).Where("id = ?", quizID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return requireAffected(res, domain.ErrQuizNotFound)
}

// Questions

func (s *Store) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	m := newQuestionModel(question)
	m.ID = 0
	if _, err := s.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.Question{}, mapWriteErr(err, nil, domain.ErrQuizNotFound)
	}
	return m.domain(), nil
}

func (s *Store) UpdateQuestion(ctx context.Context, question domain.Question) error {
	m := newQuestionModel(question)
	res, err := s.db.NewUpdate().Model(&m).
		Column("quiz_id", "title", "statement", "options", "correct_index").
		WherePK().Exec(ctx)
	if err != nil {
		return mapWriteErr(err, nil, domain.ErrQuizNotFound)
	}
	return requireAffected(res, domain.ErrQuestionNotFound)
}

func (s *Store) GetQuestion(ctx context.Context, questionID int64) (domain.Question, error) {
	var m questionModel
	if err := s.db.NewSelect().Model(&m).Where("qn.id = ?", questionID).Scan(ctx); err != nil {
		return domain.Question{}, mapReadErr(err, domain.ErrQuestionNotFound)
	}
	return m.domain(), nil
}

func (s *Store) DeleteQuestion(ctx context.Context, questionID int64) error {
	res, err := s.db.NewDelete().Model((*questionModel)(nil)).Where("id = ?", questionID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return requireAffected(res, domain.ErrQuestionNotFound)
}

// Users

func (s *Store) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	m := newUserModel(user)
	m.ID = 0
	if _, err := s.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.User{}, mapWriteErr(err, domain.ErrUsernameTaken, nil)
	}
	return m.domain(), nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	var m userModel
	if err := s.db.NewSelect().Model(&m).Where("us.id = ?", userID).Scan(ctx); err != nil {
		return domain.User{}, mapReadErr(err, domain.ErrUserNotFound)
	}
	return m.domain(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var m userModel
	if err := s.db.NewSelect().Model(&m).Where("us.username = ?", username).Scan(ctx); err != nil {
		return domain.User{}, mapReadErr(err, domain.ErrUserNotFound)
	}
	return m.domain(), nil
}

func (s *Store) UpdateUser(ctx context.Context, user domain.User) error {
	m := newUserModel(user)
	res, err := s.db.NewUpdate().Model(&m).
		Column("username", "password_hash", "name", "is_admin", "qualification", "dob").
		WherePK().Exec(ctx)
	if err != nil {
		return mapWriteErr(err, domain.ErrUsernameTaken, nil)
	}
	return requireAffected(res, domain.ErrUserNotFound)
}

func (s *Store) HasAdmin(ctx context.Context) (bool, error) {
	exists, err := s.db.NewSelect().Model((*userModel)(nil)).Where("us.is_admin").Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return exists, nil
}

// Scores

func (s *Store) CreateScore(ctx context.Context, score domain.Score) (domain.Score, error) {
	m := scoreModel{
		UserID:      score.UserID,
		QuizID:      score.QuizID,
		Score:       score.Score,
		Remarks:     score.Remarks,
		AttemptDate: domain.Day(score.AttemptDate),
	}
	if _, err := s.db.NewInsert().Model(&m).Returning("*").Exec(ctx); err != nil {
		return domain.Score{}, mapWriteErr(err, nil, domain.ErrQuizNotFound)
	}
	return m.domain(), nil
}

func (s *Store) GetScore(ctx context.Context, scoreID int64) (domain.Score, error) {
	var m scoreModel
	if err := s.db.NewSelect().Model(&m).Where("sc.id = ?", scoreID).Scan(ctx); err != nil {
		return domain.Score{}, mapReadErr(err, domain.ErrScoreNotFound)
	}
	return m.domain(), nil
}

func (s *Store) ListScores(ctx context.Context, filter domain.ScoreFilter) ([]domain.Score, error) {
	var rows []scoreModel
	q := applyScoreFilter(s.db.NewSelect().Model(&rows), filter)
	if err := q.Order("sc.id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	out := make([]domain.Score, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) CountScores(ctx context.Context, filter domain.ScoreFilter) (int, error) {
	n, err := applyScoreFilter(s.db.NewSelect().Model((*scoreModel)(nil)), filter).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count scores: %w", err)
	}
	return n, nil
}

func applyScoreFilter(q *bun.SelectQuery, f domain.ScoreFilter) *bun.SelectQuery {
	if f.UserID != 0 {
		q = q.Where("sc.user_id = ?", f.UserID)
	}
	if f.QuizID != 0 {
		q = q.Where("sc.quiz_id = ?", f.QuizID)
	}
	if f.UpTo != nil {
		d := sqlDate(f.UpTo.Date)
		q = q.Where("(sc.attempt_date < ?::date OR (sc.attempt_date = ?::date AND sc.id <= ?))", d, d, f.UpTo.ID)
	}
	return q
}

// Reports

type subjectCountRow struct {
	SubjectID   int64  `bun:"subject_id"`
	SubjectName string `bun:"subject_name"`
	Attempts    int    `bun:"attempts"`
}

type subjectMaxRow struct {
	SubjectID   int64  `bun:"subject_id"`
	SubjectName string `bun:"subject_name"`
	MaxScore    int    `bun:"max_score"`
}

type monthCountRow struct {
	Month    string `bun:"month"`
	Attempts int    `bun:"attempts"`
}

func (s *Store) scoresBySubject() *bun.SelectQuery {
	return s.db.NewSelect().
		TableExpr("scores AS sc").
		Join("JOIN quizzes AS qz ON qz.id = sc.quiz_id").
		Join("JOIN chapters AS ch ON ch.id = qz.chapter_id").
		Join("JOIN subjects AS su ON su.id = ch.subject_id").
		ColumnExpr("su.id AS subject_id").
		ColumnExpr("su.name AS subject_name").
		GroupExpr("su.id, su.name").
		OrderExpr("su.name")
}

func (s *Store) SubjectAttemptCounts(ctx context.Context, userID int64) ([]domain.SubjectCount, error) {
	q := s.scoresBySubject().ColumnExpr("count(*) AS attempts")
	if userID != 0 {
		q = q.Where("sc.user_id = ?", userID)
	}
	var rows []subjectCountRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("subject attempt counts: %w", err)
	}
	out := make([]domain.SubjectCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.SubjectCount{SubjectID: r.SubjectID, SubjectName: r.SubjectName, Attempts: r.Attempts})
	}
	return out, nil
}

func (s *Store) SubjectMaxScores(ctx context.Context) ([]domain.SubjectMaxScore, error) {
	var rows []subjectMaxRow
	if err := s.scoresBySubject().ColumnExpr("max(sc.score) AS max_score").Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("subject max scores: %w", err)
	}
	out := make([]domain.SubjectMaxScore, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.SubjectMaxScore{SubjectID: r.SubjectID, SubjectName: r.SubjectName, MaxScore: r.MaxScore})
	}
	return out, nil
}

func (s *Store) MonthlyAttemptCounts(ctx context.Context, userID int64) ([]domain.MonthCount, error) {
	q := s.db.NewSelect().
		TableExpr("scores AS sc").
		ColumnExpr("to_char(sc.attempt_date, 'YYYY-MM') AS month").
		ColumnExpr("count(*) AS attempts").
		GroupExpr("month").
		OrderExpr("month")
	if userID != 0 {
		q = q.Where("sc.user_id = ?", userID)
	}
	var rows []monthCountRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("monthly attempt counts: %w", err)
	}
	out := make([]domain.MonthCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.MonthCount{Month: r.Month, Attempts: r.Attempts})
	}
	return out, nil
}

func sqlDate(t time.Time) string {
	return domain.Day(t).Format("2006-01-02")
}

func mapReadErr(err error, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// mapWriteErr translates constraint violations; a nil target leaves that violation untranslated.
func mapWriteErr(err error, onUnique, onForeignKey error) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case uniqueViolation:
			if onUnique != nil {
				return onUnique
			}
		case foreignKeyViolation:
			if onForeignKey != nil {
				return onForeignKey
			}
		}
	}
	return err
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
