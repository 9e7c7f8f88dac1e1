package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"quizmaster/internal/domain"
)

// CatalogService is the admin surface over subjects, chapters, quizzes and questions.
type CatalogService struct {
	catalog CatalogRepository
	quizzes QuizRepository
	cache   QuizInvalidator
	now     func() time.Time
}

// NewCatalogService wires the catalog; cache may be nil when quizzes are not cached.
func NewCatalogService(catalog CatalogRepository, quizzes QuizRepository, cache QuizInvalidator) *CatalogService {
	return &CatalogService{catalog: catalog, quizzes: quizzes, cache: cache, now: time.Now}
}

type SubjectInput struct {
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description" validate:"max=256"`
}

type ChapterInput struct {
	SubjectID   int64  `json:"subjectId" validate:"required"`
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description" validate:"max=256"`
}

type QuizInput struct {
	ChapterID       int64  `json:"chapterId" validate:"required"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	DurationMinutes int    `json:"durationMinutes" validate:"required,min=1"`
	Remarks         string `json:"remarks" validate:"max=256"`
}

type QuestionInput struct {
	QuizID       int64                      `json:"quizId" validate:"required"`
	Title        string                     `json:"title" validate:"required,max=100"`
	Statement    string                     `json:"statement" validate:"required,max=500"`
	Options      [domain.OptionCount]string `json:"options" validate:"unique,dive,required,max=100"`
	CorrectIndex *int                       `json:"correctIndex" validate:"required"`
}

func (in QuestionInput) validate() error {
	if err := validateInput(in); err != nil {
		return err
	}
	if *in.CorrectIndex < 0 || *in.CorrectIndex >= domain.OptionCount {
		return domain.NewValidationError("correctIndex", "must select one of the four options")
	}
	return nil
}

func (in QuestionInput) question() domain.Question {
	return domain.Question{
		QuizID:       in.QuizID,
		Title:        in.Title,
		Statement:    in.Statement,
		Options:      in.Options,
		CorrectIndex: *in.CorrectIndex,
	}
}

func (in QuizInput) quiz() (domain.Quiz, error) {
	date, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return domain.Quiz{}, domain.NewValidationError("date", "must be a date in 2006-01-02 format")
	}
	return domain.Quiz{
		ChapterID: in.ChapterID,
		Date:      date,
		Duration:  time.Duration(in.DurationMinutes) * time.Minute,
		Remarks:   in.Remarks,
	}, nil
}

func (s *CatalogService) CreateSubject(ctx context.Context, in SubjectInput) (domain.Subject, error) {
	if err := validateInput(in); err != nil {
		return domain.Subject{}, err
	}
	return s.catalog.CreateSubject(ctx, domain.Subject{Name: in.Name, Description: in.Description, CreatedAt: s.now()})
}

func (s *CatalogService) UpdateSubject(ctx context.Context, subjectID int64, in SubjectInput) (domain.Subject, error) {
	subject, err := s.catalog.GetSubject(ctx, subjectID)
	if err != nil {
		return domain.Subject{}, err
	}
	if err := validateInput(in); err != nil {
		return domain.Subject{}, err
	}
	subject.Name, subject.Description = in.Name, in.Description
	if err := s.catalog.UpdateSubject(ctx, subject); err != nil {
		return domain.Subject{}, err
	}
	return subject, nil
}

func (s *CatalogService) GetSubject(ctx context.Context, subjectID int64) (domain.Subject, error) {
	return s.catalog.GetSubject(ctx, subjectID)
}

func (s *CatalogService) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	return s.catalog.ListSubjects(ctx)
}

// DeleteSubject removes the subject with its chapters, quizzes, questions and their scores.
func (s *CatalogService) DeleteSubject(ctx context.Context, subjectID int64) error {
	removed, err := s.catalog.DeleteSubject(ctx, subjectID)
	if err != nil {
		return err
	}
	s.invalidate(ctx, removed...)
	return nil
}

func (s *CatalogService) CreateChapter(ctx context.Context, in ChapterInput) (domain.Chapter, error) {
	if err := validateInput(in); err != nil {
		return domain.Chapter{}, err
	}
	if _, err := s.catalog.GetSubject(ctx, in.SubjectID); err != nil {
		return domain.Chapter{}, err
	}
	return s.catalog.CreateChapter(ctx, domain.Chapter{
		SubjectID:   in.SubjectID,
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   s.now(),
	})
}

func (s *CatalogService) UpdateChapter(ctx context.Context, chapterID int64, in ChapterInput) (domain.Chapter, error) {
	chapter, err := s.catalog.GetChapter(ctx, chapterID)
	if err != nil {
		return domain.Chapter{}, err
	}
	if err := validateInput(in); err != nil {
		return domain.Chapter{}, err
	}
	if _, err := s.catalog.GetSubject(ctx, in.SubjectID); err != nil {
		return domain.Chapter{}, err
	}
	chapter.SubjectID, chapter.Name, chapter.Description = in.SubjectID, in.Name, in.Description
	if err := s.catalog.UpdateChapter(ctx, chapter); err != nil {
		return domain.Chapter{}, err
	}
	return chapter, nil
}

func (s *CatalogService) GetChapter(ctx context.Context, chapterID int64) (domain.Chapter, error) {
	return s.catalog.GetChapter(ctx, chapterID)
}

func (s *CatalogService) ListChapters(ctx context.Context, subjectID int64) ([]domain.Chapter, error) {
	if _, err := s.catalog.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	return s.catalog.ListChapters(ctx, subjectID)
}

func (s *CatalogService) DeleteChapter(ctx context.Context, chapterID int64) error {
	removed, err := s.catalog.DeleteChapter(ctx, chapterID)
	if err != nil {
		return err
	}
	s.invalidate(ctx, removed...)
	return nil
}

func (s *CatalogService) CreateQuiz(ctx context.Context, in QuizInput) (domain.Quiz, error) {
	if err := validateInput(in); err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := in.quiz()
	if err != nil {
		return domain.Quiz{}, err
	}
	if _, err := s.catalog.GetChapter(ctx, in.ChapterID); err != nil {
		return domain.Quiz{}, err
	}
	return s.catalog.CreateQuiz(ctx, quiz)
}

func (s *CatalogService) UpdateQuiz(ctx context.Context, quizID int64, in QuizInput) (domain.Quiz, error) {
	if _, err := s.catalog.GetQuizSummary(ctx, quizID); err != nil {
		return domain.Quiz{}, err
	}
	if err := validateInput(in); err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := in.quiz()
	if err != nil {
		return domain.Quiz{}, err
	}
	if _, err := s.catalog.GetChapter(ctx, in.ChapterID); err != nil {
		return domain.Quiz{}, err
	}
	quiz.ID = quizID
	if err := s.catalog.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	return quiz, nil
}

// QuizDetail returns the quiz with its ordered questions, correct answers included.
func (s *CatalogService) QuizDetail(ctx context.Context, quizID int64) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

func (s *CatalogService) ListQuizzes(ctx context.Context, chapterID int64) ([]domain.QuizSummary, error) {
	if _, err := s.catalog.GetChapter(ctx, chapterID); err != nil {
		return nil, err
	}
	return s.catalog.ListQuizzes(ctx, chapterID)
}

// UpcomingQuizzes lists quizzes scheduled today or later.
func (s *CatalogService) UpcomingQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	return s.catalog.ListQuizzesFrom(ctx, domain.Day(s.now()))
}

func (s *CatalogService) DeleteQuiz(ctx context.Context, quizID int64) error {
	if err := s.catalog.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	return nil
}

func (s *CatalogService) CreateQuestion(ctx context.Context, in QuestionInput) (domain.Question, error) {
	if err := in.validate(); err != nil {
		return domain.Question{}, err
	}
	if _, err := s.catalog.GetQuizSummary(ctx, in.QuizID); err != nil {
		return domain.Question{}, err
	}
	q, err := s.catalog.CreateQuestion(ctx, in.question())
	if err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, q.QuizID)
	return q, nil
}

func (s *CatalogService) UpdateQuestion(ctx context.Context, questionID int64, in QuestionInput) (domain.Question, error) {
	existing, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	if err := in.validate(); err != nil {
		return domain.Question{}, err
	}
	if _, err := s.catalog.GetQuizSummary(ctx, in.QuizID); err != nil {
		return domain.Question{}, err
	}
	q := in.question()
	q.ID = questionID
	if err := s.catalog.UpdateQuestion(ctx, q); err != nil {
		return domain.Question{}, err
	}
	s.invalidate(ctx, existing.QuizID, q.QuizID)
	return q, nil
}

func (s *CatalogService) GetQuestion(ctx context.Context, questionID int64) (domain.Question, error) {
	return s.catalog.GetQuestion(ctx, questionID)
}

func (s *CatalogService) DeleteQuestion(ctx context.Context, questionID int64) error {
	existing, err := s.catalog.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if err := s.catalog.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	s.invalidate(ctx, existing.QuizID)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context, quizIDs ...int64) {
	if s.cache == nil {
		return
	}
	for _, id := range quizIDs {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			log.Warn().Err(err).Int64("quiz_id", id).Msg("quiz cache invalidation failed")
		}
	}
}
