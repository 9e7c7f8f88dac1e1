package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"quizmaster/internal/domain"
)

// Store is an in-memory relational store for the catalog, users and scores.
// It mirrors the Postgres schema: cascading deletes from subject down to scores,
// and unique subject, chapter and user names. Useful for tests/demos.
type Store struct {
	mu sync.RWMutex

	nextID    int64
	subjects  map[int64]domain.Subject
	chapters  map[int64]domain.Chapter
	quizzes   map[int64]domain.Quiz
	questions map[int64]domain.Question
	users     map[int64]domain.User
	scores    map[int64]domain.Score
}

func NewStore() *Store {
	return &Store{
		subjects:  make(map[int64]domain.Subject),
		chapters:  make(map[int64]domain.Chapter),
		quizzes:   make(map[int64]domain.Quiz),
		questions: make(map[int64]domain.Question),
		users:     make(map[int64]domain.User),
		scores:    make(map[int64]domain.Score),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// LoadQuiz returns the quiz with its questions ordered by id (creation order).
func (s *Store) LoadQuiz(_ context.Context, quizID int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	quiz.Questions = s.questionsOfLocked(quizID)
	return quiz, nil
}

func (s *Store) questionsOfLocked(quizID int64) []domain.Question {
	out := make([]domain.Question, 0)
	for _, q := range s.questions {
		if q.QuizID == quizID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Subjects

func (s *Store) CreateSubject(_ context.Context, subject domain.Subject) (domain.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subjectNameTakenLocked(subject.Name, 0) {
		return domain.Subject{}, domain.ErrNameTaken
	}
	subject.ID = s.id()
	s.subjects[subject.ID] = subject
	return subject, nil
}

func (s *Store) UpdateSubject(_ context.Context, subject domain.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.subjects[subject.ID]
	if !ok {
		return domain.ErrSubjectNotFound
	}
	if s.subjectNameTakenLocked(subject.Name, subject.ID) {
		return domain.ErrNameTaken
	}
	subject.CreatedAt = existing.CreatedAt
	s.subjects[subject.ID] = subject
	return nil
}

func (s *Store) subjectNameTakenLocked(name string, except int64) bool {
	for id, sub := range s.subjects {
		if id != except && sub.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) GetSubject(_ context.Context, subjectID int64) (domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.subjects[subjectID]
	if !ok {
		return domain.Subject{}, domain.ErrSubjectNotFound
	}
	return subject, nil
}

func (s *Store) ListSubjects(_ context.Context) ([]domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Subject, 0, len(s.subjects))
	for _, sub := range s.subjects {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteSubject(_ context.Context, subjectID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[subjectID]; !ok {
		return nil, domain.ErrSubjectNotFound
	}
	var removed []int64
	for id, ch := range s.chapters {
		if ch.SubjectID == subjectID {
			removed = append(removed, s.deleteChapterLocked(id)...)
		}
	}
	delete(s.subjects, subjectID)
	return removed, nil
}

// Chapters

func (s *Store) CreateChapter(_ context.Context, chapter domain.Chapter) (domain.Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[chapter.SubjectID]; !ok {
		return domain.Chapter{}, domain.ErrSubjectNotFound
	}
	if s.chapterNameTakenLocked(chapter.Name, 0) {
		return domain.Chapter{}, domain.ErrNameTaken
	}
	chapter.ID = s.id()
	s.chapters[chapter.ID] = chapter
	return chapter, nil
}

func (s *Store) UpdateChapter(_ context.Context, chapter domain.Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.chapters[chapter.ID]
	if !ok {
		return domain.ErrChapterNotFound
	}
	if _, ok := s.subjects[chapter.SubjectID]; !ok {
		return domain.ErrSubjectNotFound
	}
	if s.chapterNameTakenLocked(chapter.Name, chapter.ID) {
		return domain.ErrNameTaken
	}
	chapter.CreatedAt = existing.CreatedAt
	s.chapters[chapter.ID] = chapter
	return nil
}

func (s *Store) chapterNameTakenLocked(name string, except int64) bool {
	for id, ch := range s.chapters {
		if id != except && ch.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) GetChapter(_ context.Context, chapterID int64) (domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chapter, ok := s.chapters[chapterID]
	if !ok {
		return domain.Chapter{}, domain.ErrChapterNotFound
	}
	return chapter, nil
}

func (s *Store) ListChapters(_ context.Context, subjectID int64) ([]domain.Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chapter, 0)
	for _, ch := range s.chapters {
		if ch.SubjectID == subjectID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteChapter(_ context.Context, chapterID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chapters[chapterID]; !ok {
		return nil, domain.ErrChapterNotFound
	}
	return s.deleteChapterLocked(chapterID), nil
}

func (s *Store) deleteChapterLocked(chapterID int64) []int64 {
	var removed []int64
	for id, q := range s.quizzes {
		if q.ChapterID == chapterID {
			s.deleteQuizLocked(id)
			removed = append(removed, id)
		}
	}
	delete(s.chapters, chapterID)
	return removed
}

// Quizzes

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chapters[quiz.ChapterID]; !ok {
		return domain.Quiz{}, domain.ErrChapterNotFound
	}
	quiz.ID = s.id()
	quiz.Questions = nil
	s.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	if _, ok := s.chapters[quiz.ChapterID]; !ok {
		return domain.ErrChapterNotFound
	}
	quiz.Questions = nil
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *Store) GetQuizSummary(_ context.Context, quizID int64) (domain.QuizSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.QuizSummary{}, domain.ErrQuizNotFound
	}
	return s.summaryLocked(quiz), nil
}

func (s *Store) summaryLocked(quiz domain.Quiz) domain.QuizSummary {
	chapter := s.chapters[quiz.ChapterID]
	subject := s.subjects[chapter.SubjectID]
	return domain.QuizSummary{
		Quiz:          quiz,
		ChapterName:   chapter.Name,
		SubjectID:     subject.ID,
		SubjectName:   subject.Name,
		QuestionCount: len(s.questionsOfLocked(quiz.ID)),
	}
}

func (s *Store) ListQuizzes(_ context.Context, chapterID int64) ([]domain.QuizSummary, error) {
	return s.listQuizzes(func(q domain.Quiz) bool { return q.ChapterID == chapterID }), nil
}

func (s *Store) ListQuizzesFrom(_ context.Context, day time.Time) ([]domain.QuizSummary, error) {
	return s.listQuizzes(func(q domain.Quiz) bool { return q.IsUpcoming(day) }), nil
}

func (s *Store) listQuizzes(keep func(domain.Quiz) bool) []domain.QuizSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizSummary, 0)
	for _, q := range s.quizzes {
		if keep(q) {
			out = append(out, s.summaryLocked(q))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) DeleteQuiz(_ context.Context, quizID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.deleteQuizLocked(quizID)
	return nil
}

// deleteQuizLocked removes the quiz with its questions and scores.
func (s *Store) deleteQuizLocked(quizID int64) {
	for id, q := range s.questions {
		if q.QuizID == quizID {
			delete(s.questions, id)
		}
	}
	for id, sc := range s.scores {
		if sc.QuizID == quizID {
			delete(s.scores, id)
		}
	}
	delete(s.quizzes, quizID)
}

// Questions

func (s *Store) CreateQuestion(_ context.Context, question domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[question.QuizID]; !ok {
		return domain.Question{}, domain.ErrQuizNotFound
	}
	question.ID = s.id()
	s.questions[question.ID] = question
	return question, nil
}

func (s *Store) UpdateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[question.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	if _, ok := s.quizzes[question.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.questions[question.ID] = question
	return nil
}

func (s *Store) GetQuestion(_ context.Context, questionID int64) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[questionID]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (s *Store) DeleteQuestion(_ context.Context, questionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[questionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	delete(s.questions, questionID)
	return nil
}

// Users

func (s *Store) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usernameTakenLocked(user.Username, 0) {
		return domain.User{}, domain.ErrUsernameTaken
	}
	user.ID = s.id()
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	if s.usernameTakenLocked(user.Username, user.ID) {
		return domain.ErrUsernameTaken
	}
	s.users[user.ID] = user
	return nil
}

func (s *Store) usernameTakenLocked(username string, except int64) bool {
	for id, u := range s.users {
		if id != except && u.Username == username {
			return true
		}
	}
	return false
}

func (s *Store) HasAdmin(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.IsAdmin {
			return true, nil
		}
	}
	return false, nil
}

// Scores

func (s *Store) CreateScore(_ context.Context, score domain.Score) (domain.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[score.QuizID]; !ok {
		return domain.Score{}, domain.ErrQuizNotFound
	}
	if _, ok := s.users[score.UserID]; !ok {
		return domain.Score{}, domain.ErrUserNotFound
	}
	score.ID = s.id()
	score.AttemptDate = domain.Day(score.AttemptDate)
	s.scores[score.ID] = score
	return score, nil
}

func (s *Store) GetScore(_ context.Context, scoreID int64) (domain.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[scoreID]
	if !ok {
		return domain.Score{}, domain.ErrScoreNotFound
	}
	return score, nil
}

func (s *Store) ListScores(_ context.Context, filter domain.ScoreFilter) ([]domain.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Score, 0)
	for _, sc := range s.scores {
		if filter.Matches(sc) {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CountScores(_ context.Context, filter domain.ScoreFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sc := range s.scores {
		if filter.Matches(sc) {
			n++
		}
	}
	return n, nil
}

// Reports

func (s *Store) SubjectAttemptCounts(_ context.Context, userID int64) ([]domain.SubjectCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[int64]*domain.SubjectCount)
	for _, sc := range s.scores {
		if userID != 0 && sc.UserID != userID {
			continue
		}
		subject, ok := s.subjectOfLocked(sc.QuizID)
		if !ok {
			continue
		}
		c, ok := counts[subject.ID]
		if !ok {
			c = &domain.SubjectCount{SubjectID: subject.ID, SubjectName: subject.Name}
			counts[subject.ID] = c
		}
		c.Attempts++
	}
	out := make([]domain.SubjectCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectName < out[j].SubjectName })
	return out, nil
}

func (s *Store) SubjectMaxScores(_ context.Context) ([]domain.SubjectMaxScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	maxes := make(map[int64]*domain.SubjectMaxScore)
	for _, sc := range s.scores {
		subject, ok := s.subjectOfLocked(sc.QuizID)
		if !ok {
			continue
		}
		m, ok := maxes[subject.ID]
		if !ok {
			maxes[subject.ID] = &domain.SubjectMaxScore{SubjectID: subject.ID, SubjectName: subject.Name, MaxScore: sc.Score}
			continue
		}
		if sc.Score > m.MaxScore {
			m.MaxScore = sc.Score
		}
	}
	out := make([]domain.SubjectMaxScore, 0, len(maxes))
	for _, m := range maxes {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectName < out[j].SubjectName })
	return out, nil
}

func (s *Store) MonthlyAttemptCounts(_ context.Context, userID int64) ([]domain.MonthCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, sc := range s.scores {
		if userID != 0 && sc.UserID != userID {
			continue
		}
		counts[sc.AttemptDate.Format("2006-01")]++
	}
	out := make([]domain.MonthCount, 0, len(counts))
	for month, n := range counts {
		out = append(out, domain.MonthCount{Month: month, Attempts: n})
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].Month, out[j].Month) < 0 })
	return out, nil
}

func (s *Store) subjectOfLocked(quizID int64) (domain.Subject, bool) {
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Subject{}, false
	}
	chapter, ok := s.chapters[quiz.ChapterID]
	if !ok {
		return domain.Subject{}, false
	}
	subject, ok := s.subjects[chapter.SubjectID]
	return subject, ok
}
