package app

import (
	"context"
	"errors"
	"sort"

	"quizmaster/internal/domain"
)

// ReportService serves score history and dashboard rollups.
type ReportService struct {
	reports ReportRepository
	scores  ScoreStore
	catalog CatalogRepository
}

func NewReportService(reports ReportRepository, scores ScoreStore, catalog CatalogRepository) *ReportService {
	return &ReportService{reports: reports, scores: scores, catalog: catalog}
}

// UserSummary is the dashboard of one user.
type UserSummary struct {
	SubjectAttempts []domain.SubjectCount `json:"subjectAttempts"`
	MonthlyAttempts []domain.MonthCount   `json:"monthlyAttempts"`
}

// AdminSummary is the dashboard across all users.
type AdminSummary struct {
	SubjectAttempts  []domain.SubjectCount    `json:"subjectAttempts"`
	SubjectMaxScores []domain.SubjectMaxScore `json:"subjectMaxScores"`
}

func (s *ReportService) UserSummary(ctx context.Context, userID int64) (UserSummary, error) {
	counts, err := s.reports.SubjectAttemptCounts(ctx, userID)
	if err != nil {
		return UserSummary{}, err
	}
	monthly, err := s.reports.MonthlyAttemptCounts(ctx, userID)
	if err != nil {
		return UserSummary{}, err
	}
	return UserSummary{SubjectAttempts: counts, MonthlyAttempts: monthly}, nil
}

func (s *ReportService) AdminSummary(ctx context.Context) (AdminSummary, error) {
	counts, err := s.reports.SubjectAttemptCounts(ctx, 0)
	if err != nil {
		return AdminSummary{}, err
	}
	maxes, err := s.reports.SubjectMaxScores(ctx)
	if err != nil {
		return AdminSummary{}, err
	}
	return AdminSummary{SubjectAttempts: counts, SubjectMaxScores: maxes}, nil
}

// History lists the user's scores, newest first, with attempt ordinals.
func (s *ReportService) History(ctx context.Context, userID int64) ([]domain.ScoreHistoryEntry, error) {
	scores, err := s.scores.ListScores(ctx, domain.ScoreFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	sort.Slice(scores, func(i, j int) bool {
		if !scores[i].AttemptDate.Equal(scores[j].AttemptDate) {
			return scores[i].AttemptDate.After(scores[j].AttemptDate)
		}
		return scores[i].ID > scores[j].ID
	})

	summaries := make(map[int64]domain.QuizSummary)
	entries := make([]domain.ScoreHistoryEntry, 0, len(scores))
	for _, sc := range scores {
		summary, ok := summaries[sc.QuizID]
		if !ok {
			summary, err = s.catalog.GetQuizSummary(ctx, sc.QuizID)
			if errors.Is(err, domain.ErrQuizNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			summaries[sc.QuizID] = summary
		}
		entry, err := s.entry(ctx, sc, summary)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ScoreDetail returns one of the user's scores; scores of other users are reported as not found.
func (s *ReportService) ScoreDetail(ctx context.Context, userID, scoreID int64) (domain.ScoreHistoryEntry, error) {
	sc, err := s.scores.GetScore(ctx, scoreID)
	if err != nil {
		return domain.ScoreHistoryEntry{}, err
	}
	if sc.UserID != userID {
		return domain.ScoreHistoryEntry{}, domain.ErrScoreNotFound
	}
	summary, err := s.catalog.GetQuizSummary(ctx, sc.QuizID)
	if err != nil {
		return domain.ScoreHistoryEntry{}, err
	}
	return s.entry(ctx, sc, summary)
}

func (s *ReportService) entry(ctx context.Context, sc domain.Score, summary domain.QuizSummary) (domain.ScoreHistoryEntry, error) {
	attempt, err := AttemptNumber(ctx, s.scores, sc)
	if err != nil {
		return domain.ScoreHistoryEntry{}, err
	}
	return domain.ScoreHistoryEntry{
		Score:       sc,
		Attempt:     attempt,
		Total:       summary.QuestionCount,
		SubjectName: summary.SubjectName,
		ChapterName: summary.ChapterName,
	}, nil
}
