package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/civicgrid/grievance-api/internal/models"
	appErrors "github.com/civicgrid/grievance-api/pkg/errors"
)

type statsRepository interface {
	ListAll(ctx context.Context) ([]models.Submission, error)
	FindByAssignee(ctx context.Context, officerID string) ([]models.Submission, error)
	CountAll(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status models.SubmissionStatus) (int, error)
	CountByStatuses(ctx context.Context, statuses []models.SubmissionStatus) (int, error)
	CountAssigned(ctx context.Context) (int, error)
	CountByAssignee(ctx context.Context, officerID string) (int, error)
	CountByAssigneeAndStatuses(ctx context.Context, officerID string, statuses []models.SubmissionStatus) (int, error)
}

const (
	adminCountsCacheKey = "stats:counts:admin"
	adminStatsCacheKey  = "stats:statistics:admin"
)

// unresolvedStatuses are the statuses counted as still open on dashboards.
var unresolvedStatuses = []models.SubmissionStatus{models.StatusSubmitted, models.StatusInProgress}

// StatsService computes dashboard counts and distribution statistics over a
// role-appropriate scope: the whole store for admins, the officer's own
// assignments for officers.
type StatsService struct {
	repo   statsRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewStatsService constructs the service.
func NewStatsService(repo statsRepository, cache *CacheService, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{repo: repo, cache: cache, logger: logger}
}

// Counts returns the headline numbers for the actor's scope.
func (s *StatsService) Counts(ctx context.Context, actor *models.User) (*models.SubmissionCounts, error) {
	if err := authorize(actor, opCounts, nil); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleAdmin {
		return s.adminCounts(ctx)
	}
	return s.officerCounts(ctx, actor.ID)
}

func (s *StatsService) adminCounts(ctx context.Context) (*models.SubmissionCounts, error) {
	var cached models.SubmissionCounts
	if hit, _ := s.cache.Get(ctx, adminCountsCacheKey, &cached); hit {
		return &cached, nil
	}

	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count submissions")
	}
	rejected, err := s.repo.CountByStatus(ctx, models.StatusRejected)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rejected submissions")
	}
	assigned, err := s.repo.CountAssigned(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assigned submissions")
	}
	unresolved, err := s.repo.CountByStatuses(ctx, unresolvedStatuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unresolved submissions")
	}

	counts := &models.SubmissionCounts{Unresolved: unresolved, Assigned: assigned, Rejected: rejected, Total: total}
	if err := s.cache.Set(ctx, adminCountsCacheKey, counts, 0); err != nil {
		s.logger.Warn("failed to cache admin counts", zap.Error(err))
	}
	return counts, nil
}

// officerCounts mirrors adminCounts over the officer's assignments. Assigned
// equals total in this scope by definition.
func (s *StatsService) officerCounts(ctx context.Context, officerID string) (*models.SubmissionCounts, error) {
	total, err := s.repo.CountByAssignee(ctx, officerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count assignments")
	}
	rejected, err := s.repo.CountByAssigneeAndStatuses(ctx, officerID, []models.SubmissionStatus{models.StatusRejected})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count rejected assignments")
	}
	unresolved, err := s.repo.CountByAssigneeAndStatuses(ctx, officerID, unresolvedStatuses)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unresolved assignments")
	}

	return &models.SubmissionCounts{Unresolved: unresolved, Assigned: total, Rejected: rejected, Total: total}, nil
}

// Statistics returns the full distribution breakdown for the actor's scope.
// Every status and category appears in the maps, zero-filled when absent.
func (s *StatsService) Statistics(ctx context.Context, actor *models.User) (*models.SubmissionStatistics, error) {
	if err := authorize(actor, opStatistics, nil); err != nil {
		return nil, err
	}

	var subs []models.Submission
	var err error
	cacheKey := ""
	if actor.Role == models.RoleAdmin {
		cacheKey = adminStatsCacheKey
		var cached models.SubmissionStatistics
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
		subs, err = s.repo.ListAll(ctx)
	} else {
		subs, err = s.repo.FindByAssignee(ctx, actor.ID)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load statistics scope")
	}

	stats := fold(subs)
	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, stats, 0); err != nil {
			s.logger.Warn("failed to cache admin statistics", zap.Error(err))
		}
	}
	return stats, nil
}

// fold computes the distributions in one pass over the scope.
func fold(subs []models.Submission) *models.SubmissionStatistics {
	stats := &models.SubmissionStatistics{
		StatusDistribution:   make(map[string]int, len(models.AllStatuses)),
		CategoryDistribution: make(map[string]int, len(models.AllCategories)),
		KindDistribution:     make(map[string]int, 2),
	}
	for _, status := range models.AllStatuses {
		stats.StatusDistribution[string(status)] = 0
	}
	for _, category := range models.AllCategories {
		stats.CategoryDistribution[string(category)] = 0
	}

	for _, sub := range subs {
		stats.StatusDistribution[string(sub.Status)]++
		stats.CategoryDistribution[string(sub.Category)]++
		switch sub.Kind {
		case models.KindGrievance:
			stats.TotalGrievances++
		case models.KindFeedback:
			stats.TotalFeedbacks++
		}
		switch sub.Status {
		case models.StatusSubmitted:
			stats.Submitted++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusResolved:
			stats.Resolved++
		case models.StatusRejected:
			stats.Rejected++
		case models.StatusEscalated:
			stats.Escalated++
		}
	}

	stats.KindDistribution[string(models.KindGrievance)] = stats.TotalGrievances
	stats.KindDistribution[string(models.KindFeedback)] = stats.TotalFeedbacks
	return stats
}
