package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/civicgrid/grievance-api/internal/models"
	appErrors "github.com/civicgrid/grievance-api/pkg/errors"
)

type ratingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	FindByAssigneeAndStatus(ctx context.Context, officerID string, status models.SubmissionStatus) ([]models.Submission, error)
	Update(ctx context.Context, s *models.Submission) error
}

type ratingUserLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// RatingService handles post-resolution satisfaction ratings and the
// per-officer rating rollup.
type RatingService struct {
	repo   ratingRepository
	users  ratingUserLookup
	cache  *CacheService
	logger *zap.Logger
}

// NewRatingService constructs the service.
func NewRatingService(repo ratingRepository, users ratingUserLookup, cache *CacheService, logger *zap.Logger) *RatingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingService{repo: repo, users: users, cache: cache, logger: logger}
}

// RatingRequest is the citizen rating payload. A missing rating is rejected.
type RatingRequest struct {
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
}

// SubmitRating records the owner's satisfaction rating on a resolved
// submission. Re-submission overwrites the previous rating.
func (s *RatingService) SubmitRating(ctx context.Context, actor *models.User, id string, req RatingRequest) (*models.Submission, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if err := authorize(actor, opRate, sub); err != nil {
		return nil, err
	}
	if sub.Status != models.StatusResolved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "can only rate resolved submissions")
	}
	if req.Rating == nil || *req.Rating < 1 || *req.Rating > 5 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rating must be between 1 and 5")
	}

	rating := *req.Rating
	sub.Rating = &rating
	comment := req.Comment
	sub.RatingComment = &comment
	if err := s.repo.Update(ctx, sub); err != nil {
		if appErrors.Is(err, appErrors.ErrVersionConflict) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store rating")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, statsCachePattern); err != nil {
			s.logger.Warn("stats cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("rating submitted",
		zap.String("submission_id", sub.ID),
		zap.Int("rating", rating))
	return sub, nil
}

// OfficerRating aggregates the ratings on an officer's resolved assignments.
// An unknown officer or one with no rated work yields a nil average.
func (s *RatingService) OfficerRating(ctx context.Context, officerEmail string) (*models.OfficerRating, error) {
	officer, err := s.users.FindByEmail(ctx, officerEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.OfficerRating{OfficerEmail: officerEmail}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load officer")
	}

	resolved, err := s.repo.FindByAssigneeAndStatus(ctx, officer.ID, models.StatusResolved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resolved assignments")
	}

	var sum, rated int
	for _, sub := range resolved {
		if sub.Rating == nil {
			continue
		}
		sum += *sub.Rating
		rated++
	}
	out := &models.OfficerRating{OfficerEmail: officerEmail, TotalRatings: rated}
	if rated > 0 {
		average := float64(sum) / float64(rated)
		out.AverageRating = &average
	}
	return out, nil
}
