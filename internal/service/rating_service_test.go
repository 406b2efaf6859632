package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicgrid/grievance-api/internal/models"
	appErrors "github.com/civicgrid/grievance-api/pkg/errors"
)

func newRatingFixture() (*fakeSubmissionRepo, *RatingService) {
	repo := newFakeSubmissionRepo()
	lookup := &fakeUserLookup{users: map[string]*models.User{officer.ID: officer}}
	return repo, NewRatingService(repo, ratingLookupAdapter{lookup}, nil, nil)
}

func intPtr(v int) *int { return &v }

func TestSubmitRatingResolvedOnly(t *testing.T) {
	repo, svc := newRatingFixture()
	resolved := seedSubmission(repo, func(s *models.Submission) { s.Status = models.StatusResolved })
	pending := seedSubmission(repo, nil)

	sub, err := svc.SubmitRating(context.Background(), citizen, resolved.ID, RatingRequest{Rating: intPtr(5), Comment: "great"})
	require.NoError(t, err)
	require.NotNil(t, sub.Rating)
	assert.Equal(t, 5, *sub.Rating)
	require.NotNil(t, sub.RatingComment)
	assert.Equal(t, "great", *sub.RatingComment)

	_, err = svc.SubmitRating(context.Background(), citizen, pending.ID, RatingRequest{Rating: intPtr(3)})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestSubmitRatingBounds(t *testing.T) {
	repo, svc := newRatingFixture()
	resolved := seedSubmission(repo, func(s *models.Submission) { s.Status = models.StatusResolved })

	for _, rating := range []*int{nil, intPtr(0), intPtr(6)} {
		_, err := svc.SubmitRating(context.Background(), citizen, resolved.ID, RatingRequest{Rating: rating})
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	}
}

func TestSubmitRatingOwnerOnly(t *testing.T) {
	repo, svc := newRatingFixture()
	resolved := seedSubmission(repo, func(s *models.Submission) { s.Status = models.StatusResolved })

	stranger := &models.User{ID: "citizen-2", Role: models.RoleCitizen}
	_, err := svc.SubmitRating(context.Background(), stranger, resolved.ID, RatingRequest{Rating: intPtr(4)})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestSubmitRatingOverwrites(t *testing.T) {
	repo, svc := newRatingFixture()
	resolved := seedSubmission(repo, func(s *models.Submission) {
		s.Status = models.StatusResolved
		s.Rating = intPtr(2)
	})

	sub, err := svc.SubmitRating(context.Background(), citizen, resolved.ID, RatingRequest{Rating: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, *sub.Rating)
}

func TestOfficerRatingAverage(t *testing.T) {
	repo, svc := newRatingFixture()
	seedSubmission(repo, func(s *models.Submission) {
		s.Status = models.StatusResolved
		s.AssignedOfficerID = &officer.ID
		s.Rating = intPtr(4)
	})
	seedSubmission(repo, func(s *models.Submission) {
		s.Status = models.StatusResolved
		s.AssignedOfficerID = &officer.ID
		s.Rating = intPtr(5)
	})
	// Resolved but never rated; excluded from the mean.
	seedSubmission(repo, func(s *models.Submission) {
		s.Status = models.StatusResolved
		s.AssignedOfficerID = &officer.ID
	})
	// Rated but not resolved does not exist by construction; unresolved
	// assignments are simply out of scope.
	seedSubmission(repo, func(s *models.Submission) {
		s.Status = models.StatusInProgress
		s.AssignedOfficerID = &officer.ID
	})

	out, err := svc.OfficerRating(context.Background(), officer.Email)
	require.NoError(t, err)
	assert.Equal(t, officer.Email, out.OfficerEmail)
	assert.Equal(t, 2, out.TotalRatings)
	require.NotNil(t, out.AverageRating)
	assert.InDelta(t, 4.5, *out.AverageRating, 0.0001)
}

func TestOfficerRatingUnknownOfficer(t *testing.T) {
	_, svc := newRatingFixture()

	out, err := svc.OfficerRating(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, "nobody@example.com", out.OfficerEmail)
	assert.Nil(t, out.AverageRating)
	assert.Equal(t, 0, out.TotalRatings)
}

func TestOfficerRatingNoRatedWork(t *testing.T) {
	repo, svc := newRatingFixture()
	seedSubmission(repo, func(s *models.Submission) {
		s.Status = models.StatusResolved
		s.AssignedOfficerID = &officer.ID
	})

	out, err := svc.OfficerRating(context.Background(), officer.Email)
	require.NoError(t, err)
	assert.Nil(t, out.AverageRating)
	assert.Equal(t, 0, out.TotalRatings)
}
