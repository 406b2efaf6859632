package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/civicgrid/grievance-api/internal/models"
	appErrors "github.com/civicgrid/grievance-api/pkg/errors"
)

type submissionRepository interface {
	Create(ctx context.Context, s *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	FindByOwner(ctx context.Context, ownerID string) ([]models.Submission, error)
	FindByAssignee(ctx context.Context, officerID string) ([]models.Submission, error)
	ListAll(ctx context.Context) ([]models.Submission, error)
	Update(ctx context.Context, s *models.Submission) error
	Delete(ctx context.Context, id string) error
	UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

type officerLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

const anonymousDisplayName = "Anonymous user"

// statsCachePattern covers every cached counts/statistics payload. Any
// successful mutation invalidates the whole family.
const statsCachePattern = "stats:*"

// SubmissionService is the lifecycle engine for grievances and feedback:
// it enforces transition legality, the per-role mutation rules and the
// deadline/escalation timing logic.
type SubmissionService struct {
	repo      submissionRepository
	users     officerLookup
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubmissionService constructs the service. The clock is injectable for
// deadline tests; it defaults to time.Now.
func NewSubmissionService(repo submissionRepository, users officerLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger, now func() time.Time) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &SubmissionService{repo: repo, users: users, cache: cache, validator: validate, logger: logger, now: now}
}

// SubmitRequest describes the citizen submission payload.
type SubmitRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	IsPublic    bool   `json:"is_public"`
	IsAnonymous bool   `json:"is_anonymous"`
	Category    string `json:"category"`
	Kind        string `json:"kind"`
	PhotoURL    string `json:"photo_url"`
}

// Submit files a new submission for the citizen. Exactly one of the two
// visibility options must be chosen.
func (s *SubmissionService) Submit(ctx context.Context, actor *models.User, req SubmitRequest) (*models.Submission, error) {
	if err := authorize(actor, opSubmit, nil); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if req.IsPublic == req.IsAnonymous {
		return nil, appErrors.Clone(appErrors.ErrValidation, "choose either public or anonymous")
	}

	category := models.Category(req.Category)
	if category == "" {
		category = models.CategoryOthers
	}
	if !validCategory(category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}
	kind := models.SubmissionKind(req.Kind)
	if kind == "" {
		kind = models.KindFeedback
	}
	if kind != models.KindGrievance && kind != models.KindFeedback {
		return nil, appErrors.Clone(appErrors.ErrValidation, "kind must be GRIEVANCE or FEEDBACK")
	}

	sub := &models.Submission{
		Title:       req.Title,
		Description: req.Description,
		Public:      req.IsPublic,
		Anonymous:   req.IsAnonymous,
		Category:    category,
		Kind:        kind,
		Status:      models.StatusSubmitted,
		OwnerID:     actor.ID,
	}
	if req.PhotoURL != "" {
		sub.PhotoURL = &req.PhotoURL
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}
	s.invalidateStats(ctx)
	s.logger.Info("submission created",
		zap.String("submission_id", sub.ID),
		zap.String("kind", string(sub.Kind)),
		zap.String("category", string(sub.Category)))
	return sub, nil
}

// ListOwn returns the citizen's own submissions with officer contact details.
func (s *SubmissionService) ListOwn(ctx context.Context, actor *models.User) ([]models.OwnedSubmission, error) {
	if err := authorize(actor, opListOwn, nil); err != nil {
		return nil, err
	}
	subs, err := s.repo.FindByOwner(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	officers, err := s.resolveUsers(ctx, subs, func(sub models.Submission) string {
		if sub.AssignedOfficerID != nil {
			return *sub.AssignedOfficerID
		}
		return ""
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.OwnedSubmission, 0, len(subs))
	for _, sub := range subs {
		item := models.OwnedSubmission{
			ID:              sub.ID,
			Title:           sub.Title,
			Description:     sub.Description,
			Status:          sub.Status,
			Category:        sub.Category,
			Kind:            sub.Kind,
			CreatedAt:       sub.CreatedAt,
			UpdatedAt:       sub.UpdatedAt,
			Deadline:        sub.Deadline,
			EscalationLevel: sub.EscalationLevel,
			PhotoURL:        sub.PhotoURL,
			AdminMessage:    sub.AdminMessage,
			Rating:          sub.Rating,
			RatingComment:   sub.RatingComment,
		}
		if sub.AssignedOfficerID != nil {
			if officer, ok := officers[*sub.AssignedOfficerID]; ok {
				name, email := officer.FullName, officer.Email
				item.OfficerName = &name
				item.OfficerEmail = &email
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// ListAssigned returns the officer's assignments. Anonymous submissions mask
// the citizen's identity.
func (s *SubmissionService) ListAssigned(ctx context.Context, actor *models.User) ([]models.SubmissionListItem, error) {
	if err := authorize(actor, opListAssigned, nil); err != nil {
		return nil, err
	}
	subs, err := s.repo.FindByAssignee(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return s.toListItems(ctx, subs, false)
}

// ListAll returns every submission for the admin board.
func (s *SubmissionService) ListAll(ctx context.Context, actor *models.User) ([]models.SubmissionListItem, error) {
	if err := authorize(actor, opListAll, nil); err != nil {
		return nil, err
	}
	subs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return s.toListItems(ctx, subs, true)
}

// UpdateStatus moves a submission to the requested status. Officers may only
// touch their own assignments and may never set ESCALATED; admins are not
// restricted by the state machine here.
func (s *SubmissionService) UpdateStatus(ctx context.Context, actor *models.User, id string, status models.SubmissionStatus) (*models.Submission, error) {
	sub, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, opUpdateStatus, sub); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleOfficer && status == models.StatusEscalated {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "officers cannot set status to ESCALATED")
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}

	sub.Status = status
	if err := s.persist(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("submission status updated",
		zap.String("submission_id", sub.ID),
		zap.String("status", string(status)),
		zap.String("actor_id", actor.ID))
	return sub, nil
}

// AssignOfficer assigns an officer and, when the submission is awaiting
// triage (SUBMITTED or ESCALATED), advances it to IN_PROGRESS. Reassignment
// never resets the escalation level.
func (s *SubmissionService) AssignOfficer(ctx context.Context, actor *models.User, id, officerID string) (*models.Submission, error) {
	if err := authorize(actor, opAssignOfficer, nil); err != nil {
		return nil, err
	}
	sub, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	officer, err := s.users.FindByID(ctx, officerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "officer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load officer")
	}
	if officer.Role != models.RoleOfficer {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignee must be an OFFICER")
	}

	sub.AssignedOfficerID = &officer.ID
	if sub.Status == models.StatusSubmitted || sub.Status == models.StatusEscalated {
		sub.Status = models.StatusInProgress
	}
	if err := s.persist(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("submission assigned",
		zap.String("submission_id", sub.ID),
		zap.String("officer_id", officer.ID))
	return sub, nil
}

// AssignDeadline parses and sets a deadline on a grievance. A bare date is
// treated as end of that day (23:59). The deadline must be in the future.
func (s *SubmissionService) AssignDeadline(ctx context.Context, actor *models.User, id, deadlineText string) (*models.Submission, error) {
	if err := authorize(actor, opAssignDeadline, nil); err != nil {
		return nil, err
	}
	sub, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Kind != models.KindGrievance {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deadlines can only be assigned to grievances")
	}

	deadline, err := parseDeadline(deadlineText)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deadline format")
	}
	if !deadline.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deadline cannot be in the past")
	}

	sub.Deadline = &deadline
	if err := s.persist(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("deadline assigned",
		zap.String("submission_id", sub.ID),
		zap.Time("deadline", deadline))
	return sub, nil
}

// Escalate moves an overdue grievance back to admin triage: the status
// becomes ESCALATED, the escalation level is bumped and the officer is
// unassigned so the admin can re-triage.
func (s *SubmissionService) Escalate(ctx context.Context, actor *models.User, id string) (*models.Submission, error) {
	sub, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, opEscalate, sub); err != nil {
		return nil, err
	}
	if sub.Kind != models.KindGrievance {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only grievances can be escalated")
	}
	if sub.Deadline == nil || sub.Deadline.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "deadline has not passed yet")
	}
	if sub.Status == models.StatusResolved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot escalate a resolved grievance")
	}

	sub.Status = models.StatusEscalated
	sub.EscalationLevel++
	sub.AssignedOfficerID = nil
	if err := s.persist(ctx, sub); err != nil {
		return nil, err
	}
	s.logger.Info("submission escalated",
		zap.String("submission_id", sub.ID),
		zap.Int("escalation_level", sub.EscalationLevel))
	return sub, nil
}

// Withdraw retires a submission that has not been picked up yet. Only the
// owner may withdraw, and only while the status is still SUBMITTED.
func (s *SubmissionService) Withdraw(ctx context.Context, actor *models.User, id string) (*models.Submission, error) {
	sub, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, opWithdraw, sub); err != nil {
		return nil, err
	}
	if sub.Status != models.StatusSubmitted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "can only withdraw a submission with SUBMITTED status")
	}

	sub.Status = models.StatusWithdrawn
	if err := s.persist(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// SendAdminMessage attaches a note for the citizen on an escalated
// submission. The message is overwritable while the escalation is open.
func (s *SubmissionService) SendAdminMessage(ctx context.Context, actor *models.User, id, message string) (*models.Submission, error) {
	if err := authorize(actor, opAdminMessage, nil); err != nil {
		return nil, err
	}
	sub, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.StatusEscalated {
		return nil, appErrors.Clone(appErrors.ErrConflict, "can only send a message for escalated submissions")
	}

	sub.AdminMessage = &message
	if err := s.persist(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Delete removes a submission. Admins may delete any; officers only their
// own assignments. Citizens have no delete grant.
func (s *SubmissionService) Delete(ctx context.Context, actor *models.User, id string) error {
	sub, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(actor, opDelete, sub); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sub.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete submission")
	}
	s.invalidateStats(ctx)
	s.logger.Info("submission deleted",
		zap.String("submission_id", sub.ID),
		zap.String("actor_id", actor.ID))
	return nil
}

func (s *SubmissionService) fetch(ctx context.Context, id string) (*models.Submission, error) {
	sub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return sub, nil
}

// persist writes the mutated record as the final step of an operation. A
// version conflict from the store is passed through as-is.
func (s *SubmissionService) persist(ctx context.Context, sub *models.Submission) error {
	if err := s.repo.Update(ctx, sub); err != nil {
		if appErrors.Is(err, appErrors.ErrVersionConflict) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *SubmissionService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, statsCachePattern); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func (s *SubmissionService) toListItems(ctx context.Context, subs []models.Submission, withOfficer bool) ([]models.SubmissionListItem, error) {
	users, err := s.resolveUsers(ctx, subs, func(sub models.Submission) string { return sub.OwnerID })
	if err != nil {
		return nil, err
	}
	var officers map[string]models.User
	if withOfficer {
		officers, err = s.resolveUsers(ctx, subs, func(sub models.Submission) string {
			if sub.AssignedOfficerID != nil {
				return *sub.AssignedOfficerID
			}
			return ""
		})
		if err != nil {
			return nil, err
		}
	}

	out := make([]models.SubmissionListItem, 0, len(subs))
	for _, sub := range subs {
		item := models.SubmissionListItem{
			ID:              sub.ID,
			Title:           sub.Title,
			Status:          sub.Status,
			Category:        sub.Category,
			Kind:            sub.Kind,
			UpdatedAt:       sub.UpdatedAt,
			Anonymous:       sub.Anonymous,
			Deadline:        sub.Deadline,
			EscalationLevel: sub.EscalationLevel,
			PhotoURL:        sub.PhotoURL,
			AdminMessage:    sub.AdminMessage,
			Rating:          sub.Rating,
			RatingComment:   sub.RatingComment,
		}
		if sub.Anonymous {
			item.CitizenName = anonymousDisplayName
		} else if owner, ok := users[sub.OwnerID]; ok {
			item.CitizenName = owner.FullName
			item.CitizenEmail = owner.Email
		}
		if withOfficer && sub.AssignedOfficerID != nil {
			if officer, ok := officers[*sub.AssignedOfficerID]; ok {
				email := officer.Email
				item.OfficerEmail = &email
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *SubmissionService) resolveUsers(ctx context.Context, subs []models.Submission, pick func(models.Submission) string) (map[string]models.User, error) {
	ids := make([]string, 0, len(subs))
	for _, sub := range subs {
		if id := pick(sub); id != "" {
			ids = append(ids, id)
		}
	}
	users, err := s.repo.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve users")
	}
	return users, nil
}

func validCategory(c models.Category) bool {
	for _, known := range models.AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// parseDeadline accepts a full date-time ("2006-01-02T15:04", a space is
// tolerated instead of the T, seconds optional) or a bare date, which is
// treated as end of that day.
func parseDeadline(raw string) (time.Time, error) {
	raw = strings.TrimSpace(strings.Replace(raw, " ", "T", 1))
	if strings.Contains(raw, "T") {
		for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
			if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
				return t, nil
			}
		}
		return time.Time{}, errors.New("expected YYYY-MM-DDTHH:MM")
	}
	d, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, errors.New("expected YYYY-MM-DD")
	}
	return d.Add(23*time.Hour + 59*time.Minute), nil
}
