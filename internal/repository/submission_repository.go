package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/civicgrid/grievance-api/internal/models"
	appErrors "github.com/civicgrid/grievance-api/pkg/errors"
)

const submissionColumns = `id, title, description, is_public, is_anonymous, category, kind, status, deadline, escalation_level, assigned_officer_id, admin_message, rating, rating_comment, photo_url, owner_id, version, created_at, updated_at`

// SubmissionRepository manages persistence for submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a new repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a new submission.
func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.Version == 0 {
		s.Version = 1
	}
	query := `INSERT INTO submissions (id, title, description, is_public, is_anonymous, category, kind, status, deadline, escalation_level, assigned_officer_id, admin_message, rating, rating_comment, photo_url, owner_id, version, created_at, updated_at)
VALUES (:id, :title, :description, :is_public, :is_anonymous, :category, :kind, :status, :deadline, :escalation_level, :assigned_officer_id, :admin_message, :rating, :rating_comment, :photo_url, :owner_id, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// FindByID returns a submission by identifier.
func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE id = $1 LIMIT 1`, submissionColumns)
	var s models.Submission
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find submission by id: %w", err)
	}
	return &s, nil
}

// FindByOwner returns submissions created by the given citizen, newest first.
func (r *SubmissionRepository) FindByOwner(ctx context.Context, ownerID string) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE owner_id = $1 ORDER BY created_at DESC`, submissionColumns)
	var out []models.Submission
	if err := r.db.SelectContext(ctx, &out, query, ownerID); err != nil {
		return nil, fmt.Errorf("find submissions by owner: %w", err)
	}
	return out, nil
}

// FindByAssignee returns submissions assigned to the given officer.
func (r *SubmissionRepository) FindByAssignee(ctx context.Context, officerID string) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE assigned_officer_id = $1 ORDER BY updated_at DESC`, submissionColumns)
	var out []models.Submission
	if err := r.db.SelectContext(ctx, &out, query, officerID); err != nil {
		return nil, fmt.Errorf("find submissions by assignee: %w", err)
	}
	return out, nil
}

// FindByAssigneeAndStatus returns an officer's assignments in a given status.
func (r *SubmissionRepository) FindByAssigneeAndStatus(ctx context.Context, officerID string, status models.SubmissionStatus) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE assigned_officer_id = $1 AND status = $2 ORDER BY updated_at DESC`, submissionColumns)
	var out []models.Submission
	if err := r.db.SelectContext(ctx, &out, query, officerID, string(status)); err != nil {
		return nil, fmt.Errorf("find submissions by assignee and status: %w", err)
	}
	return out, nil
}

// ListAll returns every submission, newest first.
func (r *SubmissionRepository) ListAll(ctx context.Context) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions ORDER BY created_at DESC`, submissionColumns)
	var out []models.Submission
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return out, nil
}

// CountAll returns the total number of submissions.
func (r *SubmissionRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM submissions`); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return total, nil
}

// CountByStatus returns the number of submissions with the given status.
func (r *SubmissionRepository) CountByStatus(ctx context.Context, status models.SubmissionStatus) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM submissions WHERE status = $1`, string(status)); err != nil {
		return 0, fmt.Errorf("count submissions by status: %w", err)
	}
	return total, nil
}

// CountByStatuses returns the number of submissions whose status is in the set.
func (r *SubmissionRepository) CountByStatuses(ctx context.Context, statuses []models.SubmissionStatus) (int, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM submissions WHERE status = ANY($1)`, pq.Array(values)); err != nil {
		return 0, fmt.Errorf("count submissions by statuses: %w", err)
	}
	return total, nil
}

// CountAssigned returns the number of submissions with an officer assigned.
func (r *SubmissionRepository) CountAssigned(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM submissions WHERE assigned_officer_id IS NOT NULL`); err != nil {
		return 0, fmt.Errorf("count assigned submissions: %w", err)
	}
	return total, nil
}

// CountByAssignee returns the number of submissions assigned to an officer.
func (r *SubmissionRepository) CountByAssignee(ctx context.Context, officerID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM submissions WHERE assigned_officer_id = $1`, officerID); err != nil {
		return 0, fmt.Errorf("count submissions by assignee: %w", err)
	}
	return total, nil
}

// CountByAssigneeAndStatuses returns an officer's assignment count within a
// status set.
func (r *SubmissionRepository) CountByAssigneeAndStatuses(ctx context.Context, officerID string, statuses []models.SubmissionStatus) (int, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM submissions WHERE assigned_officer_id = $1 AND status = ANY($2)`, officerID, pq.Array(values)); err != nil {
		return 0, fmt.Errorf("count submissions by assignee and statuses: %w", err)
	}
	return total, nil
}

// Update writes a mutated submission back. The write is guarded on the
// version the caller read; a concurrent writer bumps the version and the
// guard misses, surfacing a conflict instead of a silent lost update.
func (r *SubmissionRepository) Update(ctx context.Context, s *models.Submission) error {
	readVersion := s.Version
	s.Version = readVersion + 1
	s.UpdatedAt = time.Now().UTC()
	query := `UPDATE submissions SET status = :status, deadline = :deadline, escalation_level = :escalation_level, assigned_officer_id = :assigned_officer_id, admin_message = :admin_message, rating = :rating, rating_comment = :rating_comment, version = :version, updated_at = :updated_at
WHERE id = :id AND version = :read_version`
	arg := struct {
		models.Submission
		ReadVersion int `db:"read_version"`
	}{Submission: *s, ReadVersion: readVersion}
	res, err := r.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		s.Version = readVersion
		return fmt.Errorf("update submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		s.Version = readVersion
		return fmt.Errorf("update submission: %w", err)
	}
	if affected == 0 {
		s.Version = readVersion
		return appErrors.Clone(appErrors.ErrVersionConflict, "")
	}
	return nil
}

// Delete removes a submission.
func (r *SubmissionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UsersByIDs resolves owner and officer display fields for list responses
// in a single round trip per scope.
func (r *SubmissionRepository) UsersByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT id, email, password_hash, full_name, role, active, last_login, created_at, updated_at FROM users WHERE id IN (?)`, unique)
	if err != nil {
		return nil, fmt.Errorf("users by ids: %w", err)
	}
	query = r.db.Rebind(query)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("users by ids: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
