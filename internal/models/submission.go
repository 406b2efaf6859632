package models

import "time"

// SubmissionStatus tracks where a submission sits in its lifecycle.
type SubmissionStatus string

const (
	StatusSubmitted  SubmissionStatus = "SUBMITTED"
	StatusInProgress SubmissionStatus = "IN_PROGRESS"
	StatusResolved   SubmissionStatus = "RESOLVED"
	StatusRejected   SubmissionStatus = "REJECTED"
	StatusEscalated  SubmissionStatus = "ESCALATED"
	StatusWithdrawn  SubmissionStatus = "WITHDRAWN"
)

// AllStatuses lists every lifecycle status. Statistics maps are zero-filled
// over this set.
var AllStatuses = []SubmissionStatus{
	StatusSubmitted,
	StatusInProgress,
	StatusResolved,
	StatusRejected,
	StatusEscalated,
	StatusWithdrawn,
}

// Valid reports whether the status is a known lifecycle status.
func (s SubmissionStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// SubmissionKind separates grievances (deadline/escalation capable) from
// plain feedback.
type SubmissionKind string

const (
	KindGrievance SubmissionKind = "GRIEVANCE"
	KindFeedback  SubmissionKind = "FEEDBACK"
)

// Category tags a submission with the civic concern it relates to.
type Category string

const (
	CategoryInfrastructure  Category = "INFRASTRUCTURE"
	CategoryPublicSafety    Category = "PUBLIC_SAFETY"
	CategoryHealthSanit     Category = "HEALTH_SANITATION"
	CategoryEducation       Category = "EDUCATION"
	CategoryElectricity     Category = "ELECTRICITY"
	CategoryWaterSupply     Category = "WATER_SUPPLY"
	CategoryTransport       Category = "TRANSPORT"
	CategoryEnvironment     Category = "ENVIRONMENT"
	CategoryCorruptionGov   Category = "CORRUPTION_GOVERNANCE"
	CategorySocialWelfare   Category = "SOCIAL_WELFARE"
	CategoryOthers          Category = "OTHERS"
)

// AllCategories lists every category for zero-filled distributions.
var AllCategories = []Category{
	CategoryInfrastructure,
	CategoryPublicSafety,
	CategoryHealthSanit,
	CategoryEducation,
	CategoryElectricity,
	CategoryWaterSupply,
	CategoryTransport,
	CategoryEnvironment,
	CategoryCorruptionGov,
	CategorySocialWelfare,
	CategoryOthers,
}

// Submission is the central entity: a citizen-filed grievance or feedback
// record. Title, description, visibility, category, kind and owner are fixed
// at creation. Version is bumped on every update; repository writes are
// guarded on it to catch concurrent modification.
type Submission struct {
	ID                string           `db:"id" json:"id"`
	Title             string           `db:"title" json:"title"`
	Description       string           `db:"description" json:"description"`
	Public            bool             `db:"is_public" json:"is_public"`
	Anonymous         bool             `db:"is_anonymous" json:"is_anonymous"`
	Category          Category         `db:"category" json:"category"`
	Kind              SubmissionKind   `db:"kind" json:"kind"`
	Status            SubmissionStatus `db:"status" json:"status"`
	Deadline          *time.Time       `db:"deadline" json:"deadline,omitempty"`
	EscalationLevel   int              `db:"escalation_level" json:"escalation_level"`
	AssignedOfficerID *string          `db:"assigned_officer_id" json:"assigned_officer_id,omitempty"`
	AdminMessage      *string          `db:"admin_message" json:"admin_message,omitempty"`
	Rating            *int             `db:"rating" json:"rating,omitempty"`
	RatingComment     *string          `db:"rating_comment" json:"rating_comment,omitempty"`
	PhotoURL          *string          `db:"photo_url" json:"photo_url,omitempty"`
	OwnerID           string           `db:"owner_id" json:"owner_id"`
	Version           int              `db:"version" json:"version"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time        `db:"updated_at" json:"updated_at"`
}

// Assigned reports whether an officer is currently assigned.
func (s *Submission) Assigned() bool {
	return s.AssignedOfficerID != nil && *s.AssignedOfficerID != ""
}

// AssignedTo reports whether the submission is assigned to the given officer.
func (s *Submission) AssignedTo(officerID string) bool {
	return s.AssignedOfficerID != nil && *s.AssignedOfficerID == officerID
}

// SubmissionCounts summarises a dashboard scope.
type SubmissionCounts struct {
	Unresolved int `json:"unresolved"`
	Assigned   int `json:"assigned"`
	Rejected   int `json:"rejected"`
	Total      int `json:"total"`
}

// SubmissionStatistics holds the full distribution breakdown for a scope.
type SubmissionStatistics struct {
	TotalGrievances      int            `json:"total_grievances"`
	TotalFeedbacks       int            `json:"total_feedbacks"`
	Submitted            int            `json:"submitted"`
	InProgress           int            `json:"in_progress"`
	Resolved             int            `json:"resolved"`
	Rejected             int            `json:"rejected"`
	Escalated            int            `json:"escalated"`
	StatusDistribution   map[string]int `json:"status_distribution"`
	CategoryDistribution map[string]int `json:"category_distribution"`
	KindDistribution     map[string]int `json:"kind_distribution"`
}

// OfficerRating is the rating rollup for a single officer.
type OfficerRating struct {
	OfficerEmail  string   `json:"officer_email"`
	AverageRating *float64 `json:"average_rating"`
	TotalRatings  int      `json:"total_ratings"`
}

// SubmissionListItem is the list row shown to officers and admins. Citizen
// identity is masked for anonymous submissions.
type SubmissionListItem struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Status          SubmissionStatus `json:"status"`
	Category        Category         `json:"category"`
	Kind            SubmissionKind   `json:"kind"`
	UpdatedAt       time.Time        `json:"updated_at"`
	CitizenName     string           `json:"citizen_name"`
	CitizenEmail    string           `json:"citizen_email"`
	Anonymous       bool             `json:"anonymous"`
	OfficerEmail    *string          `json:"officer_email,omitempty"`
	Deadline        *time.Time       `json:"deadline,omitempty"`
	EscalationLevel int              `json:"escalation_level"`
	PhotoURL        *string          `json:"photo_url,omitempty"`
	AdminMessage    *string          `json:"admin_message,omitempty"`
	Rating          *int             `json:"rating,omitempty"`
	RatingComment   *string          `json:"rating_comment,omitempty"`
}

// OwnedSubmission is the citizen-facing view of one of their submissions.
type OwnedSubmission struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Status          SubmissionStatus `json:"status"`
	Category        Category         `json:"category"`
	Kind            SubmissionKind   `json:"kind"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Deadline        *time.Time       `json:"deadline,omitempty"`
	EscalationLevel int              `json:"escalation_level"`
	PhotoURL        *string          `json:"photo_url,omitempty"`
	AdminMessage    *string          `json:"admin_message,omitempty"`
	Rating          *int             `json:"rating,omitempty"`
	RatingComment   *string          `json:"rating_comment,omitempty"`
	OfficerName     *string          `json:"officer_name,omitempty"`
	OfficerEmail    *string          `json:"officer_email,omitempty"`
}
