package service

import (
	"github.com/civicgrid/grievance-api/internal/models"
	appErrors "github.com/civicgrid/grievance-api/pkg/errors"
)

// operation enumerates every submission operation gated by the policy table.
type operation string

const (
	opSubmit        operation = "submit"
	opListOwn       operation = "list_own"
	opListAssigned  operation = "list_assigned"
	opListAll       operation = "list_all"
	opUpdateStatus  operation = "update_status"
	opAssignOfficer operation = "assign_officer"
	opAssignDeadline operation = "assign_deadline"
	opEscalate      operation = "escalate"
	opWithdraw      operation = "withdraw"
	opDelete        operation = "delete"
	opAdminMessage  operation = "admin_message"
	opRate          operation = "rate"
	opCounts        operation = "counts"
	opStatistics    operation = "statistics"
)

// accessScope narrows a role's grant to a subset of submissions.
type accessScope int

const (
	// scopeAny grants the operation on any submission.
	scopeAny accessScope = iota
	// scopeOwner grants the operation only on submissions the actor created.
	scopeOwner
	// scopeAssignee grants the operation only on submissions assigned to the actor.
	scopeAssignee
)

// policyTable is the single source of truth for who may do what. A role
// absent from an operation's row has no grant at all. Scope checks run
// against the target submission before any state or validation rule.
var policyTable = map[operation]map[models.UserRole]accessScope{
	opSubmit:        {models.RoleCitizen: scopeAny},
	opListOwn:       {models.RoleCitizen: scopeAny},
	opListAssigned:  {models.RoleOfficer: scopeAny},
	opListAll:       {models.RoleAdmin: scopeAny},
	opUpdateStatus:  {models.RoleOfficer: scopeAssignee, models.RoleAdmin: scopeAny},
	opAssignOfficer: {models.RoleAdmin: scopeAny},
	opAssignDeadline: {models.RoleAdmin: scopeAny},
	opEscalate:      {models.RoleCitizen: scopeOwner},
	opWithdraw:      {models.RoleCitizen: scopeOwner},
	opDelete:        {models.RoleOfficer: scopeAssignee, models.RoleAdmin: scopeAny},
	opAdminMessage:  {models.RoleAdmin: scopeAny},
	opRate:          {models.RoleCitizen: scopeOwner},
	opCounts:        {models.RoleOfficer: scopeAny, models.RoleAdmin: scopeAny},
	opStatistics:    {models.RoleOfficer: scopeAny, models.RoleAdmin: scopeAny},
}

// authorize evaluates the policy table for the actor and operation. The
// target may be nil for operations that do not address a single submission.
func authorize(actor *models.User, op operation, target *models.Submission) error {
	if actor == nil {
		return appErrors.Clone(appErrors.ErrForbidden, "missing actor")
	}
	grants, ok := policyTable[op]
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "unknown operation")
	}
	scope, ok := grants[actor.Role]
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "role may not perform this operation")
	}
	switch scope {
	case scopeOwner:
		if target == nil || target.OwnerID != actor.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "not authorized for this submission")
		}
	case scopeAssignee:
		if target == nil || !target.AssignedTo(actor.ID) {
			return appErrors.Clone(appErrors.ErrForbidden, "not authorized for this submission")
		}
	}
	return nil
}
