// Package workflow holds the booking approval state machine. It is pure: it
// reads a booking and an actor and reports the columns a decision changes,
// leaving persistence to the caller.
package workflow

import (
	"strings"

	"hallbook/internal/domains/booking/model"
	"hallbook/shared/constant"
	"hallbook/shared/failure"
)

const (
	DefaultRejectionReason = "No reason provided."

	msgApproveForbidden = "You do not have permission to approve this booking at its current stage."
	msgRejectForbidden  = "You do not have permission to reject this booking."
)

type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
)

// Actor is the user taking a decision, with the role read from the user store.
type Actor struct {
	ID   string
	Role string
}

type key struct {
	status model.Status
	role   string
}

type transition struct {
	next  model.Status
	field string
}

var approvals = map[key]transition{
	{model.StatusPendingFaculty, constant.RoleFaculty}: {model.StatusPendingHOD, model.FieldFacultyApproverID},
	{model.StatusPendingHOD, constant.RoleHOD}:         {model.StatusPendingAdmin, model.FieldHodApproverID},
	{model.StatusPendingAdmin, constant.RoleAdmin}:     {model.StatusApproved, model.FieldAdminApproverID},
}

// approverFields maps an approver role to the column it stamps.
var approverFields = map[string]string{
	constant.RoleFaculty: model.FieldFacultyApproverID,
	constant.RoleHOD:     model.FieldHodApproverID,
	constant.RoleAdmin:   model.FieldAdminApproverID,
}

// Decision is the outcome of a legal transition.
type Decision struct {
	Action  Action
	From    model.Status
	To      model.Status
	Reason  *string
	Changes map[string]any
}

// Approve advances booking by one stage when the actor holds the role of the
// current stage. Status and approver stamp are reported together.
func Approve(booking model.Booking, actor Actor) (Decision, error) {
	next, ok := approvals[key{booking.Status, actor.Role}]
	if !ok {
		return Decision{}, failure.Forbidden(msgApproveForbidden)
	}

	return Decision{
		Action: ActionApprove,
		From:   booking.Status,
		To:     next.next,
		Changes: map[string]any{
			model.FieldStatus: next.next,
			next.field:        actor.ID,
		},
	}, nil
}

// Reject ends a pending booking at any stage. Any approver role may reject;
// approved and rejected bookings are final. A blank reason is replaced with
// DefaultRejectionReason. An approver column that is already stamped keeps its
// original value, the rejecter is always recorded separately.
func Reject(booking model.Booking, actor Actor, reason string) (Decision, error) {
	field, ok := approverFields[actor.Role]
	if !ok || booking.Status.IsTerminal() {
		return Decision{}, failure.Forbidden(msgRejectForbidden)
	}

	reason = strings.TrimSpace(reason)
	if reason == constant.Empty {
		reason = DefaultRejectionReason
	}

	changes := map[string]any{
		model.FieldStatus:          model.StatusRejected,
		model.FieldRejectionReason: reason,
		model.FieldRejectedByID:    actor.ID,
	}

	if stamp(booking, field) == nil {
		changes[field] = actor.ID
	}

	return Decision{
		Action:  ActionReject,
		From:    booking.Status,
		To:      model.StatusRejected,
		Reason:  &reason,
		Changes: changes,
	}, nil
}

// QueueStatus is the status a role works on, false for roles without a queue.
func QueueStatus(role string) (model.Status, bool) {
	for k := range approvals {
		if k.role == role {
			return k.status, true
		}
	}

	return constant.Empty, false
}

func stamp(booking model.Booking, field string) *string {
	switch field {
	case model.FieldFacultyApproverID:
		return booking.FacultyApproverID
	case model.FieldHodApproverID:
		return booking.HodApproverID
	case model.FieldAdminApproverID:
		return booking.AdminApproverID
	}

	return nil
}
