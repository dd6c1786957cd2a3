package model

import (
	"time"

	"hallbook/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID                = "id"
	FieldRequesterID       = "requester_id"
	FieldHallID            = "hall_id"
	FieldEventTitle        = "event_title"
	FieldEventDescription  = "event_description"
	FieldStartTime         = "start_time"
	FieldEndTime           = "end_time"
	FieldStatus            = "status"
	FieldFacultyApproverID = "faculty_approver_id"
	FieldHodApproverID     = "hod_approver_id"
	FieldAdminApproverID   = "admin_approver_id"
	FieldRejectionReason   = "rejection_reason"
	FieldRejectedByID      = "rejected_by_id"

	// SortableFields are the columns a list may be ordered by.
	SortableFields = "created_at start_time end_time event_title status"
)

type Status string

const (
	StatusPendingFaculty Status = "PENDING_FACULTY"
	StatusPendingHOD     Status = "PENDING_HOD"
	StatusPendingAdmin   Status = "PENDING_ADMIN"
	StatusApproved       Status = "APPROVED"
	StatusRejected       Status = "REJECTED"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusPendingFaculty,
	StatusPendingHOD,
	StatusPendingAdmin,
	StatusApproved,
	StatusRejected,
}

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s Status) IsValid() bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}

	return false
}

type Booking struct {
	ID                string    `db:"id"`
	RequesterID       string    `db:"requester_id"`
	HallID            string    `db:"hall_id"`
	EventTitle        string    `db:"event_title"`
	EventDescription  string    `db:"event_description"`
	StartTime         time.Time `db:"start_time"`
	EndTime           time.Time `db:"end_time"`
	Status            Status    `db:"status"`
	FacultyApproverID *string   `db:"faculty_approver_id"`
	HodApproverID     *string   `db:"hod_approver_id"`
	AdminApproverID   *string   `db:"admin_approver_id"`
	RejectionReason   *string   `db:"rejection_reason"`
	RejectedByID      *string   `db:"rejected_by_id"`
	model.Metadata
}

// BookingDetail is the read side of a booking with the names of the hall and
// of every user it references.
type BookingDetail struct {
	Booking
	HallName          *string `db:"hall_name"          table:"halls"     column:"name"`
	RequesterUsername *string `db:"requester_username" table:"requester" column:"username"`
	FacultyApprover   *string `db:"faculty_approver"   table:"faculty"   column:"username"`
	HodApprover       *string `db:"hod_approver"       table:"hod"       column:"username"`
	AdminApprover     *string `db:"admin_approver"     table:"admin"     column:"username"`
	RejectedBy        *string `db:"rejected_by"        table:"rejecter"  column:"username"`
}

func (BookingDetail) GetJoinQuery() string {
	return `LEFT JOIN halls ON halls.id = bookings.hall_id
		LEFT JOIN users requester ON requester.id = bookings.requester_id
		LEFT JOIN users faculty ON faculty.id = bookings.faculty_approver_id
		LEFT JOIN users hod ON hod.id = bookings.hod_approver_id
		LEFT JOIN users admin ON admin.id = bookings.admin_approver_id
		LEFT JOIN users rejecter ON rejecter.id = bookings.rejected_by_id`
}

// StatusCount is one row of the per status report.
type StatusCount struct {
	Status Status `db:"status"`
	Total  int    `db:"total"`
}

// HallUsage is one row of the per hall report.
type HallUsage struct {
	HallID   string `db:"hall_id"`
	HallName string `db:"hall_name"`
	Total    int    `db:"total"`
}
