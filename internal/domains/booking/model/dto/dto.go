package dto

import (
	"math"
	"time"

	"hallbook/internal/domains/booking/model"
	"hallbook/shared"
	"hallbook/shared/constant"
	gModel "hallbook/shared/model"
	"hallbook/shared/timezone"

	"github.com/google/uuid"
)

// CreateBookingRequest is what a requester may send. Status and requester are
// assigned by the server, so they are not part of the payload.
type CreateBookingRequest struct {
	HallID           string    `json:"hall_id"           validate:"required,uuid"`
	EventTitle       string    `json:"event_title"       validate:"required,max=200"`
	EventDescription string    `json:"event_description" validate:"omitempty,max=2000"`
	StartTime        time.Time `json:"start_time"        validate:"required"`
	EndTime          time.Time `json:"end_time"          validate:"required,gtfield=StartTime"`
}

func (r *CreateBookingRequest) ToModel(requesterID, actor string) model.Booking {
	now := timezone.Now()

	return model.Booking{
		ID:               uuid.NewString(),
		RequesterID:      requesterID,
		HallID:           r.HallID,
		EventTitle:       r.EventTitle,
		EventDescription: r.EventDescription,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		Status:           model.StatusPendingFaculty,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  actor,
			ModifiedBy: actor,
		},
	}
}

// UpdateBookingRequest patches the descriptive fields and the hall. The time
// window is checked against the stored booking since either end may be absent.
type UpdateBookingRequest struct {
	HallID           string     `db:"hall_id"           json:"hall_id,omitempty"           validate:"omitempty,uuid"`
	EventTitle       string     `db:"event_title"       json:"event_title,omitempty"       validate:"omitempty,max=200"`
	EventDescription *string    `db:"event_description" json:"event_description,omitempty" validate:"omitempty,max=2000"`
	StartTime        *time.Time `db:"start_time"        json:"start_time,omitempty"`
	EndTime          *time.Time `db:"end_time"          json:"end_time,omitempty"`
}

func (r *UpdateBookingRequest) IsEmpty() bool {
	return r.HallID == constant.Empty && r.EventTitle == constant.Empty && r.EventDescription == nil &&
		r.StartTime == nil && r.EndTime == nil
}

// Window returns the time window the booking would have after the update.
func (r *UpdateBookingRequest) Window(current model.Booking) (start, end time.Time) {
	start, end = current.StartTime, current.EndTime

	if r.StartTime != nil {
		start = *r.StartTime
	}

	if r.EndTime != nil {
		end = *r.EndTime
	}

	return start, end
}

type RejectBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// BookingResponse is the v1 representation of a booking. Approvers are shown
// by username and left out until stamped.
type BookingResponse struct {
	ID               string  `json:"id"`
	EventTitle       string  `json:"event_title"`
	EventDescription string  `json:"event_description"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	Hall             string  `json:"hall"`
	HallID           string  `json:"hall_id"`
	Requester        string  `json:"requester"`
	Status           string  `json:"status"`
	FacultyApprover  *string `json:"faculty_approver,omitempty"`
	HodApprover      *string `json:"hod_approver,omitempty"`
	AdminApprover    *string `json:"admin_approver,omitempty"`
	RejectionReason  *string `json:"rejection_reason,omitempty"`
	RejectedBy       *string `json:"rejected_by,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

func (r *BookingResponse) FromModel(detail model.BookingDetail) {
	r.ID = detail.ID
	r.EventTitle = detail.EventTitle
	r.EventDescription = detail.EventDescription
	r.StartTime = timezone.Format(detail.StartTime, constant.DateFormat)
	r.EndTime = timezone.Format(detail.EndTime, constant.DateFormat)
	r.Hall = deref(detail.HallName)
	r.HallID = detail.HallID
	r.Requester = deref(detail.RequesterUsername)
	r.Status = string(detail.Status)
	r.FacultyApprover = detail.FacultyApprover
	r.HodApprover = detail.HodApprover
	r.AdminApprover = detail.AdminApprover
	r.CreatedAt = timezone.Format(detail.CreatedAt, constant.DateFormat)

	if detail.Status == model.StatusRejected {
		r.RejectionReason = detail.RejectionReason
		r.RejectedBy = detail.RejectedBy
	}
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.BookingDetail, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

type HallUsageResponse struct {
	HallID   string `json:"hall_id"`
	HallName string `json:"hall_name"`
	Total    int    `json:"total"`
}

type ReportResponse struct {
	Total        int                 `json:"total"`
	ByStatus     map[string]int      `json:"by_status"`
	ApprovalRate int                 `json:"approval_rate"`
	Halls        []HallUsageResponse `json:"halls"`
}

// FromModels fills the report. Every status is present in ByStatus, and the
// approval rate is the share of approved among decided bookings.
func (r *ReportResponse) FromModels(statuses []model.StatusCount, halls []model.HallUsage) {
	r.ByStatus = make(map[string]int, len(model.Statuses))
	for _, status := range model.Statuses {
		r.ByStatus[string(status)] = 0
	}

	r.Total = 0
	for _, row := range statuses {
		r.ByStatus[string(row.Status)] += row.Total
		r.Total += row.Total
	}

	approved := r.ByStatus[string(model.StatusApproved)]
	decided := approved + r.ByStatus[string(model.StatusRejected)]

	r.ApprovalRate = 0
	if decided > 0 {
		r.ApprovalRate = int(math.Round(float64(approved) / float64(decided) * 100))
	}

	r.Halls = make([]HallUsageResponse, len(halls))
	for i, hall := range halls {
		r.Halls[i] = HallUsageResponse{
			HallID:   hall.HallID,
			HallName: hall.HallName,
			Total:    hall.Total,
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return constant.Empty
	}

	return *s
}
