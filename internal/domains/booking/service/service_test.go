package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"hallbook/config"
	otelMocks "hallbook/infras/otel/mocks"
	"hallbook/internal/domains/booking/event"
	bookingMocks "hallbook/internal/domains/booking/mocks"
	"hallbook/internal/domains/booking/model"
	"hallbook/internal/domains/booking/model/dto"
	"hallbook/internal/domains/booking/repository"
	"hallbook/internal/domains/booking/service"
	"hallbook/internal/domains/booking/workflow"
	hallMocks "hallbook/internal/domains/hall/mocks"
	userMocks "hallbook/internal/domains/user/mocks"
	userModel "hallbook/internal/domains/user/model"
	cacheMocks "hallbook/shared/cache/mocks"
	"hallbook/shared/constant"
	gDto "hallbook/shared/dto"
	"hallbook/shared/failure"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	hallID    = "6f1c1b7e-3f0e-4c2a-9d55-0c3a9d1f7a10"
	bookingID = "b1"
)

type deps struct {
	repo      *bookingMocks.MockBooking
	halls     *hallMocks.MockHall
	users     *userMocks.MockUser
	publisher *bookingMocks.MockPublisher
	cache     *cacheMocks.MockRedisCache
}

// newBareService leaves every cache call to the test.
func newBareService(t *testing.T) (service.Booking, deps) {
	t.Helper()

	ctrl := gomock.NewController(t)

	d := deps{
		repo:      bookingMocks.NewMockBooking(ctrl),
		halls:     hallMocks.NewMockHall(ctrl),
		users:     userMocks.NewMockUser(ctrl),
		publisher: bookingMocks.NewMockPublisher(ctrl),
		cache:     cacheMocks.NewMockRedisCache(ctrl),
	}

	svc := service.New(d.repo, d.halls, d.users, d.publisher, &config.Config{}, d.cache, otelMocks.NewOtel())

	return svc, d
}

func newService(t *testing.T) (service.Booking, deps) {
	t.Helper()

	svc, d := newBareService(t)

	d.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss")).AnyTimes()
	d.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	d.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return svc, d
}

func as(userID, username string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, userID)

	return context.WithValue(ctx, constant.ContextKeyUsername, username)
}

// expectActor makes the user store answer with the given role for userID.
func (d deps) expectActor(userID, role string) {
	d.users.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(userModel.User{ID: userID, Role: role, Active: true}, nil)
}

// expectChange runs the locked step against current and records the written
// columns in written.
func (d deps) expectChange(current model.Booking, written *map[string]any) *gomock.Call {
	return d.repo.EXPECT().Change(gomock.Any(), bookingID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, change repository.ChangeFunc) error {
			changes, err := change(current)
			if written != nil {
				*written = changes
			}

			return err
		})
}

// expectPublish returns a channel that receives the published event.
func (d deps) expectPublish() <-chan event.BookingDecided {
	published := make(chan event.BookingDecided, 1)

	d.publisher.EXPECT().PublishDecision(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, evt event.BookingDecided) error {
			published <- evt

			return nil
		})

	return published
}

func ptr(s string) *string { return &s }

func receive(t *testing.T, published <-chan event.BookingDecided) event.BookingDecided {
	t.Helper()

	select {
	case evt := <-published:
		return evt
	case <-time.After(time.Second):
		t.Fatal("decision was not published")
	}

	return event.BookingDecided{}
}

// Requester creates a booking: it starts pending faculty review, belongs to
// the requester and has no approver yet.
func TestBookingService_Create(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	req := dto.CreateBookingRequest{
		HallID:     hallID,
		EventTitle: "Orientation",
		StartTime:  start,
		EndTime:    start.Add(2 * time.Hour),
	}

	t.Run("starts pending faculty", func(t *testing.T) {
		svc, d := newService(t)

		d.expectActor("r1", constant.RoleRequester)
		d.halls.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)

		var inserted model.Booking

		d.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, booking model.Booking) error {
				inserted = booking

				return nil
			})
		d.repo.EXPECT().GetDetail(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, gDto.FilterGroup) (model.BookingDetail, error) {
				return model.BookingDetail{Booking: inserted, HallName: ptr("Main Hall"), RequesterUsername: ptr("req1")}, nil
			})

		res, err := svc.Create(as("r1", "req1"), req)
		require.NoError(t, err)

		assert.Equal(t, model.StatusPendingFaculty, inserted.Status)
		assert.Equal(t, "r1", inserted.RequesterID)
		assert.Nil(t, inserted.FacultyApproverID)
		assert.Nil(t, inserted.HodApproverID)
		assert.Nil(t, inserted.AdminApproverID)
		assert.Nil(t, inserted.RejectionReason)

		assert.Equal(t, string(model.StatusPendingFaculty), res.Status)
		assert.Equal(t, "req1", res.Requester)
		assert.Equal(t, "Main Hall", res.Hall)
		assert.Nil(t, res.FacultyApprover)
		assert.Nil(t, res.RejectionReason)
	})

	t.Run("unknown hall", func(t *testing.T) {
		svc, d := newService(t)

		d.expectActor("r1", constant.RoleRequester)
		d.halls.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := svc.Create(as("r1", "req1"), req)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("hall deleted concurrently", func(t *testing.T) {
		svc, d := newService(t)

		d.expectActor("r1", constant.RoleRequester)
		d.halls.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		d.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(&pq.Error{Code: constant.PqErrorCodeFkViolation})

		_, err := svc.Create(as("r1", "req1"), req)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.Create(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, failure.GetCode(err))
	})
}

// A booking walks the whole chain: faculty, then hod, then admin.
func TestBookingService_ApproveChain(t *testing.T) {
	steps := []struct {
		actorID string
		role    string
		from    model.Status
		to      model.Status
		field   string
	}{
		{"f1", constant.RoleFaculty, model.StatusPendingFaculty, model.StatusPendingHOD, model.FieldFacultyApproverID},
		{"h1", constant.RoleHOD, model.StatusPendingHOD, model.StatusPendingAdmin, model.FieldHodApproverID},
		{"a1", constant.RoleAdmin, model.StatusPendingAdmin, model.StatusApproved, model.FieldAdminApproverID},
	}

	for _, step := range steps {
		t.Run(step.role, func(t *testing.T) {
			svc, d := newService(t)

			current := model.Booking{ID: bookingID, RequesterID: "r1", Status: step.from}

			var written map[string]any

			d.expectActor(step.actorID, step.role)
			d.expectChange(current, &written)
			published := d.expectPublish()
			d.repo.EXPECT().GetDetail(gomock.Any(), gomock.Any()).
				Return(model.BookingDetail{Booking: model.Booking{ID: bookingID, Status: step.to}}, nil)

			res, err := svc.Approve(as(step.actorID, step.role), bookingID)
			require.NoError(t, err)
			assert.Equal(t, string(step.to), res.Status)

			assert.Equal(t, step.to, written[model.FieldStatus])
			assert.Equal(t, step.actorID, written[step.field])
			assert.Equal(t, step.role, written[constant.FieldModifiedBy])
			assert.NotContains(t, written, model.FieldRejectionReason)

			evt := receive(t, published)
			assert.Equal(t, bookingID, evt.BookingID)
			assert.Equal(t, string(workflow.ActionApprove), evt.Action)
			assert.Equal(t, step.actorID, evt.ActorID)
			assert.Equal(t, step.role, evt.ActorRole)
			assert.Equal(t, string(step.from), evt.StatusBefore)
			assert.Equal(t, string(step.to), evt.StatusAfter)
		})
	}
}

// Faculty approving a booking that already moved on is refused and nothing is
// written.
func TestBookingService_ApproveWrongStage(t *testing.T) {
	svc, d := newService(t)

	current := model.Booking{ID: bookingID, Status: model.StatusPendingHOD, FacultyApproverID: ptr("f1")}

	var written map[string]any

	d.expectActor("f1", constant.RoleFaculty)
	d.expectChange(current, &written)

	_, err := svc.Approve(as("f1", "faculty1"), bookingID)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, failure.GetCode(err))
	assert.Equal(t, "You do not have permission to approve this booking at its current stage.", err.Error())
	assert.Nil(t, written)
}

func TestBookingService_ApproveUsesStoredRole(t *testing.T) {
	svc, d := newService(t)

	// The token says FACULTY but the account was demoted since login.
	ctx := context.WithValue(as("f1", "faculty1"), constant.ContextKeyUserRole, constant.RoleFaculty)

	d.expectActor("f1", constant.RoleRequester)
	d.expectChange(model.Booking{ID: bookingID, Status: model.StatusPendingFaculty}, nil)

	_, err := svc.Approve(ctx, bookingID)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, failure.GetCode(err))
}

func TestBookingService_ApproveErrors(t *testing.T) {
	t.Run("missing booking", func(t *testing.T) {
		svc, d := newService(t)

		d.expectActor("a1", constant.RoleAdmin)
		d.repo.EXPECT().Change(gomock.Any(), "missing", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, change repository.ChangeFunc) error {
				_, err := change(model.Booking{})

				return err
			})

		_, err := svc.Approve(as("a1", "admin"), "missing")
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("database failure is not a client error", func(t *testing.T) {
		svc, d := newService(t)

		d.expectActor("a1", constant.RoleAdmin)
		d.repo.EXPECT().Change(gomock.Any(), bookingID, gomock.Any()).Return(errors.New("connection reset"))

		_, err := svc.Approve(as("a1", "admin"), bookingID)
		require.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, failure.GetCode(err))
	})

	t.Run("deactivated approver", func(t *testing.T) {
		svc, d := newService(t)

		d.users.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(userModel.User{ID: "a1", Role: constant.RoleAdmin}, nil)

		_, err := svc.Approve(as("a1", "admin"), bookingID)
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, failure.GetCode(err))
	})
}

// HoD rejects a booking waiting on them with a reason.
func TestBookingService_Reject(t *testing.T) {
	t.Run("hod with reason", func(t *testing.T) {
		svc, d := newService(t)

		current := model.Booking{ID: bookingID, Status: model.StatusPendingHOD, FacultyApproverID: ptr("f1")}

		var written map[string]any

		d.expectActor("h1", constant.RoleHOD)
		d.expectChange(current, &written)
		published := d.expectPublish()
		d.repo.EXPECT().GetDetail(gomock.Any(), gomock.Any()).Return(model.BookingDetail{
			Booking: model.Booking{
				ID:              bookingID,
				Status:          model.StatusRejected,
				RejectionReason: ptr("Hall unavailable"),
			},
			FacultyApprover: ptr("faculty1"),
			HodApprover:     ptr("hod1"),
		}, nil)

		res, err := svc.Reject(as("h1", "hod1"), dto.RejectBookingRequest{Reason: "Hall unavailable"}, bookingID)
		require.NoError(t, err)

		assert.Equal(t, model.StatusRejected, written[model.FieldStatus])
		assert.Equal(t, "Hall unavailable", written[model.FieldRejectionReason])
		assert.Equal(t, "h1", written[model.FieldHodApproverID])
		assert.Equal(t, "h1", written[model.FieldRejectedByID])
		assert.NotContains(t, written, model.FieldFacultyApproverID)

		assert.Equal(t, string(model.StatusRejected), res.Status)
		require.NotNil(t, res.RejectionReason)
		assert.Equal(t, "Hall unavailable", *res.RejectionReason)
		assert.Equal(t, "hod1", *res.HodApprover)

		evt := receive(t, published)
		assert.Equal(t, string(workflow.ActionReject), evt.Action)
		require.NotNil(t, evt.Reason)
		assert.Equal(t, "Hall unavailable", *evt.Reason)
	})

	t.Run("requester may not reject", func(t *testing.T) {
		svc, d := newService(t)

		var written map[string]any

		d.expectActor("r1", constant.RoleRequester)
		d.expectChange(model.Booking{ID: bookingID, RequesterID: "r1", Status: model.StatusPendingFaculty}, &written)

		_, err := svc.Reject(as("r1", "req1"), dto.RejectBookingRequest{}, bookingID)
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, failure.GetCode(err))
		assert.Equal(t, "You do not have permission to reject this booking.", err.Error())
		assert.Nil(t, written)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		svc, d := newService(t)

		done := make(chan struct{})

		d.expectActor("f1", constant.RoleFaculty)
		d.expectChange(model.Booking{ID: bookingID, Status: model.StatusPendingFaculty}, nil)
		d.publisher.EXPECT().PublishDecision(gomock.Any(), gomock.Any()).
			DoAndReturn(func(context.Context, event.BookingDecided) error {
				close(done)

				return errors.New("no brokers")
			})
		d.repo.EXPECT().GetDetail(gomock.Any(), gomock.Any()).
			Return(model.BookingDetail{Booking: model.Booking{ID: bookingID, Status: model.StatusRejected}}, nil)

		_, err := svc.Reject(as("f1", "faculty1"), dto.RejectBookingRequest{}, bookingID)
		require.NoError(t, err)

		<-done
	})
}

// Approver history spans every stage the user stamped and every rejection
// they made, newest first.
func TestBookingService_History(t *testing.T) {
	svc, d := newService(t)

	params := gDto.QueryParams{Page: 1, Limit: 10}

	b1 := model.BookingDetail{Booking: model.Booking{ID: "b1", Status: model.StatusApproved, AdminApproverID: ptr("a1")}}
	b2 := model.BookingDetail{Booking: model.Booking{ID: "b2", Status: model.StatusRejected, AdminApproverID: ptr("a1")}}

	d.repo.EXPECT().CountDetails(gomock.Any(), gomock.Any()).Return(2, nil)
	d.repo.EXPECT().GetAllDetails(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got gDto.QueryParams, filter gDto.FilterGroup) ([]model.BookingDetail, error) {
			assert.Equal(t, constant.FieldCreatedAt, got.SortBy)
			assert.Equal(t, gDto.SortDirDesc, got.SortDir)

			where, args := filter.GetWhereClause()
			assert.Equal(t, "(bookings.faculty_approver_id = :faculty_approver_id OR "+
				"bookings.hod_approver_id = :hod_approver_id OR "+
				"bookings.admin_approver_id = :admin_approver_id OR "+
				"bookings.rejected_by_id = :rejected_by_id)", where)
			assert.Equal(t, map[string]any{
				model.FieldFacultyApproverID: "a1",
				model.FieldHodApproverID:     "a1",
				model.FieldAdminApproverID:   "a1",
				model.FieldRejectedByID:      "a1",
			}, args)

			return []model.BookingDetail{b2, b1}, nil
		})

	res, err := svc.History(as("a1", "admin"), params)
	require.NoError(t, err)
	require.Len(t, res.Bookings, 2)
	assert.Equal(t, "b2", res.Bookings[0].ID)
	assert.Equal(t, "b1", res.Bookings[1].ID)
	assert.Equal(t, 2, res.TotalData)
}

func TestBookingService_Queue(t *testing.T) {
	tests := []struct {
		role   string
		status model.Status
	}{
		{constant.RoleFaculty, model.StatusPendingFaculty},
		{constant.RoleHOD, model.StatusPendingHOD},
		{constant.RoleAdmin, model.StatusPendingAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			svc, d := newService(t)

			d.expectActor("u1", tt.role)
			d.repo.EXPECT().CountDetails(gomock.Any(), gomock.Any()).Return(1, nil)
			d.repo.EXPECT().GetAllDetails(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, params gDto.QueryParams, filter gDto.FilterGroup) ([]model.BookingDetail, error) {
					assert.Equal(t, gDto.SortDirAsc, params.SortDir)

					_, args := filter.GetWhereClause()
					assert.Equal(t, tt.status, args[model.FieldStatus])

					return []model.BookingDetail{{Booking: model.Booking{ID: "b1", Status: tt.status}}}, nil
				})

			res, err := svc.Queue(as("u1", "user"), gDto.QueryParams{Page: 1, Limit: 10})
			require.NoError(t, err)
			require.Len(t, res.Bookings, 1)
		})
	}

	t.Run("requester has no queue", func(t *testing.T) {
		svc, d := newService(t)

		d.expectActor("r1", constant.RoleRequester)

		res, err := svc.Queue(as("r1", "req1"), gDto.QueryParams{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, res.Bookings)
		assert.NotNil(t, res.Bookings)
		assert.Equal(t, 0, res.TotalData)
	})
}

func TestBookingService_GetAllScope(t *testing.T) {
	statusFilter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldStatus, Operator: gDto.FilterOperatorEq, Value: "APPROVED", Table: model.TableName},
		},
	}

	tests := []struct {
		name      string
		role      string
		filter    gDto.FilterGroup
		wantWhere string
	}{
		{
			name:      "requester sees own",
			role:      constant.RoleRequester,
			wantWhere: "(bookings.requester_id = :requester_id)",
		},
		{
			name:      "requester filter is narrowed",
			role:      constant.RoleRequester,
			filter:    statusFilter,
			wantWhere: "((bookings.status = :status) AND bookings.requester_id = :requester_id)",
		},
		{
			name:      "hod sees all",
			role:      constant.RoleHOD,
			filter:    statusFilter,
			wantWhere: "(bookings.status = :status)",
		},
		{
			name: "admin sees all",
			role: constant.RoleAdmin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newService(t)

			d.expectActor("u1", tt.role)
			d.repo.EXPECT().CountDetails(gomock.Any(), gomock.Any()).Return(0, nil)
			d.repo.EXPECT().GetAllDetails(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup) ([]model.BookingDetail, error) {
					where, _ := filter.GetWhereClause()
					assert.Equal(t, tt.wantWhere, where)

					return nil, nil
				})

			_, err := svc.GetAll(as("u1", "user"), gDto.QueryParams{Page: 1, Limit: 10}, tt.filter)
			require.NoError(t, err)
		})
	}
}

func TestBookingService_Get(t *testing.T) {
	detail := model.BookingDetail{Booking: model.Booking{ID: bookingID, RequesterID: "r1", Status: model.StatusPendingFaculty}}

	tests := []struct {
		name     string
		actorID  string
		role     string
		wantCode int
	}{
		{name: "owner", actorID: "r1", role: constant.RoleRequester},
		{name: "other requester", actorID: "r2", role: constant.RoleRequester, wantCode: http.StatusNotFound},
		{name: "faculty", actorID: "f1", role: constant.RoleFaculty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newService(t)

			d.expectActor(tt.actorID, tt.role)
			d.repo.EXPECT().GetDetail(gomock.Any(), gomock.Any()).Return(detail, nil)

			res, err := svc.Get(as(tt.actorID, "user"), bookingID)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, bookingID, res.ID)
		})
	}
}

func TestBookingService_Update(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	pending := model.Booking{ID: bookingID, RequesterID: "r1", HallID: hallID, Status: model.StatusPendingFaculty, StartTime: start, EndTime: start.Add(time.Hour)}
	advanced := pending
	advanced.Status = model.StatusPendingHOD

	earlier := start.Add(-time.Hour)
	later := start.Add(3 * time.Hour)
	otherHall := "0b8f7f7e-8f2c-4b59-9a07-1f3cf6c0d111"

	tests := []struct {
		name     string
		actorID  string
		role     string
		current  model.Booking
		req      dto.UpdateBookingRequest
		setup    func(d deps)
		check    func(t *testing.T, written map[string]any)
		wantCode int
	}{
		{
			name:    "owner while pending faculty",
			actorID: "r1",
			role:    constant.RoleRequester,
			current: pending,
			req:     dto.UpdateBookingRequest{EventTitle: "Renamed", EndTime: &later},
			check: func(t *testing.T, written map[string]any) {
				assert.Equal(t, "Renamed", written[model.FieldEventTitle])
				assert.Equal(t, &later, written[model.FieldEndTime])
				assert.NotContains(t, written, model.FieldStatus)
			},
		},
		{
			// the approval committed before the owner's write took the lock
			name:     "owner after first approval",
			actorID:  "r1",
			role:     constant.RoleRequester,
			current:  advanced,
			req:      dto.UpdateBookingRequest{EventTitle: "Renamed"},
			wantCode: http.StatusForbidden,
		},
		{
			name:     "someone else's booking",
			actorID:  "r2",
			role:     constant.RoleRequester,
			current:  pending,
			req:      dto.UpdateBookingRequest{EventTitle: "Renamed"},
			wantCode: http.StatusForbidden,
		},
		{
			name:    "admin at any stage",
			actorID: "a1",
			role:    constant.RoleAdmin,
			current: advanced,
			req:     dto.UpdateBookingRequest{HallID: otherHall},
			setup: func(d deps) {
				d.halls.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			check: func(t *testing.T, written map[string]any) {
				assert.Equal(t, otherHall, written[model.FieldHallID])
			},
		},
		{
			name:     "window turned around",
			actorID:  "r1",
			role:     constant.RoleRequester,
			current:  pending,
			req:      dto.UpdateBookingRequest{EndTime: &earlier},
			wantCode: http.StatusBadRequest,
		},
		{
			name:    "unknown hall",
			actorID: "a1",
			role:    constant.RoleAdmin,
			current: pending,
			req:     dto.UpdateBookingRequest{HallID: otherHall},
			setup: func(d deps) {
				d.halls.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing booking",
			actorID:  "a1",
			role:     constant.RoleAdmin,
			current:  model.Booking{},
			req:      dto.UpdateBookingRequest{EventTitle: "Renamed"},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newService(t)

			var written map[string]any

			d.expectActor(tt.actorID, tt.role)
			d.expectChange(tt.current, &written)

			if tt.setup != nil {
				tt.setup(d)
			}

			err := svc.Update(as(tt.actorID, "user"), tt.req, bookingID)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
				assert.Nil(t, written)

				return
			}

			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t, written)
			}
		})
	}

	t.Run("hall removed before commit", func(t *testing.T) {
		svc, d := newService(t)

		d.expectActor("a1", constant.RoleAdmin)
		d.repo.EXPECT().Change(gomock.Any(), bookingID, gomock.Any()).
			Return(&pq.Error{Code: constant.PqErrorCodeFkViolation})

		err := svc.Update(as("a1", "admin"), dto.UpdateBookingRequest{EventTitle: "Renamed"}, bookingID)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("invalidates before returning", func(t *testing.T) {
		svc, d := newBareService(t)

		d.expectActor("r1", constant.RoleRequester)
		d.expectChange(pending, nil)
		d.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		require.NoError(t, svc.Update(as("r1", "alice"), dto.UpdateBookingRequest{EventTitle: "Renamed"}, bookingID))
	})

	t.Run("empty request", func(t *testing.T) {
		svc, _ := newService(t)

		err := svc.Update(as("a1", "admin"), dto.UpdateBookingRequest{}, bookingID)
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

// A detail cached before the decision must not leak into the decision's reply.
func TestBookingService_DecisionIgnoresCachedDetail(t *testing.T) {
	svc, d := newBareService(t)

	stale := model.BookingDetail{Booking: model.Booking{ID: bookingID, RequesterID: "r1", Status: model.StatusPendingFaculty}}
	fresh := model.BookingDetail{Booking: model.Booking{ID: bookingID, RequesterID: "r1", Status: model.StatusPendingHOD}}

	d.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, dest any) error {
			*dest.(*model.BookingDetail) = stale

			return nil
		}).AnyTimes()

	d.expectActor("f1", constant.RoleFaculty)
	d.expectChange(stale.Booking, nil)
	published := d.expectPublish()

	gomock.InOrder(
		d.cache.EXPECT().Delete(gomock.Any(), "booking:get:"+bookingID).Return(nil),
		d.repo.EXPECT().GetDetail(gomock.Any(), gomock.Any()).Return(fresh, nil),
	)

	res, err := svc.Approve(as("f1", "faculty1"), bookingID)
	require.NoError(t, err)
	assert.Equal(t, string(model.StatusPendingHOD), res.Status)

	receive(t, published)
}

func TestBookingService_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, d := newService(t)

		d.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		d.repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		require.NoError(t, svc.Delete(as("a1", "admin"), bookingID))
	})

	t.Run("not found", func(t *testing.T) {
		svc, d := newService(t)

		d.repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		err := svc.Delete(as("a1", "admin"), bookingID)
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestBookingService_Report(t *testing.T) {
	svc, d := newService(t)

	d.repo.EXPECT().CountByStatus(gomock.Any()).Return([]model.StatusCount{
		{Status: model.StatusApproved, Total: 2},
		{Status: model.StatusRejected, Total: 1},
		{Status: model.StatusPendingHOD, Total: 4},
	}, nil)
	d.repo.EXPECT().CountByHall(gomock.Any()).Return([]model.HallUsage{
		{HallID: "h1", HallName: "Main Hall", Total: 7},
		{HallID: "h2", HallName: "Annex", Total: 0},
	}, nil)

	res, err := svc.Report(as("a1", "admin"))
	require.NoError(t, err)

	assert.Equal(t, 7, res.Total)
	assert.Equal(t, 67, res.ApprovalRate)
	assert.Equal(t, 0, res.ByStatus[string(model.StatusPendingFaculty)])
	assert.Equal(t, 4, res.ByStatus[string(model.StatusPendingHOD)])
	require.Len(t, res.Halls, 2)
	assert.Equal(t, 0, res.Halls[1].Total)
}
