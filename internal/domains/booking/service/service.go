package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Booking=MockBookingService

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"hallbook/config"
	"hallbook/infras/otel"
	"hallbook/internal/domains/booking/event"
	"hallbook/internal/domains/booking/model"
	"hallbook/internal/domains/booking/model/dto"
	"hallbook/internal/domains/booking/repository"
	"hallbook/internal/domains/booking/workflow"
	hallModel "hallbook/internal/domains/hall/model"
	hallRepo "hallbook/internal/domains/hall/repository"
	userModel "hallbook/internal/domains/user/model"
	userRepo "hallbook/internal/domains/user/repository"
	"hallbook/shared"
	"hallbook/shared/cache"
	"hallbook/shared/constant"
	gDto "hallbook/shared/dto"
	"hallbook/shared/failure"
	"hallbook/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetBooking = "booking:get"

	msgBookingNotFound = "booking not found"
	msgHallNotFound    = "hall does not exist"
	msgUpdateForbidden = "You do not have permission to update this booking."
	msgInvalidWindow   = "end_time must be after start_time"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	Update(ctx context.Context, req dto.UpdateBookingRequest, id string) error
	Delete(ctx context.Context, id string) error
	Approve(ctx context.Context, id string) (dto.BookingResponse, error)
	Reject(ctx context.Context, req dto.RejectBookingRequest, id string) (dto.BookingResponse, error)
	Queue(ctx context.Context, req gDto.QueryParams) (dto.GetBookingsResponse, error)
	History(ctx context.Context, req gDto.QueryParams) (dto.GetBookingsResponse, error)
	Report(ctx context.Context) (dto.ReportResponse, error)
}

type serviceImpl struct {
	repo      repository.Booking
	hallRepo  hallRepo.Hall
	userRepo  userRepo.User
	publisher event.Publisher
	cfg       *config.Config
	cache     cache.RedisCache
	otel      otel.Otel
}

func New(
	repo repository.Booking,
	hallRepo hallRepo.Hall,
	userRepo userRepo.User,
	publisher event.Publisher,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:      repo,
		hallRepo:  hallRepo,
		userRepo:  userRepo,
		publisher: publisher,
		cfg:       cfg,
		cache:     cache,
		otel:      otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor, err := s.actor(ctx)
	if err != nil {
		return res, err
	}

	if err = s.ensureHall(ctx, req.HallID); err != nil {
		return res, err
	}

	booking := req.ToModel(actor.ID, shared.UsernameFromContext(ctx))

	if err = s.repo.Insert(ctx, booking); err != nil {
		if shared.IsPqError(err, constant.PqErrorCodeFkViolation) {
			return res, failure.BadRequestFromString(msgHallNotFound)
		}

		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	return s.detail(ctx, booking.ID)
}

// GetAll lists bookings. Requesters only ever see their own.
func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor, err := s.actor(ctx)
	if err != nil {
		return res, err
	}

	if actor.Role == constant.RoleRequester {
		filter = and(filter, gDto.Filter{
			Field:    model.FieldRequesterID,
			Operator: gDto.FilterOperatorEq,
			Value:    actor.ID,
			Table:    model.TableName,
		})
	}

	return s.list(ctx, req, filter)
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor, err := s.actor(ctx)
	if err != nil {
		return res, err
	}

	detail, err := s.getDetail(ctx, id)
	if err != nil {
		return res, err
	}

	if actor.Role == constant.RoleRequester && detail.RequesterID != actor.ID {
		return res, failure.NotFound(msgBookingNotFound)
	}

	res.FromModel(detail)

	return res, nil
}

// Update changes the descriptive fields or the hall. The owner may do so while
// nobody has approved yet, an admin at any time. The check and the write share
// the row lock that decisions take.
func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateBookingRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if req.IsEmpty() {
		return failure.BadRequestFromString("update request cannot be empty")
	}

	actor, err := s.actor(ctx)
	if err != nil {
		return err
	}

	err = s.repo.Change(ctx, id, func(current model.Booking) (map[string]any, error) {
		if current.ID == constant.Empty {
			return nil, failure.NotFound(msgBookingNotFound)
		}

		owner := current.RequesterID == actor.ID && current.Status == model.StatusPendingFaculty
		if actor.Role != constant.RoleAdmin && !owner {
			return nil, failure.Forbidden(msgUpdateForbidden)
		}

		if start, end := req.Window(current); !start.Before(end) {
			return nil, failure.BadRequestFromString(msgInvalidWindow)
		}

		if req.HallID != constant.Empty && req.HallID != current.HallID {
			if hallErr := s.ensureHall(ctx, req.HallID); hallErr != nil {
				return nil, hallErr
			}
		}

		return shared.TransformFields(req, shared.UsernameFromContext(ctx)), nil
	})
	if err != nil {
		var fail *failure.Failure
		if errors.As(err, &fail) {
			return err
		}

		if shared.IsPqError(err, constant.PqErrorCodeFkViolation) {
			return failure.BadRequestFromString(msgHallNotFound)
		}

		log.Error().Err(err).Str("id", id).Msg("failed to update booking")

		return fmt.Errorf("failed to update booking: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if booking exists")

		return fmt.Errorf("failed to check if booking exists: %w", err)
	}

	if !exist {
		return failure.NotFound(msgBookingNotFound)
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete booking")

		return fmt.Errorf("failed to delete booking: %w", err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *serviceImpl) Approve(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Approve")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.decide(ctx, id, func(current model.Booking, actor workflow.Actor) (workflow.Decision, error) {
		return workflow.Approve(current, actor)
	})
}

func (s *serviceImpl) Reject(ctx context.Context, req dto.RejectBookingRequest, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reject")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	return s.decide(ctx, id, func(current model.Booking, actor workflow.Actor) (workflow.Decision, error) {
		return workflow.Reject(current, actor, req.Reason)
	})
}

// Queue lists what waits for the caller's role, oldest first. Requesters have
// no queue.
func (s *serviceImpl) Queue(ctx context.Context, req gDto.QueryParams) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Queue")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actor, err := s.actor(ctx)
	if err != nil {
		return res, err
	}

	status, ok := workflow.QueueStatus(actor.Role)
	if !ok {
		res.FromModels(nil, 0, req.Limit)

		return res, nil
	}

	req.SortBy = constant.FieldCreatedAt
	req.SortDir = gDto.SortDirAsc

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldStatus,
				Operator: gDto.FilterOperatorEq,
				Value:    status,
				Table:    model.TableName,
			},
		},
	}

	return s.list(ctx, req, filter)
}

// History lists the bookings the caller decided on, newest first.
func (s *serviceImpl) History(ctx context.Context, req gDto.QueryParams) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".History")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	actorID := shared.UserIDFromContext(ctx)
	if actorID == constant.Empty {
		return res, failure.Unauthorized("authentication required")
	}

	req.SortBy = constant.FieldCreatedAt
	req.SortDir = gDto.SortDirDesc

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorOr,
		Filters: []any{
			approverFilter(model.FieldFacultyApproverID, actorID),
			approverFilter(model.FieldHodApproverID, actorID),
			approverFilter(model.FieldAdminApproverID, actorID),
			approverFilter(model.FieldRejectedByID, actorID),
		},
	}

	return s.list(ctx, req, filter)
}

func (s *serviceImpl) Report(ctx context.Context) (res dto.ReportResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Report")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	statuses, err := s.repo.CountByStatus(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings by status")

		return res, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	halls, err := s.repo.CountByHall(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings by hall")

		return res, fmt.Errorf("failed to count bookings by hall: %w", err)
	}

	res.FromModels(statuses, halls)

	return res, nil
}

type decideFunc func(current model.Booking, actor workflow.Actor) (workflow.Decision, error)

// decide runs one workflow step under the booking row lock, then publishes the
// outcome and returns the booking as committed. The read back skips the cache.
func (s *serviceImpl) decide(ctx context.Context, id string, step decideFunc) (res dto.BookingResponse, err error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return res, err
	}

	var decision workflow.Decision

	err = s.repo.Change(ctx, id, func(current model.Booking) (map[string]any, error) {
		if current.ID == constant.Empty {
			return nil, failure.NotFound(msgBookingNotFound)
		}

		outcome, stepErr := step(current, actor)
		if stepErr != nil {
			return nil, stepErr
		}

		decision = outcome

		changes := maps.Clone(decision.Changes)
		changes[constant.FieldModifiedAt] = timezone.Now()
		changes[constant.FieldModifiedBy] = shared.UsernameFromContext(ctx)

		return changes, nil
	})
	if err != nil {
		var fail *failure.Failure
		if errors.As(err, &fail) {
			return res, err
		}

		log.Error().Err(err).Str("id", id).Msg("failed to decide booking")

		return res, fmt.Errorf("failed to decide booking: %w", err)
	}

	log.Info().
		Str("booking_id", id).
		Str("actor_id", actor.ID).
		Str("action", string(decision.Action)).
		Str("from", string(decision.From)).
		Str("to", string(decision.To)).
		Msg("booking decided")

	s.invalidate(ctx, id)

	go func() {
		c := context.WithoutCancel(ctx)

		err := s.publisher.PublishDecision(c, event.BookingDecided{
			BookingID:    id,
			Action:       string(decision.Action),
			ActorID:      actor.ID,
			ActorRole:    actor.Role,
			StatusBefore: string(decision.From),
			StatusAfter:  string(decision.To),
			Reason:       decision.Reason,
			DecidedAt:    timezone.Now(),
		})
		if err != nil {
			log.Error().Err(err).Str("booking_id", id).Msg("failed to publish booking decision")
		}
	}()

	detail, err := s.loadDetail(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(detail)

	return res, nil
}

// actor reloads the caller so that a role changed after login is honoured.
func (s *serviceImpl) actor(ctx context.Context) (workflow.Actor, error) {
	userID := shared.UserIDFromContext(ctx)
	if userID == constant.Empty {
		return workflow.Actor{}, failure.Unauthorized("authentication required")
	}

	user, err := s.userRepo.Get(ctx, shared.FilterByID(userID, userModel.FieldID, userModel.TableName),
		userModel.FieldID, userModel.FieldRole, userModel.FieldActive)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to get acting user")

		return workflow.Actor{}, fmt.Errorf("failed to get acting user: %w", err)
	}

	if user.ID == constant.Empty {
		return workflow.Actor{}, failure.Unauthorized("user no longer exists")
	}

	if !user.Active {
		return workflow.Actor{}, failure.Forbidden("user account is deactivated")
	}

	return workflow.Actor{ID: user.ID, Role: user.Role}, nil
}

func (s *serviceImpl) ensureHall(ctx context.Context, hallID string) error {
	exist, err := s.hallRepo.Exist(ctx, shared.FilterByID(hallID, hallModel.FieldID, hallModel.TableName))
	if err != nil {
		log.Error().Err(err).Str("hall_id", hallID).Msg("failed to check if hall exists")

		return fmt.Errorf("failed to check if hall exists: %w", err)
	}

	if !exist {
		return failure.BadRequestFromString(msgHallNotFound)
	}

	return nil
}

func (s *serviceImpl) list(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	total, err := s.repo.CountDetails(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAllDetails(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	return res, nil
}

func (s *serviceImpl) detail(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	detail, err := s.getDetail(ctx, id)
	if err != nil {
		return res, err
	}

	res.FromModel(detail)

	return res, nil
}

// getDetail reads through the cache. The cached value is the read model so
// that access checks can still see the requester. The fill happens before
// returning so it cannot land long after a later write's invalidation.
func (s *serviceImpl) getDetail(ctx context.Context, id string) (detail model.BookingDetail, err error) {
	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	if err = s.cache.Get(ctx, cacheKey, &detail); err == nil {
		return detail, nil
	}

	detail, err = s.loadDetail(ctx, id)
	if err != nil {
		return detail, err
	}

	if err = s.cache.Save(context.WithoutCancel(ctx), cacheKey, detail, s.cfg.Cache.TTL); err != nil {
		log.Error().Err(err).Msg("failed to save booking to cache")
	}

	return detail, nil
}

func (s *serviceImpl) loadDetail(ctx context.Context, id string) (detail model.BookingDetail, err error) {
	detail, err = s.repo.GetDetail(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to get booking")

		return detail, fmt.Errorf("failed to get booking: %w", err)
	}

	if detail.ID == constant.Empty {
		return detail, failure.NotFound(msgBookingNotFound)
	}

	return detail, nil
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(context.WithoutCancel(ctx), shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
		log.Error().Err(err).Msg("failed to delete booking from cache")
	}
}

func approverFilter(field, userID string) gDto.Filter {
	return gDto.Filter{
		Field:    field,
		Operator: gDto.FilterOperatorEq,
		Value:    userID,
		Table:    model.TableName,
	}
}

// and narrows filter with extra conditions.
func and(filter gDto.FilterGroup, extra ...any) gDto.FilterGroup {
	if len(filter.Filters) == 0 {
		return gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd, Filters: extra}
	}

	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  append([]any{filter}, extra...),
	}
}
