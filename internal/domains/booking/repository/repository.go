package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"hallbook/infras/otel"
	"hallbook/infras/postgres"
	"hallbook/internal/domains/booking/model"
	"hallbook/shared"
	"hallbook/shared/constant"
	gDto "hallbook/shared/dto"
	"hallbook/shared/logger"
	gRepo "hallbook/shared/repository"

	"github.com/jmoiron/sqlx"
)

const (
	queryCountByStatus = `SELECT status, COUNT(id) AS total FROM bookings GROUP BY status`

	queryCountByHall = `SELECT halls.id AS hall_id, halls.name AS hall_name, COUNT(bookings.id) AS total
		FROM halls
		LEFT JOIN bookings ON bookings.hall_id = halls.id
		GROUP BY halls.id, halls.name
		ORDER BY total DESC, halls.name ASC`
)

// ChangeFunc inspects the locked booking and returns the columns to change.
// A zero booking means the row does not exist. Returning an error aborts the
// transaction.
type ChangeFunc func(current model.Booking) (map[string]any, error)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	GetDetail(ctx context.Context, filter gDto.FilterGroup) (model.BookingDetail, error)
	GetAllDetails(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) ([]model.BookingDetail, error)
	CountDetails(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Change(ctx context.Context, id string, change ChangeFunc) error
	CountByStatus(ctx context.Context) ([]model.StatusCount, error)
	CountByHall(ctx context.Context) ([]model.HallUsage, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	details gRepo.Repository[model.BookingDetail]
	db      *postgres.Connection
	otel    otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		details:    gRepo.NewRepository[model.BookingDetail](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (r *repositoryImpl) GetDetail(ctx context.Context, filter gDto.FilterGroup) (model.BookingDetail, error) {
	return r.details.Get(ctx, filter) //nolint:wrapcheck
}

func (r *repositoryImpl) GetAllDetails(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) ([]model.BookingDetail, error) {
	return r.details.GetAll(ctx, params, filter) //nolint:wrapcheck
}

func (r *repositoryImpl) CountDetails(ctx context.Context, filter gDto.FilterGroup) (int, error) {
	return r.details.Count(ctx, filter) //nolint:wrapcheck
}

// Change locks the booking row, lets change evaluate it and writes the result
// in the same transaction. Concurrent writes to one booking serialize on the
// row lock, so change always sees the committed state.
func (r *repositoryImpl) Change(ctx context.Context, id string, change ChangeFunc) error {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.Change")
	defer scope.End()

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	return r.WithTx(ctx, func(ctx context.Context, sqltx *sqlx.Tx) error {
		current, err := r.GetForUpdateTx(ctx, sqltx, filter)
		if err != nil {
			return err //nolint:wrapcheck
		}

		changes, err := change(current)
		if err != nil {
			return err
		}

		return r.UpdateTx(ctx, sqltx, changes, filter) //nolint:wrapcheck
	})
}

func (r *repositoryImpl) CountByStatus(ctx context.Context) ([]model.StatusCount, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.CountByStatus")
	defer scope.End()

	scope.SetAttribute(constant.OtelQueryAttributeKey, queryCountByStatus)

	var rows []model.StatusCount

	if err := r.db.Read.SelectContext(ctx, &rows, queryCountByStatus); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	return rows, nil
}

// CountByHall reports every hall, including the ones never booked.
func (r *repositoryImpl) CountByHall(ctx context.Context) ([]model.HallUsage, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.CountByHall")
	defer scope.End()

	scope.SetAttribute(constant.OtelQueryAttributeKey, queryCountByHall)

	var rows []model.HallUsage

	if err := r.db.Read.SelectContext(ctx, &rows, queryCountByHall); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to count bookings by hall: %w", err)
	}

	return rows, nil
}
