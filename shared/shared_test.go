package shared_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"hallbook/shared"
	"hallbook/shared/cache/mocks"
	"hallbook/shared/constant"
	"hallbook/shared/dto"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestConvertStringToBool(t *testing.T) {
	assert.Nil(t, shared.ConvertStringToBool(""))
	assert.Nil(t, shared.ConvertStringToBool("maybe"))

	got := shared.ConvertStringToBool("true")
	require.NotNil(t, got)
	assert.True(t, *got)

	got = shared.ConvertStringToBool("0")
	require.NotNil(t, got)
	assert.False(t, *got)
}

func TestConvertStringToInt(t *testing.T) {
	got, err := shared.ConvertStringToInt(" 250 ")
	require.NoError(t, err)
	assert.Equal(t, 250, got)

	_, err = shared.ConvertStringToInt("lots")
	assert.Error(t, err)
}

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{total: 0, limit: 10, want: 1},
		{total: 10, limit: 0, want: 1},
		{total: 10, limit: 10, want: 1},
		{total: 21, limit: 10, want: 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.total, tt.limit), func(t *testing.T) {
			assert.Equal(t, tt.want, shared.CalculateTotalPage(tt.total, tt.limit))
		})
	}
}

func TestTransformFields(t *testing.T) {
	title := "Orientation"
	empty := ""

	type patch struct {
		EventTitle  *string    `db:"event_title"`
		Description *string    `db:"description"`
		Attendees   int        `db:"expected_attendees"`
		StartTime   *time.Time `db:"start_time"`
		Internal    string
	}

	fields := shared.TransformFields(patch{EventTitle: &title, Description: &empty, Internal: "skip"}, "alice")

	assert.Equal(t, &title, fields["event_title"])
	assert.Equal(t, &empty, fields["description"], "a set pointer is kept even when it points at a zero value")
	assert.NotContains(t, fields, "expected_attendees")
	assert.NotContains(t, fields, "start_time")
	assert.NotContains(t, fields, "Internal")
	assert.Equal(t, "alice", fields[constant.FieldModifiedBy])
	assert.IsType(t, time.Time{}, fields[constant.FieldModifiedAt])
}

func TestFilterByID(t *testing.T) {
	filter := shared.FilterByID("b-1", "id", "bookings")

	where, args := filter.GetWhereClause()

	assert.Equal(t, "(bookings.id = :id)", where)
	assert.Equal(t, map[string]any{"id": "b-1"}, args)
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	params := dto.QueryParams{Page: 1, Limit: 10}
	byName := dto.FilterGroup{Operator: dto.FilterGroupOperatorAnd, Filters: []any{
		dto.Filter{Field: "name", Operator: dto.FilterOperatorLike, Value: "aud"},
	}}
	byOtherName := dto.FilterGroup{Operator: dto.FilterGroupOperatorAnd, Filters: []any{
		dto.Filter{Field: "name", Operator: dto.FilterOperatorLike, Value: "gym"},
	}}

	assert.Equal(t, "halls:detail:h-1", shared.BuildCacheKey("halls", "detail", "h-1"))

	key := shared.BuildCacheKeyWithQuery("halls", params, byName)
	assert.Equal(t, key, shared.BuildCacheKeyWithQuery("halls", params, byName))
	assert.NotEqual(t, key, shared.BuildCacheKeyWithQuery("halls", params, byOtherName))
	assert.NotEqual(t, key, shared.BuildCacheKeyWithQuery("halls", dto.QueryParams{Page: 2, Limit: 10}, byName))
	assert.Regexp(t, `^halls:[0-9a-f]{64}$`, key)
}

func TestInvalidateCaches(t *testing.T) {
	redisCache := mocks.NewMockRedisCache(gomock.NewController(t))

	redisCache.EXPECT().Clear(gomock.Any(), "halls:*").Return(nil)
	shared.InvalidateCaches(context.Background(), redisCache, "halls")

	redisCache.EXPECT().Clear(gomock.Any(), "users:*").Return(errors.New("connection refused"))
	shared.InvalidateCaches(context.Background(), redisCache, "users")
}

func TestIsPqError(t *testing.T) {
	unique := &pq.Error{Code: constant.PqErrorCodeUniqueViolation}

	assert.True(t, shared.IsPqError(unique, constant.PqErrorCodeUniqueViolation))
	assert.True(t, shared.IsPqError(fmt.Errorf("insert hall: %w", unique), constant.PqErrorCodeUniqueViolation))
	assert.False(t, shared.IsPqError(&pq.Error{Code: "23503"}, constant.PqErrorCodeUniqueViolation))
	assert.False(t, shared.IsPqError(errors.New("boom"), constant.PqErrorCodeUniqueViolation))
}

func TestContextIdentity(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, constant.ContextSystem, shared.UsernameFromContext(ctx))
	assert.Empty(t, shared.UserIDFromContext(ctx))

	ctx = context.WithValue(ctx, constant.ContextKeyUsername, "alice")
	ctx = context.WithValue(ctx, constant.ContextKeyUserID, "u-1")

	assert.Equal(t, "alice", shared.UsernameFromContext(ctx))
	assert.Equal(t, "u-1", shared.UserIDFromContext(ctx))
}
