package dto_test

import (
	"testing"

	"hallbook/shared/dto"

	"github.com/stretchr/testify/assert"
)

func TestFilter_GetWhereClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    dto.Filter
		wantWhere string
		wantArgs  map[string]any
	}{
		{
			name:      "eq with table",
			filter:    dto.Filter{Field: "status", Operator: dto.FilterOperatorEq, Value: "PENDING_HOD", Table: "bookings"},
			wantWhere: "bookings.status = :status",
			wantArgs:  map[string]any{"status": "PENDING_HOD"},
		},
		{
			name:      "custom arg name",
			filter:    dto.Filter{ArgName: "hod", Field: "hod_approver_id", Operator: dto.FilterOperatorEq, Value: "u-1"},
			wantWhere: "hod_approver_id = :hod",
			wantArgs:  map[string]any{"hod": "u-1"},
		},
		{
			name:      "like",
			filter:    dto.Filter{Field: "name", Operator: dto.FilterOperatorLike, Value: "aud", Table: "halls"},
			wantWhere: "LOWER(halls.name) LIKE LOWER(:name)",
			wantArgs:  map[string]any{"name": "%aud%"},
		},
		{
			name:      "in slice",
			filter:    dto.Filter{Field: "role", Operator: dto.FilterOperatorIn, Value: []string{"HOD", "ADMIN"}},
			wantWhere: "role IN (:role_0, :role_1)",
			wantArgs:  map[string]any{"role_0": "HOD", "role_1": "ADMIN"},
		},
		{
			name:      "empty in list",
			filter:    dto.Filter{Field: "role", Operator: dto.FilterOperatorIn, Value: []string{}},
			wantWhere: "",
			wantArgs:  map[string]any{},
		},
		{
			name:      "unknown operator",
			filter:    dto.Filter{Field: "capacity", Operator: "between", Value: 10},
			wantWhere: "",
			wantArgs:  map[string]any{},
		},
		{
			name:      "is null",
			filter:    dto.Filter{Field: "rejection_reason", Operator: dto.FilterIsNull},
			wantWhere: "rejection_reason IS NULL",
			wantArgs:  map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.GetWhereClause()

			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestFilterGroup_GetWhereClause(t *testing.T) {
	group := dto.FilterGroup{
		Operator: dto.FilterGroupOperatorAnd,
		Filters: []any{
			dto.Filter{Field: "requester_id", Operator: dto.FilterOperatorEq, Value: "u-1"},
			dto.FilterGroup{Operator: dto.FilterGroupOperatorAnd},
			dto.FilterGroup{
				Operator: dto.FilterGroupOperatorOr,
				Filters: []any{
					dto.Filter{Field: "status", Operator: dto.FilterOperatorEq, Value: "APPROVED"},
					dto.Filter{ArgName: "rejected", Field: "status", Operator: dto.FilterOperatorEq, Value: "REJECTED"},
				},
			},
		},
	}

	where, args := group.GetWhereClause()

	assert.Equal(t, "(requester_id = :requester_id AND (status = :status OR status = :rejected))", where)
	assert.Equal(t, map[string]any{"requester_id": "u-1", "status": "APPROVED", "rejected": "REJECTED"}, args)

	empty := dto.FilterGroup{}
	where, args = empty.GetWhereClause()

	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestFilterGroup_AddIfPresent(t *testing.T) {
	group := dto.FilterGroup{Operator: dto.FilterGroupOperatorAnd}

	group.AddIfPresent(dto.Filter{Field: "status", Operator: dto.FilterOperatorEq, Value: ""})
	group.AddIfPresent(dto.Filter{Field: "hall_id", Operator: dto.FilterOperatorEq, Value: "  "})
	group.AddIfPresent(dto.Filter{Field: "role", Operator: dto.FilterOperatorEq, Value: "HOD"})
	group.AddIfPresent(dto.Filter{Field: "capacity", Operator: dto.FilterOperatorNotEq, Value: 0})

	assert.Len(t, group.Filters, 2)

	where, _ := group.GetWhereClause()
	assert.Equal(t, "(role = :role AND capacity != :capacity)", where)
}
