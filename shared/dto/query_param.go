package dto

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"hallbook/shared/constant"
)

// sortByPattern admits plain or table qualified column names only since
// sort_by is rendered into ORDER BY verbatim.
var sortByPattern = regexp.MustCompile(`^[a-z_]+(\.[a-z_]+)?$`)

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"
)

type QueryParams struct {
	Page    int    `json:"page"`
	Limit   int    `json:"limit"`
	SortBy  string `json:"sort_by"`
	SortDir string `json:"sort_dir"`
}

// FromRequest reads paging and ordering from the query string. Invalid
// values are ignored; with paginate set, Page and Limit fall back to their
// defaults and Limit is capped at constant.MaxValueLimit.
func (q *QueryParams) FromRequest(r *http.Request, paginate bool) {
	query := r.URL.Query()

	q.Page = positiveInt(query.Get(constant.RequestParamPage))
	q.Limit = min(positiveInt(query.Get(constant.RequestParamLimit)), constant.MaxValueLimit)

	if sortBy := query.Get(constant.RequestParamSortBy); sortByPattern.MatchString(sortBy) {
		q.SortBy = sortBy
	}

	switch sortDir := strings.ToUpper(query.Get(constant.RequestParamSortDir)); sortDir {
	case SortDirAsc, SortDirDesc:
		q.SortDir = sortDir
	}

	if !paginate {
		return
	}

	if q.Page == 0 {
		q.Page = constant.DefaultValuePage
	}

	if q.Limit == 0 {
		q.Limit = constant.DefaultValueLimit
	}
}

// Offset is the number of rows skipped before the current page.
func (q QueryParams) Offset() int {
	if q.Page <= 1 {
		return 0
	}

	return (q.Page - 1) * q.Limit
}

func positiveInt(raw string) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0
	}

	return value
}
