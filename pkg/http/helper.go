package http

import (
	"carhub/pkg/config"
	apperrors "carhub/pkg/errors"
	"net/http"
	"strconv"
	"time"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// ParseDate accepts either a calendar date (2006-01-02) or an RFC3339
// timestamp and returns it in UTC.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ExtractDateRange reads the required start_date and end_date query parameters.
func ExtractDateRange(r *http.Request) (time.Time, time.Time, error) {
	query := r.URL.Query()
	startStr := query.Get("start_date")
	endStr := query.Get("end_date")

	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("Both 'start_date' and 'end_date' query parameters are required")
	}

	start, err := ParseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid start_date format, must be YYYY-MM-DD or RFC3339")
	}
	end, err := ParseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid end_date format, must be YYYY-MM-DD or RFC3339")
	}

	return start, end, nil
}

// ExtractOptionalDate returns nil when the parameter is absent.
func ExtractOptionalDate(r *http.Request, name string) (*time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return nil, nil
	}
	t, err := ParseDate(value)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + name + " format, must be YYYY-MM-DD or RFC3339")
	}
	return &t, nil
}
