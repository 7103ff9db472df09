package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/apperrors"
)

// parseDate accepts YYYY-MM-DD or RFC3339 timestamps, matching what the
// frontend sends for date filters.
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// parseDateRange extracts optional start_date and end_date query parameters.
// Absent parameters yield zero times; services fill in their own defaults.
func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	var startDate, endDate time.Time
	var err error

	if v := r.URL.Query().Get("start_date"); v != "" {
		startDate, err = parseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		endDate, err = parseDate(v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	return startDate, endDate, nil
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrFundNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrDividendNotFound),
		errors.Is(err, apperrors.ErrPortfolioFundNotFound),
		errors.Is(err, apperrors.ErrIBKRTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInsufficientShares),
		errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrEmptyID),
		errors.Is(err, apperrors.ErrInvalidPortfolioID),
		errors.Is(err, apperrors.ErrInvalidFundID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
