package validation

import (
	"strings"
	"time"

	"github.com/rvanbeek/portfolio-tracker/internal/api/request"
)

// ValidateUpsertFundPrice validates a fund price upsert request.
//
// Required fields:
//   - date: Must be in YYYY-MM-DD format
//   - price: Must be positive
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateUpsertFundPrice(req request.UpsertFundPriceRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Date) == "" {
		errors["date"] = "date is required"
	} else if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		errors["date"] = err.Error()
	}

	if req.Price <= 0.0 {
		errors["price"] = "price must be positive"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
