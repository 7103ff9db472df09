package validation

import (
	"math"

	"github.com/rvanbeek/portfolio-tracker/internal/api/request"
)

// ValidateAllocateTransaction validates an IBKR allocation request.
//
// Rules:
//   - at least one allocation is required
//   - every portfolioFundId must be a valid UUID
//   - every percentage must be positive
//   - percentages must sum to 100 (within a small tolerance)
//
// Returns a validation Error with field-specific error messages if validation fails.
func ValidateAllocateTransaction(req request.AllocateTransactionRequest) error {
	errors := make(map[string]string)

	if len(req.Allocations) == 0 {
		errors["allocations"] = "at least one allocation is required"
		return &Error{Fields: errors}
	}

	var totalPercentage float64
	for _, alloc := range req.Allocations {
		if err := ValidateUUID(alloc.PortfolioFundID); err != nil {
			errors["portfolioFundId"] = err.Error()
		}
		if alloc.Percentage <= 0.0 {
			errors["percentage"] = "percentage must be positive"
		}
		totalPercentage += alloc.Percentage
	}

	if math.Abs(totalPercentage-100.0) > 0.01 {
		errors["percentage"] = "percentages must sum to 100"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
