package service

import (
	"math"
	"time"
)

// RoundingPrecision controls rounding of monetary values in API responses.
// 100 gives two decimal places.
const RoundingPrecision = 100

// round rounds a float64 value to two decimal places using the package RoundingPrecision constant.
// This function is used throughout the service layer to ensure consistent rounding of monetary
// values and share counts in API responses.
//
// The rounding uses the standard "round half up" approach via math.Round.
//
// Parameters:
//   - value: The floating-point value to round
//
// Returns the value rounded to two decimal places (0.01 precision).
//
// Example:
//
//	round(123.456789)  // returns 123.46
//	round(0.005)       // returns 0.01
//	round(1.994)       // returns 1.99
func round(value float64) float64 {
	return math.Round(value*RoundingPrecision) / RoundingPrecision
}

// normalizeDay truncates a timestamp to midnight UTC. The materialized table and
// the ledger both work in whole calendar days; every date comparison in the
// service layer goes through this first.
func normalizeDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
