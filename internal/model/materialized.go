package model

import "time"

// FundHistoryMaterialized represents one pre-calculated valuation row for a
// single holding (portfolio_fund) on a single calendar day. The table carries
// a UNIQUE(portfolio_fund_id, date) constraint, so writers upsert.
//
// All cumulative fields (realized gain, dividends, fees) are running totals
// from the first transaction of the holding up to and including Date.
type FundHistoryMaterialized struct {
	ID              string    // Primary key
	PortfolioFundID string    // Holding this row belongs to
	FundID          string    // Fund, denormalized for fund-level queries
	Date            time.Time // Valuation date (stored as YYYY-MM-DD)
	Shares          float64   // Shares held at end of day
	Price           float64   // Price used for valuation (carried forward)
	Value           float64   // Shares * Price
	Cost            float64   // Average-cost basis of the open position
	RealizedGain    float64   // Cumulative realized gain/loss from sells
	UnrealizedGain  float64   // Value - Cost
	TotalGainLoss   float64   // RealizedGain + UnrealizedGain + Dividends
	Dividends       float64   // Cumulative cash dividends
	Fees            float64   // Cumulative fees
	CalculatedAt    time.Time // When this row was computed
}

// FundHistoryEntry is the API shape of a single fund's state on one date,
// enriched with fund metadata for display.
type FundHistoryEntry struct {
	PortfolioFundID string    `json:"portfolioFundId"`
	FundID          string    `json:"fundId"`
	FundName        string    `json:"fundName"`
	Date            time.Time `json:"date"`
	Shares          float64   `json:"shares"`
	Price           float64   `json:"price"`
	Value           float64   `json:"value"`
	Cost            float64   `json:"cost"`
	RealizedGain    float64   `json:"realizedGain"`
	UnrealizedGain  float64   `json:"unrealizedGain"`
	TotalGainLoss   float64   `json:"totalGainLoss"`
	Dividends       float64   `json:"dividends"`
	Fees            float64   `json:"fees"`
}

// FundHistoryResponse groups all fund entries for a single date.
type FundHistoryResponse struct {
	Date  time.Time          `json:"date"`
	Funds []FundHistoryEntry `json:"funds"`
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Coverage describes how well the materialized table covers a requested
// date range for a set of holdings.
//
// IsComplete means every holding has a row for every day in the range.
// PartialCoverage means some days are covered and some are not; when both
// flags are false, nothing in the range is covered.
type Coverage struct {
	IsComplete      bool        `json:"isComplete"`
	PartialCoverage bool        `json:"partialCoverage"`
	CoveredRanges   []DateRange `json:"coveredRanges"`
	MissingRanges   []DateRange `json:"missingRanges"`
}

// MaterializedStats summarizes the state of the materialized table for
// the admin endpoint.
type MaterializedStats struct {
	TotalRecords       int64      `json:"totalRecords"`
	PortfoliosWithData int64      `json:"portfoliosWithData"`
	OldestDate         *time.Time `json:"oldestDate,omitempty"`
	NewestDate         *time.Time `json:"newestDate,omitempty"`
}
