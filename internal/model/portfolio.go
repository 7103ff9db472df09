package model

// Portfolio represents a portfolio from the database
type Portfolio struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Description         string `json:"description"`
	IsArchived          bool   `json:"isArchived"`
	ExcludeFromOverview bool   `json:"exclude_from_overview"`
}

// PortfolioFilter for querying portfolios
type PortfolioFilter struct {
	IncludeArchived bool
	IncludeExcluded bool
}

// PortfolioFund represents a row in the portfolio_fund join table: one holding
// of a fund inside a portfolio. All transactions, dividends and materialized
// history rows hang off this ID.
type PortfolioFund struct {
	ID          string `json:"id"`
	PortfolioID string `json:"portfolioId"`
	FundID      string `json:"fundId"`
}

// PortfolioSummary represents the current state of a portfolio at a point in time.
// It includes valuation, cost basis, gains/losses (both realized and unrealized),
// and dividends. All monetary values are rounded to two decimal places.
type PortfolioSummary struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name"`
	Description             string  `json:"description"`
	TotalValue              float64 `json:"totalValue"`              // Current market value
	TotalCost               float64 `json:"totalCost"`               // Current cost basis
	TotalDividends          float64 `json:"totalDividends"`          // Cumulative dividends
	TotalUnrealizedGainLoss float64 `json:"totalUnrealizedGainLoss"` // Unrealized gain/loss
	TotalRealizedGainLoss   float64 `json:"totalRealizedGainLoss"`   // Realized gain/loss from sales
	TotalGainLoss           float64 `json:"totalGainLoss"`           // Combined realized + unrealized
	TotalFees               float64 `json:"totalFees"`               // Cumulative fees paid
	IsArchived              bool    `json:"isArchived"`
}

// PortfolioHistory represents portfolio valuations for a single date.
// It contains one entry per portfolio showing their state on that specific date.
type PortfolioHistory struct {
	Date       string             `json:"date"`       // Date in YYYY-MM-DD format
	Portfolios []PortfolioSummary `json:"portfolios"` // Portfolio states for this date
}
