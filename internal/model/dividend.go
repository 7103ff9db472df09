package model

import "time"

// Dividend represents a dividend payment from the database.
// The ex-dividend date decides on which day the amount enters the
// cumulative dividend totals of the holding's history.
type Dividend struct {
	ID                        string
	FundID                    string
	PortfolioFundID           string
	RecordDate                time.Time
	ExDividendDate            time.Time
	SharesOwned               float64
	DividendPerShare          float64
	TotalAmount               float64
	ReinvestmentStatus        string
	BuyOrderDate              time.Time
	ReinvestmentTransactionID string
	CreatedAt                 time.Time
}

// DividendFund represents a dividend payment with enriched fund information.
// This structure is used for API responses that combine dividend data with fund metadata.
type DividendFund struct {
	ID                        string     `json:"ID"`
	FundID                    string     `json:"fundID"`
	FundName                  string     `json:"fundName"`
	PortfolioFundID           string     `json:"portfolioFundID"`
	RecordDate                time.Time  `json:"recordDate"`
	ExDividendDate            time.Time  `json:"exDividendDate"`
	SharesOwned               float64    `json:"sharesOwned"`
	DividendPerShare          float64    `json:"dividendPerShare"`
	TotalAmount               float64    `json:"totalAmount"`
	ReinvestmentStatus        string     `json:"reinvestmentStatus"`
	BuyOrderDate              *time.Time `json:"buyOrderDate,omitempty"`
	ReinvestmentTransactionID string     `json:"reinvestmentTransactionID,omitempty"`
	DividendType              string     `json:"dividendType"`
}
