package model

import "time"

// Allocation represents a portfolio allocation percentage for IBKR imports.
type Allocation struct {
	PortfolioID string  `json:"portfolioId"`
	Percentage  float64 `json:"percentage"`
}

// IBKRTransaction represents a transaction imported from Interactive Brokers.
// Transactions arrive with status "pending" and require allocation to portfolios
// before they show up in holdings.
type IBKRTransaction struct {
	ID                string    `json:"id"`
	IBKRTransactionID string    `json:"ibkrTransactionId"`
	TransactionDate   time.Time `json:"transactionDate"`
	Symbol            string    `json:"symbol,omitempty"`
	ISIN              string    `json:"isin,omitempty"`
	Description       string    `json:"description,omitempty"`
	TransactionType   string    `json:"transactionType"`
	Quantity          float64   `json:"quantity,omitempty"`
	Price             float64   `json:"price,omitempty"`
	TotalAmount       float64   `json:"totalAmount"`
	Currency          string    `json:"currency"`
	Fees              float64   `json:"fees"`
	Status            string    `json:"status"`
	ImportedAt        time.Time `json:"importedAt"`
}

// IBKRTransactionAllocation records how (part of) an IBKR transaction was
// allocated to a portfolio, including the ledger transaction it produced.
type IBKRTransactionAllocation struct {
	ID                   string
	IBKRTransactionID    string
	PortfolioID          string
	AllocationPercentage float64
	AllocatedAmount      float64
	AllocatedShares      float64
	TransactionID        string
	CreatedAt            time.Time
}
