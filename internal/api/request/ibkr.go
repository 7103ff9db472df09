package request

// TransactionAllocation assigns a percentage of an imported broker transaction
// to a specific holding.
type TransactionAllocation struct {
	PortfolioFundID string  `json:"portfolioFundId"`
	Percentage      float64 `json:"percentage"`
}

// AllocateTransactionRequest is the request body for allocating (or
// re-allocating) an imported IBKR transaction across holdings. Percentages
// are expected to sum to 100.
type AllocateTransactionRequest struct {
	Allocations []TransactionAllocation `json:"allocations"`
}
