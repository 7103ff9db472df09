package request

// UpsertFundPriceRequest is the request body for creating or updating a fund price.
// A second write for the same date overwrites the earlier price.
type UpsertFundPriceRequest struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Price float64 `json:"price"`
}
