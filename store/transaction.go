package store

import "time"

// Transaction is a row of the transactions table.
type Transaction struct {
	ID                  int64     `json:"id"`
	ClientName          string    `json:"client_name"`
	TransactionType     string    `json:"transaction_type"` // BUY, SELL
	StockSymbol         string    `json:"stock_symbol"`
	Quantity            int64     `json:"quantity"`
	PricePerShare       float64   `json:"price_per_share"`
	TotalAmount         float64   `json:"total_amount"`
	TransactionDate     time.Time `json:"transaction_date"`
	Status              string    `json:"status"` // COMPLETED, PENDING, FAILED
	RelationshipManager string    `json:"relationship_manager"`
}

// FindTransaction specifies conditions for finding transactions.
// Results are ordered by transaction date, newest first.
type FindTransaction struct {
	Since *time.Time
	Limit int
}
