package store

import "time"

// Client is a client profile kept in the document store.
type Client struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	Phone                 string    `json:"phone"`
	Address               string    `json:"address"`
	RiskAppetite          string    `json:"risk_appetite"`
	InvestmentPreferences []string  `json:"investment_preferences"`
	RelationshipManager   string    `json:"relationship_manager"`
	PortfolioValue        float64   `json:"portfolio_value"` // in rupees
	ClientType            string    `json:"client_type"`
	CreatedDate           time.Time `json:"created_date"`
}

// FindClient specifies conditions for listing client profiles.
// Without SortByValue the store-native order is kept.
type FindClient struct {
	Limit       int
	SortByValue bool // descending by portfolio value
}

// ClientStats aggregates the client collection.
type ClientStats struct {
	TotalClients        int64   `json:"total_clients"`
	TotalPortfolioValue float64 `json:"total_portfolio_value"`
}
