// Package storetest prepares seeded stores for tests.
package storetest

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/wealthsense/store"
)

var schemaStatements = []string{
	`CREATE TABLE transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_name VARCHAR(255) NOT NULL,
		transaction_type VARCHAR(4) NOT NULL,
		stock_symbol VARCHAR(20) NOT NULL,
		quantity INTEGER NOT NULL,
		price_per_share DECIMAL(15, 2) NOT NULL,
		total_amount DECIMAL(15, 2) NOT NULL,
		transaction_date DATETIME NOT NULL,
		status VARCHAR(10) DEFAULT 'COMPLETED',
		relationship_manager VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE portfolio_holdings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		client_name VARCHAR(255) NOT NULL,
		stock_symbol VARCHAR(20) NOT NULL,
		quantity INTEGER NOT NULL,
		average_price DECIMAL(15, 2) NOT NULL,
		current_value DECIMAL(15, 2) NOT NULL
	)`,
	`CREATE TABLE relationship_managers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) UNIQUE NOT NULL,
		phone VARCHAR(20),
		total_clients INTEGER DEFAULT 0,
		total_portfolio_value DECIMAL(20, 2) DEFAULT 0,
		performance_rating DECIMAL(3, 2) DEFAULT 0.00
	)`,
}

var seedStatements = []string{
	`INSERT INTO transactions (client_name, transaction_type, stock_symbol, quantity, price_per_share, total_amount, transaction_date, status, relationship_manager) VALUES
		('Rajesh Kumar', 'BUY', 'RELIANCE', 1000, 2500.00, 2500000.00, '2024-01-15 10:30:00', 'COMPLETED', 'Amit Sharma'),
		('Priya Singh', 'BUY', 'TCS', 500, 3200.00, 1600000.00, '2024-01-16 11:45:00', 'COMPLETED', 'Neha Gupta'),
		('Arjun Patel', 'SELL', 'HDFC', 200, 1800.00, 360000.00, '2024-01-17 14:20:00', 'COMPLETED', 'Amit Sharma'),
		('Sneha Reddy', 'BUY', 'INFY', 800, 1500.00, 1200000.00, '2024-01-18 09:15:00', 'COMPLETED', 'Rahul Verma'),
		('Vikram Malhotra', 'BUY', 'RELIANCE', 2000, 2600.00, 5200000.00, '2024-01-19 16:30:00', 'COMPLETED', 'Neha Gupta'),
		('Rajesh Kumar', 'BUY', 'WIPRO', 1500, 400.00, 600000.00, '2024-01-20 12:00:00', 'PENDING', 'Amit Sharma'),
		('Priya Singh', 'SELL', 'ICICI', 300, 900.00, 270000.00, '2024-01-21 15:45:00', 'COMPLETED', 'Neha Gupta')`,
	`INSERT INTO portfolio_holdings (client_name, stock_symbol, quantity, average_price, current_value) VALUES
		('Rajesh Kumar', 'RELIANCE', 1000, 2500.00, 2650000.00),
		('Priya Singh', 'TCS', 500, 3200.00, 1750000.00),
		('Vikram Malhotra', 'RELIANCE', 2000, 2600.00, 5300000.00)`,
	`INSERT INTO relationship_managers (name, email, phone, total_clients, total_portfolio_value, performance_rating) VALUES
		('Amit Sharma', 'amit.sharma@company.com', '+91-9876543220', 2, 2700000000.00, 4.5),
		('Neha Gupta', 'neha.gupta@company.com', '+91-9876543221', 2, 4500000000.00, 4.8),
		('Rahul Verma', 'rahul.verma@company.com', '+91-9876543222', 1, 1800000000.00, 4.2)`,
}

// SeedSQLite creates a SQLite file under t.TempDir() holding the sample
// wealth portfolio tables and returns its path.
func SeedSQLite(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "wealth_portfolio.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	for _, stmt := range append(append([]string{}, schemaStatements...), seedStatements...) {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed sqlite: %v", err)
		}
	}
	return path
}

// SampleClients are the five client profiles of the sample document store,
// in insertion order.
func SampleClients() []*store.Client {
	return []*store.Client{
		{ID: "c1", Name: "Rajesh Kumar", RiskAppetite: "Aggressive", RelationshipManager: "Amit Sharma", PortfolioValue: 1500000000, ClientType: "Film Star"},
		{ID: "c2", Name: "Priya Singh", RiskAppetite: "Moderate", RelationshipManager: "Neha Gupta", PortfolioValue: 2000000000, ClientType: "Sports Personality"},
		{ID: "c3", Name: "Arjun Patel", RiskAppetite: "Conservative", RelationshipManager: "Amit Sharma", PortfolioValue: 1200000000, ClientType: "Film Star"},
		{ID: "c4", Name: "Sneha Reddy", RiskAppetite: "Aggressive", RelationshipManager: "Rahul Verma", PortfolioValue: 1800000000, ClientType: "Sports Personality"},
		{ID: "c5", Name: "Vikram Malhotra", RiskAppetite: "Moderate", RelationshipManager: "Neha Gupta", PortfolioValue: 2500000000, ClientType: "Film Star"},
	}
}

// MemoryDocuments is an in-memory store.DocumentDriver.
type MemoryDocuments struct {
	mu      sync.Mutex
	Clients []*store.Client
	Err     error // returned by every call when set
	Calls   int
}

// NewMemoryDocuments returns a document store holding clients.
func NewMemoryDocuments(clients []*store.Client) *MemoryDocuments {
	return &MemoryDocuments{Clients: clients}
}

func (m *MemoryDocuments) Ping(context.Context) error {
	return m.Err
}

func (m *MemoryDocuments) Close(context.Context) error {
	return nil
}

func (m *MemoryDocuments) ListClients(_ context.Context, find *store.FindClient) ([]*store.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}

	list := append([]*store.Client{}, m.Clients...)
	if find != nil && find.SortByValue {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].PortfolioValue > list[j].PortfolioValue
		})
	}
	if find != nil && find.Limit > 0 && len(list) > find.Limit {
		list = list[:find.Limit]
	}
	return list, nil
}

func (m *MemoryDocuments) GetClientStats(context.Context) (*store.ClientStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}

	stats := &store.ClientStats{TotalClients: int64(len(m.Clients))}
	for _, c := range m.Clients {
		stats.TotalPortfolioValue += c.PortfolioValue
	}
	return stats, nil
}
