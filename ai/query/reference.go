package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hrygo/wealthsense/ai/core/retrieval"
)

type referenceClient struct {
	name           string
	portfolioValue float64 // rupees
	riskAppetite   string
	manager        string
}

type referenceManager struct {
	name           string
	totalClients   int
	portfolioValue float64 // rupees
	rating         string
}

var referenceClients = []referenceClient{
	{"Rajesh Kumar", 1500000000, "Aggressive", "Amit Sharma"},
	{"Priya Singh", 2000000000, "Moderate", "Neha Gupta"},
	{"Arjun Patel", 1200000000, "Conservative", "Amit Sharma"},
	{"Sneha Reddy", 1800000000, "Aggressive", "Rahul Verma"},
	{"Vikram Malhotra", 2500000000, "Moderate", "Neha Gupta"},
}

var referenceManagers = []referenceManager{
	{"Neha Gupta", 2, 4500000000, "4.8"},
	{"Amit Sharma", 2, 2700000000, "4.5"},
	{"Rahul Verma", 1, 1800000000, "4.2"},
}

var referenceTrend = []struct {
	month string
	value int64
}{
	{"Jan", 85000000000},
	{"Feb", 87000000000},
	{"Mar", 89000000000},
	{"Apr", 91000000000},
	{"May", 88000000000},
	{"Jun", 93000000000},
}

// ReferencePayload derives a payload from fixed reference data, or nil when
// the shape and query keywords select none.
func ReferencePayload(shape Shape, query string) Payload {
	lower := strings.ToLower(query)
	switch shape {
	case ShapeTable:
		if strings.Contains(lower, "portfolio") {
			return ClientRankingTable()
		}
		if strings.Contains(lower, "relationship manager") {
			return ManagerRankingTable()
		}
	case ShapeChart:
		if strings.Contains(lower, "performance") || strings.Contains(lower, "trend") {
			return PortfolioTrend()
		}
	}
	return nil
}

// ClientRankingTable ranks the reference clients by portfolio value.
func ClientRankingTable() *TablePayload {
	clients := append([]referenceClient(nil), referenceClients...)
	sort.SliceStable(clients, func(i, j int) bool {
		return clients[i].portfolioValue > clients[j].portfolioValue
	})

	table := &TablePayload{
		Headers: []string{"Client Name", "Portfolio Value (Cr)", "Risk Appetite", "Relationship Manager"},
		Rows:    make([][]any, 0, len(clients)),
	}
	for _, c := range clients {
		table.Rows = append(table.Rows, []any{
			c.name,
			"₹" + retrieval.FormatCrores(c.portfolioValue),
			c.riskAppetite,
			c.manager,
		})
	}
	return table
}

// ManagerRankingTable ranks the reference relationship managers by book size.
func ManagerRankingTable() *TablePayload {
	table := &TablePayload{
		Headers: []string{"RM Name", "Total Clients", "Portfolio Value (Cr)", "Performance Rating"},
		Rows:    make([][]any, 0, len(referenceManagers)),
	}
	for _, m := range referenceManagers {
		table.Rows = append(table.Rows, []any{
			m.name,
			strconv.Itoa(m.totalClients),
			"₹" + retrieval.FormatCrores(m.portfolioValue),
			m.rating,
		})
	}
	return table
}

// PortfolioTrend is the monthly aggregate portfolio value, Jan to Jun.
func PortfolioTrend() SeriesPayload {
	series := make(SeriesPayload, 0, len(referenceTrend))
	for _, p := range referenceTrend {
		series = append(series, SeriesPoint{Name: p.month, Value: decimal.NewFromInt(p.value)})
	}
	return series
}
