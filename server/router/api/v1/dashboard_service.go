package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/wealthsense/ai/query"
	"github.com/hrygo/wealthsense/store"
)

const (
	topClientsLimit         = 5
	recentTransactionsLimit = 10

	// monthlyGrowth is a fixed figure until historical valuations are stored.
	monthlyGrowth = 12.5
)

type dashboardStats struct {
	TotalPortfolioValue float64 `json:"totalPortfolioValue"`
	TotalClients        int64   `json:"totalClients"`
	TotalTransactions   int64   `json:"totalTransactions"`
	MonthlyGrowth       float64 `json:"monthlyGrowth"`
}

type chartPoint struct {
	Month string      `json:"month"`
	Value json.Number `json:"value"`
}

type topClient struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	PortfolioValue float64 `json:"portfolioValue"`
	RiskAppetite   string  `json:"riskAppetite"`
}

type recentTransaction struct {
	ID         string  `json:"id"`
	ClientName string  `json:"clientName"`
	Type       string  `json:"type"`
	Stock      string  `json:"stock"`
	Amount     float64 `json:"amount"`
	Date       string  `json:"date"`
	Status     string  `json:"status"`
}

// now is replaced in tests.
var now = time.Now

// GetDashboardStats aggregates the client book and this month's transactions.
// The relational store is optional here; its count reads 0 when absent.
func (s *APIV1Service) GetDashboardStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := s.Store.GetClientStats(ctx)
	if err != nil {
		return documentStoreError("failed to get client stats", err)
	}

	var transactions int64
	if s.Store.HasRelational() {
		monthStart := startOfMonth(now())
		transactions, err = s.Store.CountTransactions(ctx, &store.FindTransaction{Since: &monthStart})
		if err != nil {
			slog.Warn("api: failed to count transactions", "error", err)
			transactions = 0
		}
	}

	return c.JSON(http.StatusOK, &dashboardStats{
		TotalPortfolioValue: stats.TotalPortfolioValue,
		TotalClients:        stats.TotalClients,
		TotalTransactions:   transactions,
		MonthlyGrowth:       monthlyGrowth,
	})
}

// GetPortfolioChart returns the monthly aggregate portfolio value.
func (*APIV1Service) GetPortfolioChart(c echo.Context) error {
	trend := query.PortfolioTrend()
	points := make([]chartPoint, 0, len(trend))
	for _, p := range trend {
		points = append(points, chartPoint{Month: p.Name, Value: json.Number(p.Value.String())})
	}
	return c.JSON(http.StatusOK, points)
}

// GetTopClients lists the largest portfolios.
func (s *APIV1Service) GetTopClients(c echo.Context) error {
	clients, err := s.Store.ListClients(c.Request().Context(), &store.FindClient{
		Limit:       topClientsLimit,
		SortByValue: true,
	})
	if err != nil {
		return documentStoreError("failed to list clients", err)
	}

	result := make([]topClient, 0, len(clients))
	for _, client := range clients {
		result = append(result, topClient{
			ID:             client.ID,
			Name:           client.Name,
			PortfolioValue: client.PortfolioValue,
			RiskAppetite:   client.RiskAppetite,
		})
	}
	return c.JSON(http.StatusOK, result)
}

// GetRecentTransactions lists the newest transactions, or an empty list when
// the relational store is absent.
func (s *APIV1Service) GetRecentTransactions(c echo.Context) error {
	result := []recentTransaction{}
	if !s.Store.HasRelational() {
		return c.JSON(http.StatusOK, result)
	}

	list, err := s.Store.ListTransactions(c.Request().Context(), &store.FindTransaction{Limit: recentTransactionsLimit})
	if err != nil {
		slog.Error("api: failed to list transactions", "error", err)
		if errors.Is(err, store.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "relational store not available")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list transactions")
	}

	for _, t := range list {
		result = append(result, recentTransaction{
			ID:         strconv.FormatInt(t.ID, 10),
			ClientName: t.ClientName,
			Type:       t.TransactionType,
			Stock:      t.StockSymbol,
			Amount:     t.TotalAmount,
			Date:       t.TransactionDate.Format(time.RFC3339),
			Status:     t.Status,
		})
	}
	return c.JSON(http.StatusOK, result)
}

func documentStoreError(message string, err error) error {
	if errors.Is(err, store.ErrDocumentStoreUnavailable) || errors.Is(err, store.ErrUnavailable) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "document store not available").SetInternal(err)
	}
	slog.Error("api: "+message, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, message).SetInternal(err)
}

func startOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
