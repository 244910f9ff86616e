// Package retrieval assembles document-store evidence for prompts.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hrygo/wealthsense/store"
)

const (
	// MaxProfiles is the most client profiles a context block holds.
	MaxProfiles = 5

	// ContextUnavailable is returned instead of a context block when the
	// document store is absent or fails.
	ContextUnavailable = "Client profile store not available"

	contextHeader = "Client Profile Data:\n"
)

var crore = decimal.New(1, 7)

// ClientLister reads client profiles. *store.Store satisfies it.
type ClientLister interface {
	ListClients(ctx context.Context, find *store.FindClient) ([]*store.Client, error)
}

// ContextAssembler renders client profiles into a prompt context block.
type ContextAssembler struct {
	clients ClientLister
}

// NewContextAssembler creates an assembler. clients may be nil, in which
// case every call yields ContextUnavailable.
func NewContextAssembler(clients ClientLister) *ContextAssembler {
	return &ContextAssembler{clients: clients}
}

// Assemble returns up to limit client profiles, one line each, in store-native
// order. limit <= 0 means MaxProfiles; larger values are clamped to it.
// Assemble never fails: a missing or failing store yields ContextUnavailable.
func (a *ContextAssembler) Assemble(ctx context.Context, limit int) string {
	if limit <= 0 || limit > MaxProfiles {
		limit = MaxProfiles
	}
	if a == nil || a.clients == nil {
		return ContextUnavailable
	}

	clients, err := a.clients.ListClients(ctx, &store.FindClient{Limit: limit})
	if err != nil {
		slog.Warn("retrieval: client profiles unavailable", "error", err)
		return ContextUnavailable
	}
	if len(clients) > limit {
		clients = clients[:limit]
	}

	var sb strings.Builder
	sb.WriteString(contextHeader)
	for _, c := range clients {
		sb.WriteString(FormatClient(c))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatClient renders one profile line with the portfolio value in crores.
func FormatClient(c *store.Client) string {
	return fmt.Sprintf("- %s: Portfolio Value: ₹%s Cr, Risk: %s, RM: %s",
		c.Name, FormatCrores(c.PortfolioValue), c.RiskAppetite, c.RelationshipManager)
}

// FormatCrores converts rupees to crores with two decimals.
func FormatCrores(rupees float64) string {
	return decimal.NewFromFloat(rupees).Div(crore).StringFixed(2)
}
