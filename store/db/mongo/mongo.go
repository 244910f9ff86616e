// Package mongo is the document store driver holding client profiles.
package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hrygo/wealthsense/store"
)

const (
	clientsCollection = "clients"
	connectTimeout    = 5 * time.Second
)

type DB struct {
	client  *mongo.Client
	clients *mongo.Collection
}

// NewDB connects to MongoDB and pings the primary. A failed ping closes the
// client and returns an error wrapping store.ErrDocumentStoreUnavailable.
func NewDB(ctx context.Context, uri, database string) (store.DocumentDriver, error) {
	if uri == "" {
		return nil, errors.Wrap(store.ErrDocumentStoreUnavailable, "mongo uri required")
	}

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrapf(store.ErrDocumentStoreUnavailable, "failed to connect: %v", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrapf(store.ErrDocumentStoreUnavailable, "failed to ping: %v", err)
	}

	return &DB{
		client:  client,
		clients: client.Database(database).Collection(clientsCollection),
	}, nil
}

func (d *DB) Ping(ctx context.Context) error {
	return wrap(d.client.Ping(ctx, readpref.Primary()))
}

func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

func (d *DB) ListClients(ctx context.Context, find *store.FindClient) ([]*store.Client, error) {
	opts := options.Find()
	if find != nil {
		if find.Limit > 0 {
			opts.SetLimit(int64(find.Limit))
		}
		if find.SortByValue {
			opts.SetSort(bson.D{{Key: "portfolio_value", Value: -1}})
		}
	}

	cursor, err := d.clients.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, wrap(errors.Wrap(err, "failed to find clients"))
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrap(errors.Wrap(err, "failed to decode clients"))
	}

	list := make([]*store.Client, 0, len(docs))
	for _, doc := range docs {
		list = append(list, convertClient(doc))
	}
	return list, nil
}

func (d *DB) GetClientStats(ctx context.Context) (*store.ClientStats, error) {
	total, err := d.clients.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, wrap(errors.Wrap(err, "failed to count clients"))
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_value", Value: bson.D{{Key: "$sum", Value: "$portfolio_value"}}},
		}}},
	}
	cursor, err := d.clients.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrap(errors.Wrap(err, "failed to aggregate portfolio value"))
	}
	var groups []bson.M
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, wrap(errors.Wrap(err, "failed to decode portfolio value"))
	}

	stats := &store.ClientStats{TotalClients: total}
	if len(groups) > 0 {
		stats.TotalPortfolioValue = toFloat(groups[0]["total_value"])
	}
	return stats, nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return &store.UnavailableError{Err: err}
	}
	return store.WrapUnavailable(err)
}

// convertClient maps a raw clients document. Missing fields stay zero.
func convertClient(doc bson.M) *store.Client {
	c := &store.Client{
		Name:                toString(doc["name"]),
		Email:               toString(doc["email"]),
		Phone:               toString(doc["phone"]),
		Address:             toString(doc["address"]),
		RiskAppetite:        toString(doc["risk_appetite"]),
		RelationshipManager: toString(doc["relationship_manager"]),
		PortfolioValue:      toFloat(doc["portfolio_value"]),
		ClientType:          toString(doc["client_type"]),
	}

	switch id := doc["_id"].(type) {
	case primitive.ObjectID:
		c.ID = id.Hex()
	case string:
		c.ID = id
	}

	if prefs, ok := doc["investment_preferences"].(primitive.A); ok {
		for _, p := range prefs {
			if s, ok := p.(string); ok {
				c.InvestmentPreferences = append(c.InvestmentPreferences, s)
			}
		}
	}

	switch created := doc["created_date"].(type) {
	case primitive.DateTime:
		c.CreatedDate = created.Time().UTC()
	case time.Time:
		c.CreatedDate = created.UTC()
	}
	return c
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	case primitive.Decimal128:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return 0
		}
		return d.InexactFloat64()
	default:
		return 0
	}
}
