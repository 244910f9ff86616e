package store

import (
	"context"

	"github.com/hrygo/wealthsense/internal/profile"
)

// Store provides access to the relational and the document store.
// Both handles are created once at process start and torn down by Close.
type Store struct {
	profile   *profile.Profile
	driver    Driver
	documents DocumentDriver
}

// New creates a new instance of Store. documents may be nil when the document
// store is not configured or was unreachable at startup.
func New(driver Driver, documents DocumentDriver, profile *profile.Profile) *Store {
	return &Store{
		driver:    driver,
		documents: documents,
		profile:   profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

// GetDocumentDriver returns the document store, or nil when absent.
func (s *Store) GetDocumentDriver() DocumentDriver {
	return s.documents
}

// HasDocuments reports whether a document store is attached.
func (s *Store) HasDocuments() bool {
	return s.documents != nil
}

// HasRelational reports whether a relational store is attached.
func (s *Store) HasRelational() bool {
	return s.driver != nil
}

func (s *Store) Close(ctx context.Context) error {
	var firstErr error
	if s.documents != nil {
		if err := s.documents.Close(ctx); err != nil {
			firstErr = err
		}
	}
	if s.driver != nil {
		if err := s.driver.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Store) ListClients(ctx context.Context, find *FindClient) ([]*Client, error) {
	if s.documents == nil {
		return nil, ErrDocumentStoreUnavailable
	}
	return s.documents.ListClients(ctx, find)
}

func (s *Store) GetClientStats(ctx context.Context) (*ClientStats, error) {
	if s.documents == nil {
		return nil, ErrDocumentStoreUnavailable
	}
	return s.documents.GetClientStats(ctx)
}

func (s *Store) ListTransactions(ctx context.Context, find *FindTransaction) ([]*Transaction, error) {
	if s.driver == nil {
		return nil, ErrUnavailable
	}
	return s.driver.ListTransactions(ctx, find)
}

func (s *Store) CountTransactions(ctx context.Context, find *FindTransaction) (int64, error) {
	if s.driver == nil {
		return 0, ErrUnavailable
	}
	return s.driver.CountTransactions(ctx, find)
}
