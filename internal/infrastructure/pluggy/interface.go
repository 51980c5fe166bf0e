package pluggy

import (
	"context"
	"errors"
)

// ErrInvestmentsUnsupported is returned by FetchInvestments when the provider
// does not expose a dedicated investments endpoint. Callers fall back to
// filtering the item's accounts for investment-like subtypes.
var ErrInvestmentsUnsupported = errors.New("investments endpoint not supported")

// ClientInterface defines the operations the sync engine needs from the
// aggregation provider. Every fetch is independently fallible so one
// account's failure never has to abort its siblings.
type ClientInterface interface {
	FetchAccount(ctx context.Context, accountID string) (*Account, error)
	FetchAccounts(ctx context.Context, itemID string) ([]Account, error)
	FetchAllTransactions(ctx context.Context, accountID string) ([]Transaction, error)
	FetchItem(ctx context.Context, itemID string) (*Item, error)
	FetchConnector(ctx context.Context, connectorID int) (*Connector, error)
	FetchConnectors(ctx context.Context) ([]Connector, error)
	FetchInvestments(ctx context.Context, itemID string) ([]Investment, error)
}
