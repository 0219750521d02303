// Package ledger defines the contract of the collection/sale ledger.
package ledger

import (
	"context"

	"github.com/danilovkiri/dk-go-coletabot/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-coletabot/internal/models/modelqueue"
)

// Ledger validates submissions and applies them to the record store.
type Ledger interface {
	RecordCollection(ctx context.Context, userID, displayName, rawBoxCount string) (*modeldto.CollectionTotal, error)
	RecordSale(ctx context.Context, userID, displayName, description, rawDelivered, rawAmount string) (*modeldto.SaleRecord, error)
}

// Notifier receives a notification after every successful mutation.
type Notifier interface {
	Notify(ctx context.Context, notification modelqueue.Notification) error
}
