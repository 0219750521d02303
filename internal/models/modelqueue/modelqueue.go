// Package modelqueue provides types for queueing pieces of data.

package modelqueue

import (
	"fmt"
	"time"
)

// NotificationKind tells sinks which ledger operation produced a notification.
type NotificationKind string

const (
	KindCollection NotificationKind = "collection"
	KindSale       NotificationKind = "sale"
)

// Notification is an admin notification emitted after a successful ledger mutation.
type Notification struct {
	SubmissionID string
	Kind         NotificationKind
	UserID       string
	DisplayName  string
	BoxDelta     int64
	Description  string
	Delivered    string
	Amount       int64
	RetryCount   int
	CreatedAt    time.Time
}

// Text renders the human-readable admin message for a notification.
func (n Notification) Text() string {
	switch n.Kind {
	case KindSale:
		return fmt.Sprintf("Nova venda registrada:\n**Nome:** %s\n**ID:** %s\n**Descrição:** %s\n**Entregue:** %s\n**Valor:** %d",
			n.DisplayName, n.UserID, n.Description, n.Delivered, n.Amount)
	default:
		return fmt.Sprintf("Nova coleta registrada:\n**Nome:** %s\n**ID:** %s\n**Caixas:** %d",
			n.DisplayName, n.UserID, n.BoxDelta)
	}
}
