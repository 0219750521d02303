// Package storage defines the record store contract shared by every backing medium.
package storage

import (
	"context"

	"github.com/danilovkiri/dk-go-coletabot/internal/models/modeldto"
)

// Collections keeps accumulated box counts per user.
type Collections interface {
	GetCollection(ctx context.Context, userID string) (*modeldto.CollectionTotal, error)
	UpsertCollection(ctx context.Context, userID, displayName string, deltaBoxes int64) (*modeldto.CollectionTotal, error)
	TopCollections(ctx context.Context, n int) ([]modeldto.CollectionTotal, error)
}

// Sales keeps the latest sale per user.
type Sales interface {
	GetSale(ctx context.Context, userID string) (*modeldto.SaleRecord, error)
	UpsertSale(ctx context.Context, sale modeldto.SaleRecord) (*modeldto.SaleRecord, error)
}

// Settings keeps small pieces of bot state, such as the leaderboard message identifier.
type Settings interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

type Storage interface {
	Collections
	Sales
	Settings
	Close() error
}
