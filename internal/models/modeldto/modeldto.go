// Package modeldto provides types exchanged between the ledger, its callers and the record store.
package modeldto

type (
	// CollectionTotal is the accumulated number of boxes collected by one user.
	CollectionTotal struct {
		UserID      string `json:"user_id"`
		DisplayName string `json:"display_name"`
		BoxCount    int64  `json:"box_count"`
	}
	// SaleRecord is the latest sale registered by one user.
	SaleRecord struct {
		UserID      string `json:"user_id"`
		DisplayName string `json:"display_name"`
		Description string `json:"description"`
		Delivered   string `json:"delivered"`
		Amount      int64  `json:"amount"`
	}
	// RankingEntry is one leaderboard position.
	RankingEntry struct {
		Rank        int    `json:"rank"`
		UserID      string `json:"user_id"`
		DisplayName string `json:"display_name"`
		BoxCount    int64  `json:"box_count"`
	}
)
