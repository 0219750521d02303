// Package modelstorage provides types for querying the record store backends.

package modelstorage

// CollectionStorageEntry is a row of the collections table.
type CollectionStorageEntry struct {
	ID          int64  `db:"id"`
	UserID      string `db:"user_id"`
	DisplayName string `db:"display_name"`
	BoxCount    int64  `db:"box_count"`
}

// SaleStorageEntry is a row of the sales table.
type SaleStorageEntry struct {
	ID          int64  `db:"id"`
	UserID      string `db:"user_id"`
	DisplayName string `db:"display_name"`
	Description string `db:"description"`
	Delivered   string `db:"delivered"`
	Amount      int64  `db:"amount"`
}

// FileDocument is the on-disk layout of the JSON data file.
type FileDocument struct {
	NextSeq     int64                          `json:"next_seq"`
	Collections map[string]CollectionFileEntry `json:"coletas"`
	Sales       map[string]SaleFileEntry       `json:"vendas"`
	Settings    map[string]string              `json:"settings"`
}

// CollectionFileEntry keeps the field names of the legacy ranking.json file.
type CollectionFileEntry struct {
	Seq         int64  `json:"seq"`
	DisplayName string `json:"nome"`
	BoxCount    int64  `json:"caixas"`
}

// SaleFileEntry is a sale inside the JSON data file.
type SaleFileEntry struct {
	Seq         int64  `json:"seq"`
	DisplayName string `json:"nome"`
	Description string `json:"descricao"`
	Delivered   string `json:"entregue"`
	Amount      int64  `json:"valor"`
}
