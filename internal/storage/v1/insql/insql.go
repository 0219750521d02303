// Package insql implements the record store on top of a relational database,
// either PostgreSQL (pgx driver) or SQLite (sqlite3 driver).
package insql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/danilovkiri/dk-go-coletabot/internal/config"
	"github.com/danilovkiri/dk-go-coletabot/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1"
	storageErrors "github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/errors"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/modelstorage"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

var _ storage.Storage = (*Storage)(nil)

// Storage defines attributes of a struct available to its methods.
type Storage struct {
	Cfg    *config.StorageConfig
	DB     *sql.DB
	driver string
	log    *zerolog.Logger
}

// InitStorage opens the database, checks the connection and creates missing tables.
func InitStorage(ctx context.Context, cfg *config.StorageConfig, log *zerolog.Logger) (*Storage, error) {
	driverName := cfg.DatabaseDriver
	if driverName == "" {
		driverName = DriverPostgres
	}
	if driverName != DriverPostgres && driverName != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driverName)
	}
	db, err := sql.Open(driverName, cfg.DatabaseDSN)
	if err != nil {
		return nil, &storageErrors.UnavailableError{Err: err}
	}
	if driverName == DriverSQLite {
		// a single connection serializes writers instead of failing with SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	st := Storage{
		Cfg:    cfg,
		DB:     db,
		driver: driverName,
		log:    log,
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, &storageErrors.UnavailableError{Err: err}
	}
	if err := st.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info().Str("driver", driverName).Msg("DB connection was established")
	return &st, nil
}

// Close closes the underlying connection pool.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// GetCollection retrieves the collection total of a user.
func (s *Storage) GetCollection(ctx context.Context, userID string) (*modeldto.CollectionTotal, error) {
	var entry modelstorage.CollectionStorageEntry
	err := s.DB.QueryRowContext(ctx, "SELECT seq, usuario_id, nome, caixas FROM coletas WHERE usuario_id = $1", userID).
		Scan(&entry.ID, &entry.UserID, &entry.DisplayName, &entry.BoxCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storageErrors.NotFoundError{Err: err, ID: userID}
	}
	if err != nil {
		err = s.classify(ctx, err)
		s.log.Error().Err(err).Msg(fmt.Sprintf("getting collection failed for %s", userID))
		return nil, err
	}
	return &modeldto.CollectionTotal{UserID: entry.UserID, DisplayName: entry.DisplayName, BoxCount: entry.BoxCount}, nil
}

// UpsertCollection creates the collection total of a user or adds deltaBoxes to it,
// overwriting the display name. The read-modify-write is a single statement.
func (s *Storage) UpsertCollection(ctx context.Context, userID, displayName string, deltaBoxes int64) (*modeldto.CollectionTotal, error) {
	query := `INSERT INTO coletas (usuario_id, nome, caixas) VALUES ($1, $2, $3)
		ON CONFLICT (usuario_id) DO UPDATE SET nome = EXCLUDED.nome, caixas = coletas.caixas + EXCLUDED.caixas
		RETURNING usuario_id, nome, caixas`
	var entry modelstorage.CollectionStorageEntry
	err := s.DB.QueryRowContext(ctx, query, userID, displayName, deltaBoxes).
		Scan(&entry.UserID, &entry.DisplayName, &entry.BoxCount)
	if err != nil {
		err = s.classify(ctx, err)
		s.log.Error().Err(err).Msg(fmt.Sprintf("upserting collection failed for %s", userID))
		return nil, err
	}
	s.log.Info().Msg(fmt.Sprintf("upserting collection done for %s", userID))
	return &modeldto.CollectionTotal{UserID: entry.UserID, DisplayName: entry.DisplayName, BoxCount: entry.BoxCount}, nil
}

// TopCollections retrieves up to n collection totals, most boxes first, ties in insertion order.
func (s *Storage) TopCollections(ctx context.Context, n int) ([]modeldto.CollectionTotal, error) {
	totals := []modeldto.CollectionTotal{}
	if n <= 0 {
		return totals, nil
	}
	rows, err := s.DB.QueryContext(ctx, "SELECT seq, usuario_id, nome, caixas FROM coletas ORDER BY caixas DESC, seq ASC LIMIT $1", n)
	if err != nil {
		err = s.classify(ctx, err)
		s.log.Error().Err(err).Msg("getting top collections failed")
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var entry modelstorage.CollectionStorageEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.DisplayName, &entry.BoxCount); err != nil {
			return nil, &storageErrors.ScanningError{Err: err}
		}
		totals = append(totals, modeldto.CollectionTotal{UserID: entry.UserID, DisplayName: entry.DisplayName, BoxCount: entry.BoxCount})
	}
	if err := rows.Err(); err != nil {
		return nil, &storageErrors.ScanningError{Err: err}
	}
	s.log.Debug().Msg(fmt.Sprintf("getting top collections done, %d found", len(totals)))
	return totals, nil
}

// GetSale retrieves the latest sale of a user.
func (s *Storage) GetSale(ctx context.Context, userID string) (*modeldto.SaleRecord, error) {
	var entry modelstorage.SaleStorageEntry
	err := s.DB.QueryRowContext(ctx, "SELECT seq, usuario_id, nome, descricao, entregue, valor FROM vendas WHERE usuario_id = $1", userID).
		Scan(&entry.ID, &entry.UserID, &entry.DisplayName, &entry.Description, &entry.Delivered, &entry.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &storageErrors.NotFoundError{Err: err, ID: userID}
	}
	if err != nil {
		err = s.classify(ctx, err)
		s.log.Error().Err(err).Msg(fmt.Sprintf("getting sale failed for %s", userID))
		return nil, err
	}
	return saleFromEntry(entry), nil
}

// UpsertSale stores a sale, fully replacing any previous sale of the same user.
func (s *Storage) UpsertSale(ctx context.Context, sale modeldto.SaleRecord) (*modeldto.SaleRecord, error) {
	query := `INSERT INTO vendas (usuario_id, nome, descricao, entregue, valor) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (usuario_id) DO UPDATE SET nome = EXCLUDED.nome, descricao = EXCLUDED.descricao,
			entregue = EXCLUDED.entregue, valor = EXCLUDED.valor
		RETURNING usuario_id, nome, descricao, entregue, valor`
	var entry modelstorage.SaleStorageEntry
	err := s.DB.QueryRowContext(ctx, query, sale.UserID, sale.DisplayName, sale.Description, sale.Delivered, sale.Amount).
		Scan(&entry.UserID, &entry.DisplayName, &entry.Description, &entry.Delivered, &entry.Amount)
	if err != nil {
		err = s.classify(ctx, err)
		s.log.Error().Err(err).Msg(fmt.Sprintf("upserting sale failed for %s", sale.UserID))
		return nil, err
	}
	s.log.Info().Msg(fmt.Sprintf("upserting sale done for %s", sale.UserID))
	return saleFromEntry(entry), nil
}

// GetSetting retrieves a setting value; a missing setting yields an empty string.
func (s *Storage) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, "SELECT value FROM settings WHERE name = $1", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", s.classify(ctx, err)
	}
	return value, nil
}

// SetSetting stores a setting value.
func (s *Storage) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO settings (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`, key, value)
	if err != nil {
		return s.classify(ctx, err)
	}
	return nil
}

// classify maps driver errors onto the storage error types.
func (s *Storage) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return &storageErrors.UnavailableError{Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgerrcode.IsConnectionException(pgErr.Code) || pgerrcode.IsInsufficientResources(pgErr.Code) {
			return &storageErrors.UnavailableError{Err: err}
		}
		return &storageErrors.ExecutionError{Err: err, Code: pgErr.Code}
	}
	return &storageErrors.ExecutionError{Err: err}
}

func saleFromEntry(entry modelstorage.SaleStorageEntry) *modeldto.SaleRecord {
	return &modeldto.SaleRecord{
		UserID:      entry.UserID,
		DisplayName: entry.DisplayName,
		Description: entry.Description,
		Delivered:   entry.Delivered,
		Amount:      entry.Amount,
	}
}

func (s *Storage) createTables(ctx context.Context) error {
	var queries []string
	switch s.driver {
	case DriverSQLite:
		queries = append(queries, `CREATE TABLE IF NOT EXISTS coletas (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			usuario_id TEXT    NOT NULL UNIQUE,
			nome       TEXT    NOT NULL,
			caixas     INTEGER NOT NULL CHECK (caixas >= 0)
		);`)
		queries = append(queries, `CREATE TABLE IF NOT EXISTS vendas (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			usuario_id TEXT    NOT NULL UNIQUE,
			nome       TEXT    NOT NULL,
			descricao  TEXT    NOT NULL,
			entregue   TEXT    NOT NULL,
			valor      INTEGER NOT NULL
		);`)
	default:
		queries = append(queries, `CREATE TABLE IF NOT EXISTS coletas (
			usuario_id TEXT   PRIMARY KEY,
			nome       TEXT   NOT NULL,
			caixas     BIGINT NOT NULL CHECK (caixas >= 0)
		);`)
		// tables created by earlier releases lack the insertion sequence
		queries = append(queries, `ALTER TABLE coletas ADD COLUMN IF NOT EXISTS seq BIGSERIAL;`)
		queries = append(queries, `CREATE TABLE IF NOT EXISTS vendas (
			usuario_id TEXT   PRIMARY KEY,
			nome       TEXT   NOT NULL,
			descricao  TEXT   NOT NULL,
			entregue   TEXT   NOT NULL,
			valor      BIGINT NOT NULL
		);`)
		queries = append(queries, `ALTER TABLE vendas ADD COLUMN IF NOT EXISTS seq BIGSERIAL;`)
	}
	queries = append(queries, `CREATE TABLE IF NOT EXISTS settings (
		name  TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`)
	for _, subquery := range queries {
		_, err := s.DB.ExecContext(ctx, subquery)
		if err != nil {
			return &storageErrors.StatementError{Err: err}
		}
	}
	return nil
}
