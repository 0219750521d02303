// Package infile implements the record store on top of a single JSON file.
//
// The file keeps the field names of the legacy ranking.json layout, in which the
// whole document was a map of user identifier to {"nome", "caixas"}. Such files
// are migrated in place on first load, preserving their key order as insertion order.
package infile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/danilovkiri/dk-go-coletabot/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1"
	storageErrors "github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/errors"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1/modelstorage"
	"github.com/rs/zerolog"
)

var _ storage.Storage = (*Storage)(nil)

// Storage defines attributes of a struct available to its methods.
type Storage struct {
	mu   sync.Mutex
	path string
	doc  modelstorage.FileDocument
	log  *zerolog.Logger
}

// InitStorage loads the data file, creating an empty document when the file does not exist.
func InitStorage(path string, log *zerolog.Logger) (*Storage, error) {
	st := &Storage{path: path, log: log}
	doc, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	st.doc = doc
	log.Info().Str("file", path).Int("collections", len(doc.Collections)).Msg("data file was loaded")
	return st, nil
}

// Close is a no-op, every mutation is already flushed to disk.
func (s *Storage) Close() error {
	return nil
}

// GetCollection retrieves the collection total of a user.
func (s *Storage) GetCollection(ctx context.Context, userID string) (*modeldto.CollectionTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.doc.Collections[userID]
	if !ok {
		return nil, &storageErrors.NotFoundError{ID: userID}
	}
	return &modeldto.CollectionTotal{UserID: userID, DisplayName: entry.DisplayName, BoxCount: entry.BoxCount}, nil
}

// UpsertCollection creates the collection total of a user or adds deltaBoxes to it,
// overwriting the display name.
func (s *Storage) UpsertCollection(ctx context.Context, userID, displayName string, deltaBoxes int64) (*modeldto.CollectionTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := cloneDocument(s.doc)
	entry, ok := next.Collections[userID]
	if !ok {
		next.NextSeq++
		entry.Seq = next.NextSeq
	}
	entry.DisplayName = displayName
	entry.BoxCount += deltaBoxes
	if entry.BoxCount < 0 {
		return nil, &storageErrors.ExecutionError{Err: fmt.Errorf("box count of %s would become %d", userID, entry.BoxCount)}
	}
	next.Collections[userID] = entry
	if err := s.commit(next); err != nil {
		s.log.Error().Err(err).Msg(fmt.Sprintf("upserting collection failed for %s", userID))
		return nil, err
	}
	s.log.Info().Msg(fmt.Sprintf("upserting collection done for %s", userID))
	return &modeldto.CollectionTotal{UserID: userID, DisplayName: entry.DisplayName, BoxCount: entry.BoxCount}, nil
}

// TopCollections retrieves up to n collection totals, most boxes first, ties in insertion order.
func (s *Storage) TopCollections(ctx context.Context, n int) ([]modeldto.CollectionTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	totals := []modeldto.CollectionTotal{}
	if n <= 0 {
		return totals, nil
	}
	s.mu.Lock()
	type ranked struct {
		seq   int64
		total modeldto.CollectionTotal
	}
	all := make([]ranked, 0, len(s.doc.Collections))
	for userID, entry := range s.doc.Collections {
		all = append(all, ranked{seq: entry.Seq, total: modeldto.CollectionTotal{UserID: userID, DisplayName: entry.DisplayName, BoxCount: entry.BoxCount}})
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool {
		if all[i].total.BoxCount != all[j].total.BoxCount {
			return all[i].total.BoxCount > all[j].total.BoxCount
		}
		return all[i].seq < all[j].seq
	})
	if len(all) > n {
		all = all[:n]
	}
	for _, r := range all {
		totals = append(totals, r.total)
	}
	return totals, nil
}

// GetSale retrieves the latest sale of a user.
func (s *Storage) GetSale(ctx context.Context, userID string) (*modeldto.SaleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.doc.Sales[userID]
	if !ok {
		return nil, &storageErrors.NotFoundError{ID: userID}
	}
	return saleFromEntry(userID, entry), nil
}

// UpsertSale stores a sale, fully replacing any previous sale of the same user.
func (s *Storage) UpsertSale(ctx context.Context, sale modeldto.SaleRecord) (*modeldto.SaleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := cloneDocument(s.doc)
	seq := next.Sales[sale.UserID].Seq
	if seq == 0 {
		next.NextSeq++
		seq = next.NextSeq
	}
	entry := modelstorage.SaleFileEntry{
		Seq:         seq,
		DisplayName: sale.DisplayName,
		Description: sale.Description,
		Delivered:   sale.Delivered,
		Amount:      sale.Amount,
	}
	next.Sales[sale.UserID] = entry
	if err := s.commit(next); err != nil {
		s.log.Error().Err(err).Msg(fmt.Sprintf("upserting sale failed for %s", sale.UserID))
		return nil, err
	}
	s.log.Info().Msg(fmt.Sprintf("upserting sale done for %s", sale.UserID))
	return saleFromEntry(sale.UserID, entry), nil
}

// GetSetting retrieves a setting value; a missing setting yields an empty string.
func (s *Storage) GetSetting(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Settings[key], nil
}

// SetSetting stores a setting value.
func (s *Storage) SetSetting(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := cloneDocument(s.doc)
	next.Settings[key] = value
	return s.commit(next)
}

// commit writes the document through a temporary file and swaps it in memory only
// once the rename succeeded, so a failed write leaves both copies untouched.
func (s *Storage) commit(next modelstorage.FileDocument) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return &storageErrors.FileError{Err: err, Path: s.path}
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &storageErrors.FileError{Err: err, Path: s.path}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &storageErrors.FileError{Err: err, Path: s.path}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &storageErrors.FileError{Err: err, Path: s.path}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return &storageErrors.FileError{Err: err, Path: s.path}
	}
	s.doc = next
	return nil
}

func readDocument(path string) (modelstorage.FileDocument, error) {
	doc := emptyDocument()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, &storageErrors.FileError{Err: err, Path: path}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return doc, &storageErrors.FileError{Err: err, Path: path}
	}
	_, hasCollections := probe["coletas"]
	_, hasSales := probe["vendas"]
	_, hasSeq := probe["next_seq"]
	if !hasCollections && !hasSales && !hasSeq {
		if err := readLegacy(data, &doc); err != nil {
			return doc, &storageErrors.FileError{Err: err, Path: path}
		}
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, &storageErrors.FileError{Err: err, Path: path}
	}
	if doc.Collections == nil {
		doc.Collections = map[string]modelstorage.CollectionFileEntry{}
	}
	if doc.Sales == nil {
		doc.Sales = map[string]modelstorage.SaleFileEntry{}
	}
	if doc.Settings == nil {
		doc.Settings = map[string]string{}
	}
	return doc, nil
}

// readLegacy streams the legacy {"<uid>": {"nome", "caixas"}} object so that the
// key order, which was the insertion order, becomes the sequence.
func readLegacy(data []byte, doc *modelstorage.FileDocument) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		userID, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var entry modelstorage.CollectionFileEntry
		if err := dec.Decode(&entry); err != nil {
			return err
		}
		doc.NextSeq++
		entry.Seq = doc.NextSeq
		doc.Collections[userID] = entry
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func emptyDocument() modelstorage.FileDocument {
	return modelstorage.FileDocument{
		Collections: map[string]modelstorage.CollectionFileEntry{},
		Sales:       map[string]modelstorage.SaleFileEntry{},
		Settings:    map[string]string{},
	}
}

func cloneDocument(doc modelstorage.FileDocument) modelstorage.FileDocument {
	next := modelstorage.FileDocument{
		NextSeq:     doc.NextSeq,
		Collections: make(map[string]modelstorage.CollectionFileEntry, len(doc.Collections)+1),
		Sales:       make(map[string]modelstorage.SaleFileEntry, len(doc.Sales)+1),
		Settings:    make(map[string]string, len(doc.Settings)+1),
	}
	for k, v := range doc.Collections {
		next.Collections[k] = v
	}
	for k, v := range doc.Sales {
		next.Sales[k] = v
	}
	for k, v := range doc.Settings {
		next.Settings[k] = v
	}
	return next
}

func saleFromEntry(userID string, entry modelstorage.SaleFileEntry) *modeldto.SaleRecord {
	return &modeldto.SaleRecord{
		UserID:      userID,
		DisplayName: entry.DisplayName,
		Description: entry.Description,
		Delivered:   entry.Delivered,
		Amount:      entry.Amount,
	}
}
