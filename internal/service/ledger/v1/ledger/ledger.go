// Package ledger provides the validate, persist and notify sequence for collection and sale submissions.

package ledger

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/danilovkiri/dk-go-coletabot/internal/models/modeldto"
	"github.com/danilovkiri/dk-go-coletabot/internal/models/modelqueue"
	"github.com/danilovkiri/dk-go-coletabot/internal/service/ledger/v1"
	serviceErrors "github.com/danilovkiri/dk-go-coletabot/internal/service/ledger/v1/errors"
	"github.com/danilovkiri/dk-go-coletabot/internal/storage/v1"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultStoreTimeout = 5 * time.Second

var _ ledger.Ledger = (*Ledger)(nil)

// Ledger defines attributes of a struct available to its methods.
type Ledger struct {
	storage      storage.Storage
	notifier     ledger.Notifier
	storeTimeout time.Duration
	log          *zerolog.Logger
}

// InitService initializes the ledger. A non-positive storeTimeout falls back to five seconds.
func InitService(st storage.Storage, notifier ledger.Notifier, storeTimeout time.Duration, log *zerolog.Logger) (*Ledger, error) {
	if st == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil storage was passed to service initializer"}
	}
	if notifier == nil {
		return nil, &serviceErrors.ServiceFoundNilArgument{Msg: "nil notifier was passed to service initializer"}
	}
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &Ledger{
		storage:      st,
		notifier:     notifier,
		storeTimeout: storeTimeout,
		log:          log,
	}, nil
}

// RecordCollection adds a positive number of boxes to the running total of a user.
func (l *Ledger) RecordCollection(ctx context.Context, userID, displayName, rawBoxCount string) (*modeldto.CollectionTotal, error) {
	boxes, err := parseInteger("caixas", rawBoxCount)
	if err != nil {
		return nil, err
	}
	if boxes <= 0 {
		return nil, &serviceErrors.NonPositiveError{Field: "caixas", Value: boxes}
	}

	storeCtx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()
	total, err := l.storage.UpsertCollection(storeCtx, userID, displayName, boxes)
	if err != nil {
		return nil, err
	}

	submissionID := uuid.New().String()
	l.log.Info().Str("submission", submissionID).Str("user_id", userID).Int64("delta", boxes).Int64("total", total.BoxCount).Msg("collection recorded")
	l.notify(ctx, modelqueue.Notification{
		SubmissionID: submissionID,
		Kind:         modelqueue.KindCollection,
		UserID:       userID,
		DisplayName:  displayName,
		BoxDelta:     boxes,
		CreatedAt:    time.Now(),
	})
	return total, nil
}

// RecordSale replaces the sale record of a user. The amount is not sign-checked.
func (l *Ledger) RecordSale(ctx context.Context, userID, displayName, description, rawDelivered, rawAmount string) (*modeldto.SaleRecord, error) {
	amount, err := parseInteger("valor", rawAmount)
	if err != nil {
		return nil, err
	}
	sale := modeldto.SaleRecord{
		UserID:      userID,
		DisplayName: displayName,
		Description: description,
		Delivered:   NormalizeDelivered(rawDelivered),
		Amount:      amount,
	}

	storeCtx, cancel := context.WithTimeout(ctx, l.storeTimeout)
	defer cancel()
	saved, err := l.storage.UpsertSale(storeCtx, sale)
	if err != nil {
		return nil, err
	}

	submissionID := uuid.New().String()
	l.log.Info().Str("submission", submissionID).Str("user_id", userID).Int64("amount", amount).Msg("sale recorded")
	l.notify(ctx, modelqueue.Notification{
		SubmissionID: submissionID,
		Kind:         modelqueue.KindSale,
		UserID:       saved.UserID,
		DisplayName:  saved.DisplayName,
		Description:  saved.Description,
		Delivered:    saved.Delivered,
		Amount:       saved.Amount,
		CreatedAt:    time.Now(),
	})
	return saved, nil
}

// notify never fails the caller: the mutation is already committed.
func (l *Ledger) notify(ctx context.Context, notification modelqueue.Notification) {
	if err := l.notifier.Notify(ctx, notification); err != nil {
		l.log.Warn().Err(err).Str("submission", notification.SubmissionID).Msg("notification dispatch failed")
	}
}

// NormalizeDelivered trims the answer and capitalizes it: "sim" becomes "Sim", "NAO" becomes "Nao".
func NormalizeDelivered(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func parseInteger(field, raw string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, &serviceErrors.NotANumberError{Field: field, Value: raw}
	}
	return value, nil
}
