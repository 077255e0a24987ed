// Package service holds the catalog, cart, library and purchase use cases.
// Services take a store.Store and an injectable clock and return apperr
// errors; any non-domain failure is wrapped as INFRASTRUCTURE.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iliyamo/game-store/internal/apperr"
	"github.com/iliyamo/game-store/internal/clock"
	"github.com/iliyamo/game-store/internal/metrics"
	"github.com/iliyamo/game-store/internal/model"
	"github.com/iliyamo/game-store/internal/queue"
	"github.com/iliyamo/game-store/internal/store"
)

// EventPublisher receives an event per library entry after a purchase
// commits.  *queue.Publisher implements it.
type EventPublisher interface {
	PublishPurchaseCompleted(ctx context.Context, ev queue.PurchaseCompletedEvent) error
}

const publishTimeout = 5 * time.Second

// PurchaseService turns catalog entries into library entries.  Cart
// checkout is all-or-nothing: every item is validated first and a single
// failing item aborts the checkout, leaving the library and the cart as
// they were.
type PurchaseService struct {
	store  store.Store
	clock  clock.Clock
	events EventPublisher
	log    zerolog.Logger
}

// NewPurchaseService wires the service.  events may be nil.
func NewPurchaseService(st store.Store, clk clock.Clock, events EventPublisher, log zerolog.Logger) *PurchaseService {
	return &PurchaseService{
		store:  st,
		clock:  clk,
		events: events,
		log:    log.With().Str("component", "purchase").Logger(),
	}
}

// PurchaseSingle buys one catalog entry directly.  It fails NOT_FOUND when
// the entry does not exist or was removed from sale and CONFLICT when the
// player already owns it, including when a concurrent purchase wins the
// race.  A successful purchase also drops the entry from the player's cart.
func (s *PurchaseService) PurchaseSingle(ctx context.Context, playerID, catalogEntryID uint64) (*model.LibraryEntry, error) {
	started := time.Now()
	attempt := model.NewPurchaseAttempt(playerID, catalogEntryID)
	if playerID == 0 {
		return nil, s.reject(metrics.KindSingle, started, []*model.PurchaseAttempt{attempt}, apperr.Validation("player id is required"))
	}

	var created *model.LibraryEntry
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		// The cart is locked before the catalog row so single purchases and
		// checkouts acquire locks in the same order.
		cart, err := tx.LockCart(ctx, playerID)
		if err != nil {
			return err
		}

		attempt.Validate()
		now := s.clock.Now()
		entry, err := s.checkPurchasable(ctx, tx, playerID, catalogEntryID)
		if err != nil {
			return err
		}
		le, err := s.insert(ctx, tx, playerID, entry, now)
		if err != nil {
			return err
		}
		if cart != nil && cart.Contains(catalogEntryID) {
			if err := tx.RemoveCartItem(ctx, cart.ID, catalogEntryID); err != nil {
				return err
			}
		}
		created = le
		return nil
	})
	if err != nil {
		return nil, s.reject(metrics.KindSingle, started, []*model.PurchaseAttempt{attempt}, err)
	}

	attempt.Fulfill()
	s.complete(ctx, metrics.KindSingle, started, []model.LibraryEntry{*created})
	return created, nil
}

// PurchaseFromCart checks out the player's whole cart.  An absent or empty
// cart is a VALIDATION error.  Each item must be available and not owned;
// if any item fails, nothing is written and the returned error lists one
// message per failing item with the code of the first failure.  On success
// the cart is emptied in the same transaction.
func (s *PurchaseService) PurchaseFromCart(ctx context.Context, playerID uint64) ([]model.LibraryEntry, error) {
	started := time.Now()
	if playerID == 0 {
		return nil, s.reject(metrics.KindCart, started, nil, apperr.Validation("player id is required"))
	}

	var (
		created  []model.LibraryEntry
		attempts []*model.PurchaseAttempt
	)
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		created, attempts = nil, nil

		cart, err := tx.LockCart(ctx, playerID)
		if err != nil {
			return err
		}
		if cart == nil || cart.IsEmpty() {
			return apperr.Validation("empty cart")
		}

		now := s.clock.Now()
		entries := make([]*model.CatalogEntry, 0, len(cart.Items))
		var (
			firstCode apperr.Code
			messages  []string
		)
		for _, id := range cart.EntryIDs() {
			a := model.NewPurchaseAttempt(playerID, id)
			attempts = append(attempts, a)
			a.Validate()

			entry, err := s.checkPurchasable(ctx, tx, playerID, id)
			if err != nil {
				if apperr.CodeOf(err) == apperr.CodeInfrastructure {
					return err
				}
				a.Reject(err)
				if firstCode == "" {
					firstCode = a.Reason
				}
				messages = append(messages, fmt.Sprintf("catalog entry %d: %s", id, firstMessage(err)))
				continue
			}
			entries = append(entries, entry)
		}
		if len(messages) > 0 {
			return &apperr.Error{Code: firstCode, Messages: messages}
		}

		for _, entry := range entries {
			le, err := s.insert(ctx, tx, playerID, entry, now)
			if err != nil {
				return err
			}
			created = append(created, *le)
		}
		return tx.ClearCart(ctx, cart.ID)
	})
	if err != nil {
		return nil, s.reject(metrics.KindCart, started, attempts, err)
	}

	for _, a := range attempts {
		a.Fulfill()
	}
	s.complete(ctx, metrics.KindCart, started, created)
	return created, nil
}

// checkPurchasable loads the entry under a shared lock and verifies it is
// on sale and not yet owned by the player.
func (s *PurchaseService) checkPurchasable(ctx context.Context, tx store.Tx, playerID, catalogEntryID uint64) (*model.CatalogEntry, error) {
	entry, err := tx.GetCatalogEntry(ctx, catalogEntryID)
	if err != nil {
		return nil, err
	}
	if !entry.IsAvailableForPurchase() {
		return nil, apperr.NotFound("catalog entry is not available for purchase")
	}
	owned, err := tx.OwnsEntry(ctx, playerID, catalogEntryID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, apperr.Conflict("already owned")
	}
	return entry, nil
}

// insert snapshots the final price and writes the library entry.  A
// concurrent purchase that slipped past the ownership check surfaces here as
// CONFLICT from the unique key.
func (s *PurchaseService) insert(ctx context.Context, tx store.Tx, playerID uint64, entry *model.CatalogEntry, now time.Time) (*model.LibraryEntry, error) {
	le, err := model.NewLibraryEntry(playerID, entry, now)
	if err != nil {
		return nil, err
	}
	if err := tx.InsertLibraryEntry(ctx, le); err != nil {
		if apperr.CodeOf(err) == apperr.CodeConflict {
			return nil, apperr.Conflict("already owned")
		}
		return nil, err
	}
	return le, nil
}

func (s *PurchaseService) reject(kind string, started time.Time, attempts []*model.PurchaseAttempt, err error) error {
	aerr := apperr.Wrap(err)
	for _, a := range attempts {
		a.Reject(aerr)
	}
	metrics.RecordPurchase(kind, outcomeLabel(aerr.Code), 0, time.Since(started))

	var ev *zerolog.Event
	switch aerr.Code {
	case apperr.CodeInfrastructure:
		ev = s.log.Error().Err(aerr.Cause)
	case apperr.CodeConflict:
		ev = s.log.Warn()
	default:
		ev = s.log.Debug()
	}
	ev.Str("kind", kind).Str("code", string(aerr.Code)).Strs("messages", aerr.Messages).
		Int("items", len(attempts)).Msg("purchase rejected")
	return aerr
}

func (s *PurchaseService) complete(ctx context.Context, kind string, started time.Time, created []model.LibraryEntry) {
	metrics.RecordPurchase(kind, "fulfilled", len(created), time.Since(started))
	for _, le := range created {
		s.log.Info().Str("kind", kind).Uint64("player_id", le.PlayerID).
			Uint64("catalog_entry_id", le.CatalogEntryID).Uint64("library_entry_id", le.ID).
			Str("price", le.PurchasePrice.StringFixed(2)).Msg("purchase fulfilled")
	}
	if s.events == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	for i, le := range created {
		err := s.events.PublishPurchaseCompleted(pubCtx, queue.NewPurchaseCompletedEvent(le, kind))
		if err == nil {
			continue
		}
		s.log.Warn().Err(err).Uint64("library_entry_id", le.ID).Msg("purchase event not published")
		if errors.Is(err, queue.ErrBrokerUnavailable) {
			s.log.Warn().Int("skipped", len(created)-i-1).Msg("broker unavailable, remaining purchase events dropped")
			return
		}
	}
}

func outcomeLabel(code apperr.Code) string {
	switch code {
	case apperr.CodeValidation:
		return "validation"
	case apperr.CodeNotFound:
		return "not_found"
	case apperr.CodeConflict:
		return "conflict"
	}
	return "infrastructure"
}

func firstMessage(err error) string {
	if e := apperr.Wrap(err); len(e.Messages) > 0 {
		return e.Messages[0]
	}
	return err.Error()
}
