package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/game-store/internal/apperr"
	"github.com/iliyamo/game-store/internal/clock"
	"github.com/iliyamo/game-store/internal/store"
)

// CartItemView is one cart line priced at view time.
type CartItemView struct {
	CatalogEntryID uint64    `json:"catalog_entry_id"`
	Title          string    `json:"title"`
	Price          string    `json:"price"`
	FinalPrice     string    `json:"final_price"`
	Available      bool      `json:"available"`
	AddedAt        time.Time `json:"added_at"`
}

// CartView is the API shape of a cart.  Prices are looked up fresh on every
// view; Total sums the final prices of the items still on sale.
type CartView struct {
	PlayerID uint64         `json:"player_id"`
	Items    []CartItemView `json:"items"`
	Total    string         `json:"total"`
}

// CartService manages a player's cart.  Every mutation runs in a
// transaction that locks the player's cart row, so overlapping calls for
// one player are serialized while different players never contend.
type CartService struct {
	store store.Store
	clock clock.Clock
	log   zerolog.Logger
}

// NewCartService wires the service.
func NewCartService(st store.Store, clk clock.Clock, log zerolog.Logger) *CartService {
	return &CartService{store: st, clock: clk, log: log.With().Str("component", "cart").Logger()}
}

// AddItem puts an entry in the player's cart, creating the cart on first
// use.  Adding an entry that is already there is a no-op.  The entry must be
// on sale (NOT_FOUND) and not already owned (CONFLICT).
func (s *CartService) AddItem(ctx context.Context, playerID, catalogEntryID uint64) (*CartView, error) {
	if playerID == 0 {
		return nil, apperr.Validation("player id is required")
	}
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		cart, err := tx.EnsureCart(ctx, playerID, s.clock.Now())
		if err != nil {
			return err
		}
		entry, err := tx.GetCatalogEntry(ctx, catalogEntryID)
		if err != nil {
			return err
		}
		if !entry.IsAvailableForPurchase() {
			return apperr.NotFound("catalog entry is not available for purchase")
		}
		owned, err := tx.OwnsEntry(ctx, playerID, catalogEntryID)
		if err != nil {
			return err
		}
		if owned {
			return apperr.Conflict("already owned")
		}
		if cart.Contains(catalogEntryID) {
			return nil
		}
		return tx.AddCartItem(ctx, cart.ID, catalogEntryID, s.clock.Now())
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	s.log.Debug().Uint64("player_id", playerID).Uint64("catalog_entry_id", catalogEntryID).Msg("cart item added")
	return s.View(ctx, playerID)
}

// RemoveItem drops an entry from the cart.  Removing an item that is not in
// the cart, or from a player without a cart, is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, playerID, catalogEntryID uint64) (*CartView, error) {
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		cart, err := tx.LockCart(ctx, playerID)
		if err != nil || cart == nil || !cart.Contains(catalogEntryID) {
			return err
		}
		return tx.RemoveCartItem(ctx, cart.ID, catalogEntryID)
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return s.View(ctx, playerID)
}

// Clear empties the player's cart.
func (s *CartService) Clear(ctx context.Context, playerID uint64) error {
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		cart, err := tx.LockCart(ctx, playerID)
		if err != nil || cart == nil {
			return err
		}
		return tx.ClearCart(ctx, cart.ID)
	})
	if err != nil {
		return apperr.Wrap(err)
	}
	return nil
}

// View returns the cart with current prices.  A player without a cart gets
// an empty view.
func (s *CartService) View(ctx context.Context, playerID uint64) (*CartView, error) {
	view := &CartView{PlayerID: playerID, Items: []CartItemView{}, Total: decimal.Zero.StringFixed(2)}
	cart, err := s.store.GetCart(ctx, playerID)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return view, nil
		}
		return nil, apperr.Wrap(err)
	}

	now := s.clock.Now()
	total := decimal.Zero
	for _, it := range cart.Items {
		entry, err := s.store.GetCatalogEntry(ctx, it.CatalogEntryID)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		final := entry.FinalPrice(now)
		item := CartItemView{
			CatalogEntryID: entry.ID,
			Title:          entry.Game.Title,
			Price:          entry.Price.StringFixed(2),
			FinalPrice:     final.StringFixed(2),
			Available:      entry.IsAvailableForPurchase(),
			AddedAt:        it.AddedAt,
		}
		if item.Available {
			total = total.Add(final.Round(2))
		}
		view.Items = append(view.Items, item)
	}
	view.Total = total.StringFixed(2)
	return view, nil
}
