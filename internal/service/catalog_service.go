package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/game-store/internal/apperr"
	"github.com/iliyamo/game-store/internal/clock"
	"github.com/iliyamo/game-store/internal/model"
	"github.com/iliyamo/game-store/internal/store"
)

// DefaultPromotionMonths is used when a promotion is applied without an
// end date.
const DefaultPromotionMonths = 1

// PromotionView is the API shape of a promotion.
type PromotionView struct {
	Kind    string    `json:"kind"`
	Value   string    `json:"value"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
	Active  bool      `json:"active"`
}

// CatalogView is the API shape of a catalog entry priced at a given instant.
type CatalogView struct {
	ID          uint64         `json:"id"`
	EAN         string         `json:"ean"`
	Title       string         `json:"title"`
	Genre       string         `json:"genre"`
	Description *string        `json:"description,omitempty"`
	Price       string         `json:"price"`
	FinalPrice  string         `json:"final_price"`
	Promotion   *PromotionView `json:"promotion,omitempty"`
	Available   bool           `json:"available"`
}

// NewCatalogView prices e at now.
func NewCatalogView(e *model.CatalogEntry, now time.Time) CatalogView {
	v := CatalogView{
		ID:          e.ID,
		EAN:         e.Game.EAN,
		Title:       e.Game.Title,
		Genre:       e.Game.Genre,
		Description: e.Game.Description,
		Price:       e.Price.StringFixed(2),
		FinalPrice:  e.FinalPrice(now).StringFixed(2),
		Available:   e.IsAvailableForPurchase(),
	}
	if p := e.Promotion; p.Kind != model.PromotionNone {
		v.Promotion = &PromotionView{
			Kind:    p.Kind.String(),
			Value:   p.Value.String(),
			StartAt: p.StartAt,
			EndAt:   p.EndAt,
			Active:  p.IsActive(now),
		}
	}
	return v
}

// CatalogService manages catalog entries and their pricing.
type CatalogService struct {
	store store.Store
	clock clock.Clock
	log   zerolog.Logger
}

// NewCatalogService wires the service.
func NewCatalogService(st store.Store, clk clock.Clock, log zerolog.Logger) *CatalogService {
	return &CatalogService{store: st, clock: clk, log: log.With().Str("component", "catalog").Logger()}
}

// Register adds a new entry.  The EAN must be unique.
func (s *CatalogService) Register(ctx context.Context, game model.GameInfo, price decimal.Decimal) (*CatalogView, error) {
	entry, err := model.NewCatalogEntry(game, price)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	entry.CreatedAt, entry.UpdatedAt = now, now
	if err := s.store.InTx(ctx, func(tx store.Tx) error {
		return tx.CreateCatalogEntry(ctx, entry)
	}); err != nil {
		return nil, apperr.Wrap(err)
	}
	s.log.Info().Uint64("catalog_entry_id", entry.ID).Str("ean", entry.Game.EAN).Msg("catalog entry registered")
	v := NewCatalogView(entry, now)
	return &v, nil
}

// Get returns an entry whether or not it is still on sale.
func (s *CatalogService) Get(ctx context.Context, id uint64) (*CatalogView, error) {
	entry, err := s.store.GetCatalogEntry(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	v := NewCatalogView(entry, s.clock.Now())
	return &v, nil
}

// ListAvailable returns every entry on sale, priced now.
func (s *CatalogService) ListAvailable(ctx context.Context) ([]CatalogView, error) {
	entries, err := s.store.ListAvailableCatalog(ctx)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	now := s.clock.Now()
	out := make([]CatalogView, 0, len(entries))
	for i := range entries {
		out = append(out, NewCatalogView(&entries[i], now))
	}
	return out, nil
}

// ListPromotional returns the entries on sale whose promotion is active now.
func (s *CatalogService) ListPromotional(ctx context.Context) ([]CatalogView, error) {
	entries, err := s.store.ListAvailableCatalog(ctx)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	now := s.clock.Now()
	out := make([]CatalogView, 0)
	for i := range entries {
		if entries[i].Promotion.IsActive(now) {
			out = append(out, NewCatalogView(&entries[i], now))
		}
	}
	return out, nil
}

// UpdateInfo edits the title, genre and description of an entry.  The EAN
// cannot change and games already in libraries keep their old metadata.
func (s *CatalogService) UpdateInfo(ctx context.Context, id uint64, title, genre string, description *string) (*CatalogView, error) {
	return s.mutate(ctx, id, func(e *model.CatalogEntry) error {
		return e.UpdateInfo(title, genre, description)
	})
}

// UpdatePrice replaces the base price.  Existing library entries keep the
// price they were bought at.
func (s *CatalogService) UpdatePrice(ctx context.Context, id uint64, price decimal.Decimal) (*CatalogView, error) {
	return s.mutate(ctx, id, func(e *model.CatalogEntry) error {
		return e.SetPrice(price)
	})
}

// ApplyPromotion replaces the entry's promotion.  value must be positive;
// start defaults to now and end to one month after start.
func (s *CatalogService) ApplyPromotion(ctx context.Context, id uint64, kind model.PromotionKind, value decimal.Decimal, start, end *time.Time) (*CatalogView, error) {
	if kind == model.PromotionNone {
		return nil, apperr.Validation("promotion kind is required")
	}
	if !value.IsPositive() {
		return nil, apperr.Validation("promotion value must be greater than zero")
	}
	startAt := s.clock.Now()
	if start != nil {
		startAt = *start
	}
	endAt := startAt.AddDate(0, DefaultPromotionMonths, 0)
	if end != nil {
		endAt = *end
	}
	promo, err := model.NewPromotion(kind, value, startAt, endAt)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(e *model.CatalogEntry) error {
		e.ApplyPromotion(promo)
		return nil
	})
}

// RemovePromotion resets the entry to its base price.
func (s *CatalogService) RemovePromotion(ctx context.Context, id uint64) (*CatalogView, error) {
	return s.mutate(ctx, id, func(e *model.CatalogEntry) error {
		e.RemovePromotion()
		return nil
	})
}

// Remove takes the entry off sale.  The row is kept so library entries that
// reference it stay valid.  Removing an entry twice is not an error.
func (s *CatalogService) Remove(ctx context.Context, id uint64) error {
	_, err := s.mutate(ctx, id, func(e *model.CatalogEntry) error {
		e.Available = false
		return nil
	})
	return err
}

func (s *CatalogService) mutate(ctx context.Context, id uint64, fn func(e *model.CatalogEntry) error) (*CatalogView, error) {
	var entry *model.CatalogEntry
	err := s.store.InTx(ctx, func(tx store.Tx) error {
		e, err := tx.LockCatalogEntry(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
		e.UpdatedAt = s.clock.Now()
		if err := tx.UpdateCatalogEntry(ctx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	s.log.Info().Uint64("catalog_entry_id", id).Str("price", entry.Price.StringFixed(2)).
		Str("promotion", entry.Promotion.Kind.String()).Bool("available", entry.Available).
		Msg("catalog entry updated")
	v := NewCatalogView(entry, s.clock.Now())
	return &v, nil
}
