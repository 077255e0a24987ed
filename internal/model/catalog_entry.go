package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/game-store/internal/apperr"
)

// GameInfo is the immutable catalog metadata of a game.  Catalog and
// library entries each hold their own copy; there is no shared base type.
//
// Fields:
//  EAN         – unique SKU/EAN code.
//  Title       – display title.
//  Genre       – genre label.
//  Description – optional free text.
type GameInfo struct {
	EAN         string  // catalog_entries.ean
	Title       string  // catalog_entries.title
	Genre       string  // catalog_entries.genre
	Description *string // catalog_entries.description (nullable)
}

// Validate checks the required fields.
func (g GameInfo) Validate() error {
	var msgs []string
	if strings.TrimSpace(g.EAN) == "" {
		msgs = append(msgs, "ean is required")
	}
	if strings.TrimSpace(g.Title) == "" {
		msgs = append(msgs, "title is required")
	}
	if strings.TrimSpace(g.Genre) == "" {
		msgs = append(msgs, "genre is required")
	}
	if len(msgs) > 0 {
		return apperr.Validation(msgs...)
	}
	return nil
}

// CatalogEntry is a sellable game listing.  Its final price is derived from
// the base price and the current promotion at a given instant.  Entries are
// soft-deleted by clearing Available so historical library entries keep a
// valid reference.
//
// Fields:
//  ID        – primary key.
//  Game      – metadata copy.
//  Price     – base price, never negative.
//  Promotion – current promotion (None by default).
//  Available – false once an admin removed the entry from sale.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type CatalogEntry struct {
	ID        uint64          // catalog_entries.id
	Game      GameInfo        // catalog_entries.ean/title/genre/description
	Price     decimal.Decimal // catalog_entries.price
	Promotion Promotion       // catalog_entries.promotion_*
	Available bool            // catalog_entries.is_available
	CreatedAt time.Time       // catalog_entries.created_at
	UpdatedAt time.Time       // catalog_entries.updated_at
}

// NewCatalogEntry validates the game metadata and price and returns an
// available entry without a promotion.
func NewCatalogEntry(game GameInfo, price decimal.Decimal) (*CatalogEntry, error) {
	if err := game.Validate(); err != nil {
		return nil, err
	}
	if err := checkMoney("price", price); err != nil {
		return nil, err
	}
	game.EAN = strings.TrimSpace(game.EAN)
	return &CatalogEntry{
		Game:      game,
		Price:     price,
		Promotion: NoPromotion(),
		Available: true,
	}, nil
}

// SetPrice replaces the base price.  A rejected price leaves e unchanged.
func (e *CatalogEntry) SetPrice(price decimal.Decimal) error {
	if err := checkMoney("price", price); err != nil {
		return err
	}
	e.Price = price
	return nil
}

// UpdateInfo replaces the editable metadata.  The EAN is kept; library
// entries hold their own copy and are not affected.
func (e *CatalogEntry) UpdateInfo(title, genre string, description *string) error {
	g := GameInfo{EAN: e.Game.EAN, Title: title, Genre: genre, Description: description}
	if err := g.Validate(); err != nil {
		return err
	}
	e.Game = g
	return nil
}

// ApplyPromotion replaces the current promotion; no history is kept.
func (e *CatalogEntry) ApplyPromotion(p Promotion) { e.Promotion = p }

// RemovePromotion resets the promotion to None.
func (e *CatalogEntry) RemovePromotion() { e.ApplyPromotion(NoPromotion()) }

// FinalPrice is the discounted price at now, floored at zero.
func (e *CatalogEntry) FinalPrice(now time.Time) decimal.Decimal {
	p := e.Promotion.ApplyDiscount(e.Price, now)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// IsAvailableForPurchase reports whether the entry is still on sale.
func (e *CatalogEntry) IsAvailableForPurchase() bool { return e.Available }
