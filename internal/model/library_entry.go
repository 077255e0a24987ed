package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/game-store/internal/apperr"
)

// LibraryEntry is the permanent proof that a player owns a game.  The
// purchase price is a snapshot taken at purchase time and never follows
// later catalog changes.  At most one entry exists per (PlayerID,
// CatalogEntryID); the store enforces this with a unique key.
//
// Fields:
//  ID             – primary key.
//  PlayerID       – owner.
//  CatalogEntryID – purchased listing.
//  Game           – metadata copy at purchase time.
//  PurchasePrice  – final price snapshot.
//  PurchasedAt    – purchase timestamp.
type LibraryEntry struct {
	ID             uint64          // library_entries.id
	PlayerID       uint64          // library_entries.player_id
	CatalogEntryID uint64          // library_entries.catalog_entry_id
	Game           GameInfo        // library_entries.ean/title/genre/description
	PurchasePrice  decimal.Decimal // library_entries.purchase_price
	PurchasedAt    time.Time       // library_entries.purchased_at
}

// NewLibraryEntry snapshots the entry's final price at now.  The snapshot is
// rounded to cents so the value returned to the caller matches the stored
// DECIMAL(12,2) column.
func NewLibraryEntry(playerID uint64, entry *CatalogEntry, now time.Time) (*LibraryEntry, error) {
	if playerID == 0 {
		return nil, apperr.Validation("player id is required")
	}
	price := entry.FinalPrice(now).Round(2)
	return &LibraryEntry{
		PlayerID:       playerID,
		CatalogEntryID: entry.ID,
		Game:           entry.Game,
		PurchasePrice:  price,
		PurchasedAt:    now.UTC(),
	}, nil
}
