// Package queue carries purchase events over RabbitMQ: a publisher used by
// the purchase service and a consumer that appends them to an audit log.
package queue

import (
	"time"

	"github.com/iliyamo/game-store/internal/model"
)

// PurchaseCompletedQueue is the durable queue purchase events go to.
const PurchaseCompletedQueue = "purchase.completed"

// PurchaseCompletedEvent is published once per library entry created by a
// committed purchase.  It carries enough for downstream consumers to log or
// notify without reading the database.
type PurchaseCompletedEvent struct {
	LibraryEntryID uint64 `json:"library_entry_id"`
	PlayerID       uint64 `json:"player_id"`
	CatalogEntryID uint64 `json:"catalog_entry_id"`
	EAN            string `json:"ean"`
	Title          string `json:"title"`
	PurchasePrice  string `json:"purchase_price"`
	PurchasedAt    string `json:"purchased_at"`
	Source         string `json:"source"` // "single" or "cart"
}

// NewPurchaseCompletedEvent builds the event for a stored library entry.
func NewPurchaseCompletedEvent(e model.LibraryEntry, source string) PurchaseCompletedEvent {
	return PurchaseCompletedEvent{
		LibraryEntryID: e.ID,
		PlayerID:       e.PlayerID,
		CatalogEntryID: e.CatalogEntryID,
		EAN:            e.Game.EAN,
		Title:          e.Game.Title,
		PurchasePrice:  e.PurchasePrice.StringFixed(2),
		PurchasedAt:    e.PurchasedAt.UTC().Format(time.RFC3339),
		Source:         source,
	}
}
