package service

import (
	"context"
	"time"

	"github.com/iliyamo/game-store/internal/apperr"
	"github.com/iliyamo/game-store/internal/model"
	"github.com/iliyamo/game-store/internal/store"
)

// DefaultRecentLimit is the number of entries Recent returns when n <= 0.
const DefaultRecentLimit = 5

// LibraryView is the API shape of an owned game.
type LibraryView struct {
	ID             uint64    `json:"id"`
	CatalogEntryID uint64    `json:"catalog_entry_id"`
	EAN            string    `json:"ean"`
	Title          string    `json:"title"`
	Genre          string    `json:"genre"`
	Description    *string   `json:"description,omitempty"`
	PurchasePrice  string    `json:"purchase_price"`
	PurchasedAt    time.Time `json:"purchased_at"`
}

// NewLibraryView converts a stored entry.
func NewLibraryView(e model.LibraryEntry) LibraryView {
	return LibraryView{
		ID:             e.ID,
		CatalogEntryID: e.CatalogEntryID,
		EAN:            e.Game.EAN,
		Title:          e.Game.Title,
		Genre:          e.Game.Genre,
		Description:    e.Game.Description,
		PurchasePrice:  e.PurchasePrice.StringFixed(2),
		PurchasedAt:    e.PurchasedAt,
	}
}

// LibraryService answers ownership queries.  Libraries are read on demand
// from the store; nothing is cached on the player.
type LibraryService struct {
	store store.Reader
}

// NewLibraryService wires the service.
func NewLibraryService(st store.Reader) *LibraryService {
	return &LibraryService{store: st}
}

// List returns the player's library newest first.
func (s *LibraryService) List(ctx context.Context, playerID uint64) ([]LibraryView, error) {
	return s.list(ctx, playerID, 0)
}

// Recent returns the n most recent purchases.
func (s *LibraryService) Recent(ctx context.Context, playerID uint64, n int) ([]LibraryView, error) {
	if n <= 0 {
		n = DefaultRecentLimit
	}
	return s.list(ctx, playerID, n)
}

func (s *LibraryService) list(ctx context.Context, playerID uint64, limit int) ([]LibraryView, error) {
	entries, err := s.store.ListLibrary(ctx, playerID, limit)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	out := make([]LibraryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewLibraryView(e))
	}
	return out, nil
}

// Get returns one of the player's entries.
func (s *LibraryService) Get(ctx context.Context, playerID, libraryEntryID uint64) (*LibraryView, error) {
	e, err := s.store.GetLibraryEntry(ctx, playerID, libraryEntryID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	v := NewLibraryView(*e)
	return &v, nil
}

// Owns reports whether the player owns the catalog entry.
func (s *LibraryService) Owns(ctx context.Context, playerID, catalogEntryID uint64) (bool, error) {
	owned, err := s.store.OwnsEntry(ctx, playerID, catalogEntryID)
	if err != nil {
		return false, apperr.Wrap(err)
	}
	return owned, nil
}

// CanPurchase reports whether the entry is on sale and not yet owned.  A
// missing entry yields false without an error.
func (s *LibraryService) CanPurchase(ctx context.Context, playerID, catalogEntryID uint64) (bool, error) {
	entry, err := s.store.GetCatalogEntry(ctx, catalogEntryID)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return false, nil
		}
		return false, apperr.Wrap(err)
	}
	if !entry.IsAvailableForPurchase() {
		return false, nil
	}
	owned, err := s.Owns(ctx, playerID, catalogEntryID)
	if err != nil {
		return false, err
	}
	return !owned, nil
}
