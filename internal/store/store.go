// Package store declares the persistence contract consumed by the services.
// Two implementations exist: the MySQL repositories in internal/repository
// and the in-memory store in internal/repository/memory.
//
// Implementations report business failures with apperr codes:
// missing rows are NOT_FOUND and unique-key violations on library entries
// or catalog EANs are CONFLICT.  Any other failure is returned as is and
// the services wrap it as INFRASTRUCTURE.
package store

import (
	"context"
	"time"

	"github.com/iliyamo/game-store/internal/model"
)

// Reader answers queries outside of a transaction.
type Reader interface {
	GetCatalogEntry(ctx context.Context, id uint64) (*model.CatalogEntry, error)
	ListAvailableCatalog(ctx context.Context) ([]model.CatalogEntry, error)
	// GetCart returns NOT_FOUND when the player has no cart yet.
	GetCart(ctx context.Context, playerID uint64) (*model.Cart, error)
	OwnsEntry(ctx context.Context, playerID, catalogEntryID uint64) (bool, error)
	// ListLibrary returns the player's entries newest first; limit <= 0 means all.
	ListLibrary(ctx context.Context, playerID uint64, limit int) ([]model.LibraryEntry, error)
	GetLibraryEntry(ctx context.Context, playerID, libraryEntryID uint64) (*model.LibraryEntry, error)
}

// Tx is the unit of work.  Writes made through a Tx become visible to
// other readers only when the surrounding InTx call returns nil.
type Tx interface {
	// GetCatalogEntry reads an entry and holds a shared lock on it until
	// the transaction ends.
	GetCatalogEntry(ctx context.Context, id uint64) (*model.CatalogEntry, error)
	// LockCatalogEntry reads an entry for update.
	LockCatalogEntry(ctx context.Context, id uint64) (*model.CatalogEntry, error)
	// CreateCatalogEntry and UpdateCatalogEntry store the timestamps set
	// on e by the caller.
	CreateCatalogEntry(ctx context.Context, e *model.CatalogEntry) error
	UpdateCatalogEntry(ctx context.Context, e *model.CatalogEntry) error

	OwnsEntry(ctx context.Context, playerID, catalogEntryID uint64) (bool, error)
	// InsertLibraryEntry fails with CONFLICT when the (player, entry) pair
	// already exists.
	InsertLibraryEntry(ctx context.Context, e *model.LibraryEntry) error

	// LockCart loads the player's cart and serializes other mutations of
	// it until the transaction ends.  A player without a cart gets (nil, nil).
	LockCart(ctx context.Context, playerID uint64) (*model.Cart, error)
	// EnsureCart is LockCart that first creates an empty cart stamped with
	// createdAt when the player has none.
	EnsureCart(ctx context.Context, playerID uint64, createdAt time.Time) (*model.Cart, error)
	// AddCartItem is a no-op when the item already exists.
	AddCartItem(ctx context.Context, cartID, catalogEntryID uint64, addedAt time.Time) error
	RemoveCartItem(ctx context.Context, cartID, catalogEntryID uint64) error
	ClearCart(ctx context.Context, cartID uint64) error
}

// Store combines reads with transactional writes.
type Store interface {
	Reader
	// InTx runs fn in one transaction.  The transaction commits when fn
	// returns nil and ctx is still live; otherwise it rolls back.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}
