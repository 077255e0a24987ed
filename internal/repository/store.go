package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/game-store/internal/model"
	"github.com/iliyamo/game-store/internal/store"
)

// SQLStore implements store.Store on top of the MySQL repositories.
type SQLStore struct {
	db      *sql.DB
	Catalog *CatalogRepo
	Carts   *CartRepo
	Library *LibraryRepo
}

// NewSQLStore wires the repositories to db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		db:      db,
		Catalog: NewCatalogRepo(db),
		Carts:   NewCartRepo(db),
		Library: NewLibraryRepo(db),
	}
}

var _ store.Store = (*SQLStore)(nil)

// InTx runs fn inside a READ COMMITTED transaction bound to ctx.  Uniqueness
// is guaranteed by the unique keys and the cart row lock rather than by
// the isolation level, and READ COMMITTED avoids gap locks on
// library_entries.  A ctx cancelled before commit rolls everything back.
func (s *SQLStore) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&sqlTx{s: s, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *SQLStore) GetCatalogEntry(ctx context.Context, id uint64) (*model.CatalogEntry, error) {
	return s.Catalog.Get(ctx, id)
}

func (s *SQLStore) ListAvailableCatalog(ctx context.Context) ([]model.CatalogEntry, error) {
	return s.Catalog.ListAvailable(ctx)
}

func (s *SQLStore) GetCart(ctx context.Context, playerID uint64) (*model.Cart, error) {
	return s.Carts.GetByPlayer(ctx, playerID)
}

func (s *SQLStore) OwnsEntry(ctx context.Context, playerID, catalogEntryID uint64) (bool, error) {
	return s.Library.Owns(ctx, playerID, catalogEntryID)
}

func (s *SQLStore) ListLibrary(ctx context.Context, playerID uint64, limit int) ([]model.LibraryEntry, error) {
	return s.Library.ListByPlayer(ctx, playerID, limit)
}

func (s *SQLStore) GetLibraryEntry(ctx context.Context, playerID, libraryEntryID uint64) (*model.LibraryEntry, error) {
	return s.Library.Get(ctx, playerID, libraryEntryID)
}

// sqlTx adapts the Tx-suffixed repository methods to store.Tx.
type sqlTx struct {
	s  *SQLStore
	tx *sql.Tx
}

func (t *sqlTx) GetCatalogEntry(ctx context.Context, id uint64) (*model.CatalogEntry, error) {
	return t.s.Catalog.GetSharedTx(ctx, t.tx, id)
}

func (t *sqlTx) LockCatalogEntry(ctx context.Context, id uint64) (*model.CatalogEntry, error) {
	return t.s.Catalog.GetForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) CreateCatalogEntry(ctx context.Context, e *model.CatalogEntry) error {
	return t.s.Catalog.CreateTx(ctx, t.tx, e)
}

func (t *sqlTx) UpdateCatalogEntry(ctx context.Context, e *model.CatalogEntry) error {
	return t.s.Catalog.UpdateTx(ctx, t.tx, e)
}

func (t *sqlTx) OwnsEntry(ctx context.Context, playerID, catalogEntryID uint64) (bool, error) {
	return t.s.Library.OwnsTx(ctx, t.tx, playerID, catalogEntryID)
}

func (t *sqlTx) InsertLibraryEntry(ctx context.Context, e *model.LibraryEntry) error {
	return t.s.Library.InsertTx(ctx, t.tx, e)
}

func (t *sqlTx) LockCart(ctx context.Context, playerID uint64) (*model.Cart, error) {
	return t.s.Carts.LockTx(ctx, t.tx, playerID)
}

func (t *sqlTx) EnsureCart(ctx context.Context, playerID uint64, createdAt time.Time) (*model.Cart, error) {
	return t.s.Carts.EnsureTx(ctx, t.tx, playerID, createdAt)
}

func (t *sqlTx) AddCartItem(ctx context.Context, cartID, catalogEntryID uint64, addedAt time.Time) error {
	return t.s.Carts.AddItemTx(ctx, t.tx, cartID, catalogEntryID, addedAt)
}

func (t *sqlTx) RemoveCartItem(ctx context.Context, cartID, catalogEntryID uint64) error {
	return t.s.Carts.RemoveItemTx(ctx, t.tx, cartID, catalogEntryID)
}

func (t *sqlTx) ClearCart(ctx context.Context, cartID uint64) error {
	return t.s.Carts.ClearTx(ctx, t.tx, cartID)
}
