// Package memory is an in-process store.Store used by tests and by the
// server when STORE_DRIVER=memory.  Transactions are fully serialized:
// InTx holds the write lock for the duration of fn and works on a private
// copy of the state that replaces the shared one only on commit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/game-store/internal/apperr"
	"github.com/iliyamo/game-store/internal/model"
	"github.com/iliyamo/game-store/internal/store"
)

type ownKey struct {
	player uint64
	entry  uint64
}

type state struct {
	catalog map[uint64]model.CatalogEntry
	eans    map[string]uint64
	carts   map[uint64]*model.Cart // by player id
	library map[uint64]model.LibraryEntry
	owned   map[ownKey]uint64 // unique (player, entry) -> library id

	nextCatalogID uint64
	nextCartID    uint64
	nextLibraryID uint64
}

func newState() *state {
	return &state{
		catalog: make(map[uint64]model.CatalogEntry),
		eans:    make(map[string]uint64),
		carts:   make(map[uint64]*model.Cart),
		library: make(map[uint64]model.LibraryEntry),
		owned:   make(map[ownKey]uint64),
	}
}

func (s *state) clone() *state {
	c := &state{
		catalog:       make(map[uint64]model.CatalogEntry, len(s.catalog)),
		eans:          make(map[string]uint64, len(s.eans)),
		carts:         make(map[uint64]*model.Cart, len(s.carts)),
		library:       make(map[uint64]model.LibraryEntry, len(s.library)),
		owned:         make(map[ownKey]uint64, len(s.owned)),
		nextCatalogID: s.nextCatalogID,
		nextCartID:    s.nextCartID,
		nextLibraryID: s.nextLibraryID,
	}
	for k, v := range s.catalog {
		c.catalog[k] = v
	}
	for k, v := range s.eans {
		c.eans[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = copyCart(v)
	}
	for k, v := range s.library {
		c.library[k] = v
	}
	for k, v := range s.owned {
		c.owned[k] = v
	}
	return c
}

func copyCart(c *model.Cart) *model.Cart {
	cp := *c
	cp.Items = append([]model.CartItem{}, c.Items...)
	return &cp
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	st *state
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{st: newState()}
}

// InTx runs fn against a private copy of the state.  The copy replaces the
// shared state only when fn returns nil and ctx has not been cancelled.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &memTx{st: s.st.clone()}
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = t.st
	return nil
}

func (s *Store) GetCatalogEntry(_ context.Context, id uint64) (*model.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getCatalog(s.st, id)
}

func (s *Store) ListAvailableCatalog(_ context.Context) ([]model.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CatalogEntry, 0, len(s.st.catalog))
	for _, e := range s.st.catalog {
		if e.Available {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Game.Title != out[j].Game.Title {
			return out[i].Game.Title < out[j].Game.Title
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetCart(_ context.Context, playerID uint64) (*model.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.st.carts[playerID]
	if !ok {
		return nil, apperr.NotFound("cart not found")
	}
	return copyCart(c), nil
}

func (s *Store) OwnsEntry(_ context.Context, playerID, catalogEntryID uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.st.owned[ownKey{playerID, catalogEntryID}]
	return ok, nil
}

func (s *Store) ListLibrary(_ context.Context, playerID uint64, limit int) ([]model.LibraryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.LibraryEntry
	for _, e := range s.st.library {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PurchasedAt.Equal(out[j].PurchasedAt) {
			return out[i].PurchasedAt.After(out[j].PurchasedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetLibraryEntry(_ context.Context, playerID, libraryEntryID uint64) (*model.LibraryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.st.library[libraryEntryID]
	if !ok || e.PlayerID != playerID {
		return nil, apperr.NotFound("library entry not found")
	}
	return &e, nil
}

func getCatalog(st *state, id uint64) (*model.CatalogEntry, error) {
	e, ok := st.catalog[id]
	if !ok {
		return nil, apperr.NotFound("catalog entry not found")
	}
	return &e, nil
}

type memTx struct {
	st *state
}

func (t *memTx) GetCatalogEntry(_ context.Context, id uint64) (*model.CatalogEntry, error) {
	return getCatalog(t.st, id)
}

func (t *memTx) LockCatalogEntry(_ context.Context, id uint64) (*model.CatalogEntry, error) {
	return getCatalog(t.st, id)
}

func (t *memTx) CreateCatalogEntry(_ context.Context, e *model.CatalogEntry) error {
	if _, dup := t.st.eans[e.Game.EAN]; dup {
		return apperr.Conflict("a catalog entry with this EAN already exists")
	}
	t.st.nextCatalogID++
	e.ID = t.st.nextCatalogID
	t.st.catalog[e.ID] = *e
	t.st.eans[e.Game.EAN] = e.ID
	return nil
}

func (t *memTx) UpdateCatalogEntry(_ context.Context, e *model.CatalogEntry) error {
	if _, ok := t.st.catalog[e.ID]; !ok {
		return apperr.NotFound("catalog entry not found")
	}
	t.st.catalog[e.ID] = *e
	return nil
}

func (t *memTx) OwnsEntry(_ context.Context, playerID, catalogEntryID uint64) (bool, error) {
	_, ok := t.st.owned[ownKey{playerID, catalogEntryID}]
	return ok, nil
}

func (t *memTx) InsertLibraryEntry(_ context.Context, e *model.LibraryEntry) error {
	k := ownKey{e.PlayerID, e.CatalogEntryID}
	if _, dup := t.st.owned[k]; dup {
		return apperr.Conflict("game already owned")
	}
	t.st.nextLibraryID++
	e.ID = t.st.nextLibraryID
	t.st.library[e.ID] = *e
	t.st.owned[k] = e.ID
	return nil
}

func (t *memTx) LockCart(_ context.Context, playerID uint64) (*model.Cart, error) {
	if c, ok := t.st.carts[playerID]; ok {
		return copyCart(c), nil
	}
	return nil, nil
}

func (t *memTx) EnsureCart(ctx context.Context, playerID uint64, createdAt time.Time) (*model.Cart, error) {
	if c, _ := t.LockCart(ctx, playerID); c != nil {
		return c, nil
	}
	t.st.nextCartID++
	c := model.NewCart(playerID)
	c.ID = t.st.nextCartID
	c.CreatedAt = createdAt.UTC()
	t.st.carts[playerID] = c
	return copyCart(c), nil
}

func (t *memTx) cartByID(cartID uint64) (*model.Cart, error) {
	for _, c := range t.st.carts {
		if c.ID == cartID {
			return c, nil
		}
	}
	return nil, apperr.NotFound("cart not found")
}

func (t *memTx) AddCartItem(_ context.Context, cartID, catalogEntryID uint64, addedAt time.Time) error {
	c, err := t.cartByID(cartID)
	if err != nil {
		return err
	}
	c.AddItem(catalogEntryID, addedAt.UTC())
	return nil
}

func (t *memTx) RemoveCartItem(_ context.Context, cartID, catalogEntryID uint64) error {
	c, err := t.cartByID(cartID)
	if err != nil {
		return err
	}
	if !c.RemoveItem(catalogEntryID) {
		return apperr.NotFound("item is not in the cart")
	}
	return nil
}

func (t *memTx) ClearCart(_ context.Context, cartID uint64) error {
	c, err := t.cartByID(cartID)
	if err != nil {
		return err
	}
	c.Clear()
	return nil
}
