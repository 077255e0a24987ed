package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/game-store/internal/apperr"
	"github.com/iliyamo/game-store/internal/model"
)

// CartRepo persists carts and their items.  A player owns at most one cart
// (carts.player_id is unique); items are unique per (cart_id,
// catalog_entry_id).
type CartRepo struct {
	db *sql.DB
}

// NewCartRepo returns a CartRepo bound to db.
func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{db: db} }

func loadCart(ctx context.Context, q queryer, playerID uint64, lock string) (*model.Cart, error) {
	cart := model.NewCart(playerID)
	err := q.QueryRowContext(ctx,
		`SELECT id, created_at FROM carts WHERE player_id = ?`+lock, playerID,
	).Scan(&cart.ID, &cart.CreatedAt)
	if err != nil {
		return nil, err
	}

	const items = `SELECT cart_id, catalog_entry_id, added_at FROM cart_items WHERE cart_id = ? ORDER BY added_at, catalog_entry_id`
	rows, err := q.QueryContext(ctx, items, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.CartItem
		if err := rows.Scan(&it.CartID, &it.CatalogEntryID, &it.AddedAt); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cart, nil
}

// GetByPlayer returns the player's cart or NOT_FOUND.
func (r *CartRepo) GetByPlayer(ctx context.Context, playerID uint64) (*model.Cart, error) {
	cart, err := loadCart(ctx, r.db, playerID, lockNone)
	if err != nil {
		return nil, notFoundOr(err, "cart not found")
	}
	return cart, nil
}

// LockTx loads the player's cart with its row locked for update.  A missing
// cart yields (nil, nil).
func (r *CartRepo) LockTx(ctx context.Context, tx *sql.Tx, playerID uint64) (*model.Cart, error) {
	cart, err := loadCart(ctx, tx, playerID, lockUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// EnsureTx is LockTx that inserts an empty cart first when the player has
// none.  Concurrent creators race on uq_cart_player and the loser re-reads
// the winner's row.
func (r *CartRepo) EnsureTx(ctx context.Context, tx *sql.Tx, playerID uint64, createdAt time.Time) (*model.Cart, error) {
	cart, err := r.LockTx(ctx, tx, playerID)
	if err != nil || cart != nil {
		return cart, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT IGNORE INTO carts (player_id, created_at) VALUES (?, ?)`, playerID, createdAt.UTC(),
	); err != nil {
		return nil, err
	}
	cart, err = loadCart(ctx, tx, playerID, lockUpdate)
	if err != nil {
		return nil, notFoundOr(err, "cart not found")
	}
	return cart, nil
}

// AddItemTx inserts an item; an existing (cart, entry) pair is left as is.
func (r *CartRepo) AddItemTx(ctx context.Context, tx *sql.Tx, cartID, catalogEntryID uint64, addedAt time.Time) error {
	const q = `INSERT IGNORE INTO cart_items (cart_id, catalog_entry_id, added_at) VALUES (?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, cartID, catalogEntryID, addedAt.UTC())
	return err
}

// RemoveItemTx deletes an item.  Removing an absent item is NOT_FOUND.
func (r *CartRepo) RemoveItemTx(ctx context.Context, tx *sql.Tx, cartID, catalogEntryID uint64) error {
	const q = `DELETE FROM cart_items WHERE cart_id = ? AND catalog_entry_id = ?`
	res, err := tx.ExecContext(ctx, q, cartID, catalogEntryID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("item is not in the cart")
	}
	return nil
}

// ClearTx removes every item from the cart.
func (r *CartRepo) ClearTx(ctx context.Context, tx *sql.Tx, cartID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}
