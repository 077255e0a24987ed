package model

import "time"

// Cart is a player's set of intended purchases.  It never stores prices;
// checkout reads the current final price of every entry.  Each catalog
// entry appears at most once.
//
// Fields:
//  ID        – primary key (zero until persisted).
//  PlayerID  – owning player; one cart per player.
//  Items     – line items in insertion order.
//  CreatedAt – creation timestamp.
type Cart struct {
	ID        uint64     // carts.id
	PlayerID  uint64     // carts.player_id (unique)
	Items     []CartItem // cart_items rows
	CreatedAt time.Time  // carts.created_at
}

// CartItem is one intended purchase, unique per (CartID, CatalogEntryID).
type CartItem struct {
	CartID         uint64    // cart_items.cart_id
	CatalogEntryID uint64    // cart_items.catalog_entry_id
	AddedAt        time.Time // cart_items.added_at
}

// NewCart returns an empty cart for the player.
func NewCart(playerID uint64) *Cart {
	return &Cart{PlayerID: playerID, Items: []CartItem{}}
}

// Contains reports whether the entry is already in the cart.
func (c *Cart) Contains(entryID uint64) bool {
	for _, it := range c.Items {
		if it.CatalogEntryID == entryID {
			return true
		}
	}
	return false
}

// AddItem adds the entry unless it is already present.  It returns true when
// an item was added.
func (c *Cart) AddItem(entryID uint64, now time.Time) bool {
	if c.Contains(entryID) {
		return false
	}
	c.Items = append(c.Items, CartItem{CartID: c.ID, CatalogEntryID: entryID, AddedAt: now})
	return true
}

// RemoveItem drops the entry if present and reports whether it was.
func (c *Cart) RemoveItem(entryID uint64) bool {
	for i, it := range c.Items {
		if it.CatalogEntryID == entryID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the cart.
func (c *Cart) Clear() { c.Items = c.Items[:0] }

// IsEmpty reports whether the cart has no items.
func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

// EntryIDs lists the catalog entry ids in insertion order.
func (c *Cart) EntryIDs() []uint64 {
	ids := make([]uint64, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.CatalogEntryID)
	}
	return ids
}
