package model

// Role names carried in the JWT "role" claim.
const (
	RolePlayer = "PLAYER"
	RoleAdmin  = "ADMIN"
)

// Player is the identity anchor referenced by carts and library entries.
// The store never loads a player's library as a navigation collection;
// ownership is always answered by a fresh query against library_entries.
//
// Fields:
//  ID   – subject of the authenticated access token.
//  Role – PLAYER or ADMIN.
type Player struct {
	ID   uint64 // jwt sub
	Role string // jwt role
}
