package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/game-store/internal/apperr"
	"github.com/iliyamo/game-store/internal/model"
)

// LibraryRepo persists library entries.  The uq_library_player_entry key on
// (player_id, catalog_entry_id) is what finally guarantees a player never
// owns the same listing twice; InsertTx maps a violation to CONFLICT.
type LibraryRepo struct {
	db *sql.DB
}

// NewLibraryRepo returns a LibraryRepo bound to db.
func NewLibraryRepo(db *sql.DB) *LibraryRepo { return &LibraryRepo{db: db} }

const libraryColumns = `id, player_id, catalog_entry_id, ean, title, genre, description, purchase_price, purchased_at`

func scanLibraryEntry(s rowScanner) (*model.LibraryEntry, error) {
	var (
		e           model.LibraryEntry
		description sql.NullString
	)
	if err := s.Scan(
		&e.ID, &e.PlayerID, &e.CatalogEntryID,
		&e.Game.EAN, &e.Game.Title, &e.Game.Genre, &description,
		&e.PurchasePrice, &e.PurchasedAt,
	); err != nil {
		return nil, err
	}
	if description.Valid {
		d := description.String
		e.Game.Description = &d
	}
	return &e, nil
}

func owns(ctx context.Context, q queryer, playerID, catalogEntryID uint64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM library_entries WHERE player_id = ? AND catalog_entry_id = ?)`
	var exists bool
	if err := q.QueryRowContext(ctx, query, playerID, catalogEntryID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Owns reports whether the player already has the catalog entry.
func (r *LibraryRepo) Owns(ctx context.Context, playerID, catalogEntryID uint64) (bool, error) {
	return owns(ctx, r.db, playerID, catalogEntryID)
}

// OwnsTx is Owns inside tx.
func (r *LibraryRepo) OwnsTx(ctx context.Context, tx *sql.Tx, playerID, catalogEntryID uint64) (bool, error) {
	return owns(ctx, tx, playerID, catalogEntryID)
}

// InsertTx stores e and fills in its id.
func (r *LibraryRepo) InsertTx(ctx context.Context, tx *sql.Tx, e *model.LibraryEntry) error {
	const q = `INSERT INTO library_entries
		(player_id, catalog_entry_id, ean, title, genre, description, purchase_price, purchased_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		e.PlayerID, e.CatalogEntryID, e.Game.EAN, e.Game.Title, e.Game.Genre, e.Game.Description,
		e.PurchasePrice, e.PurchasedAt.UTC(),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return apperr.Conflict("game already owned")
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListByPlayer returns the player's library newest first.  A non-positive
// limit returns everything.
func (r *LibraryRepo) ListByPlayer(ctx context.Context, playerID uint64, limit int) ([]model.LibraryEntry, error) {
	query := `SELECT ` + libraryColumns + ` FROM library_entries WHERE player_id = ? ORDER BY purchased_at DESC, id DESC`
	args := []any{playerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LibraryEntry
	for rows.Next() {
		e, err := scanLibraryEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one of the player's library entries.  Entries owned by other
// players are reported as NOT_FOUND.
func (r *LibraryRepo) Get(ctx context.Context, playerID, libraryEntryID uint64) (*model.LibraryEntry, error) {
	query := `SELECT ` + libraryColumns + ` FROM library_entries WHERE id = ? AND player_id = ?`
	e, err := scanLibraryEntry(r.db.QueryRowContext(ctx, query, libraryEntryID, playerID))
	if err != nil {
		return nil, notFoundOr(err, "library entry not found")
	}
	return e, nil
}
