package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/game-store/internal/apperr"
	"github.com/iliyamo/game-store/internal/model"
)

// queryer is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Row locking clauses appended to single-entry selects.
const (
	lockNone   = ""
	lockShared = " LOCK IN SHARE MODE"
	lockUpdate = " FOR UPDATE"
)

const catalogColumns = `id, ean, title, genre, description, price,
	promotion_kind, promotion_value, promotion_start_at, promotion_end_at,
	is_available, created_at, updated_at`

// CatalogRepo persists catalog entries in the catalog_entries table.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo returns a CatalogRepo bound to db.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogEntry(s rowScanner) (*model.CatalogEntry, error) {
	var (
		e           model.CatalogEntry
		description sql.NullString
		kind        string
		value       decimal.Decimal
		startAt     sql.NullTime
		endAt       sql.NullTime
	)
	if err := s.Scan(
		&e.ID, &e.Game.EAN, &e.Game.Title, &e.Game.Genre, &description, &e.Price,
		&kind, &value, &startAt, &endAt,
		&e.Available, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if description.Valid {
		d := description.String
		e.Game.Description = &d
	}
	k, _ := model.ParsePromotionKind(kind)
	if k != model.PromotionNone && startAt.Valid && endAt.Valid {
		e.Promotion = model.Promotion{Kind: k, Value: value, StartAt: startAt.Time.UTC(), EndAt: endAt.Time.UTC()}
	}
	return &e, nil
}

// promotionArgs flattens a promotion into its four columns.
func promotionArgs(p model.Promotion) (string, decimal.Decimal, sql.NullTime, sql.NullTime) {
	if p.Kind == model.PromotionNone {
		return p.Kind.String(), decimal.Zero, sql.NullTime{}, sql.NullTime{}
	}
	return p.Kind.String(), p.Value,
		sql.NullTime{Time: p.StartAt, Valid: true},
		sql.NullTime{Time: p.EndAt, Valid: true}
}

func getCatalogEntry(ctx context.Context, q queryer, id uint64, lock string) (*model.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_entries WHERE id = ?` + lock
	e, err := scanCatalogEntry(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFoundOr(err, "catalog entry not found")
	}
	return e, nil
}

// Get returns a catalog entry by id, available or not.
func (r *CatalogRepo) Get(ctx context.Context, id uint64) (*model.CatalogEntry, error) {
	return getCatalogEntry(ctx, r.db, id, lockNone)
}

// GetSharedTx reads an entry and holds a shared lock on its row until tx
// ends, so a concurrent price or availability change waits for the
// purchase that read it.
func (r *CatalogRepo) GetSharedTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.CatalogEntry, error) {
	return getCatalogEntry(ctx, tx, id, lockShared)
}

// GetForUpdateTx reads an entry with an exclusive row lock.
func (r *CatalogRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.CatalogEntry, error) {
	return getCatalogEntry(ctx, tx, id, lockUpdate)
}

// ListAvailable returns all entries still on sale ordered by title.
func (r *CatalogRepo) ListAvailable(ctx context.Context) ([]model.CatalogEntry, error) {
	query := `SELECT ` + catalogColumns + ` FROM catalog_entries WHERE is_available = 1 ORDER BY title, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CatalogEntry
	for rows.Next() {
		e, err := scanCatalogEntry(rows)
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

// CreateTx inserts e with its own timestamps and fills in the generated id.
// A duplicate EAN is a CONFLICT.
func (r *CatalogRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.CatalogEntry) error {
	const q = `INSERT INTO catalog_entries
		(ean, title, genre, description, price, promotion_kind, promotion_value,
		 promotion_start_at, promotion_end_at, is_available, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	kind, value, startAt, endAt := promotionArgs(e.Promotion)
	res, err := tx.ExecContext(ctx, q,
		e.Game.EAN, e.Game.Title, e.Game.Genre, e.Game.Description, e.Price,
		kind, value, startAt, endAt, e.Available, e.CreatedAt.UTC(), e.UpdatedAt.UTC(),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return apperr.Conflict("a catalog entry with this EAN already exists")
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

// UpdateTx writes the mutable fields of e: metadata other than the EAN,
// price, promotion, availability and UpdatedAt.
func (r *CatalogRepo) UpdateTx(ctx context.Context, tx *sql.Tx, e *model.CatalogEntry) error {
	const q = `UPDATE catalog_entries
		SET title = ?, genre = ?, description = ?, price = ?, promotion_kind = ?, promotion_value = ?,
		    promotion_start_at = ?, promotion_end_at = ?, is_available = ?, updated_at = ?
		WHERE id = ?`
	kind, value, startAt, endAt := promotionArgs(e.Promotion)
	res, err := tx.ExecContext(ctx, q,
		e.Game.Title, e.Game.Genre, e.Game.Description, e.Price,
		kind, value, startAt, endAt, e.Available, e.UpdatedAt.UTC(), e.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("catalog entry not found")
	}
	return nil
}
