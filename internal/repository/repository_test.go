package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-store/internal/apperr"
	"github.com/iliyamo/game-store/internal/model"
	"github.com/iliyamo/game-store/internal/store"
)

var (
	catalogCols = []string{
		"id", "ean", "title", "genre", "description", "price",
		"promotion_kind", "promotion_value", "promotion_start_at", "promotion_end_at",
		"is_available", "created_at", "updated_at",
	}
	libraryCols = []string{
		"id", "player_id", "catalog_entry_id", "ean", "title", "genre", "description",
		"purchase_price", "purchased_at",
	}
	ts = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestCatalogGetScansPromotion(t *testing.T) {
	db, mock := newMock(t)
	start, end := ts, ts.AddDate(0, 1, 0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM catalog_entries WHERE id = ?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(catalogCols).AddRow(
			7, "5901234123457", "Hollow Depths", "RPG", "caves", "19.99",
			"PERCENTAGE_DISCOUNT", "25", start, end, true, ts, ts,
		))

	e, err := NewCatalogRepo(db).Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), e.ID)
	assert.Equal(t, "Hollow Depths", e.Game.Title)
	require.NotNil(t, e.Game.Description)
	assert.Equal(t, "caves", *e.Game.Description)
	assert.True(t, e.Price.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, model.PromotionPercentageDiscount, e.Promotion.Kind)
	assert.True(t, e.Promotion.Value.Equal(decimal.NewFromInt(25)))
	assert.True(t, e.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogGetWithoutPromotion(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM catalog_entries WHERE id = ?")).
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows(catalogCols).AddRow(
			3, "ean", "Title", "Puzzle", nil, "5.00", "NONE", "0", nil, nil, false, ts, ts,
		))

	e, err := NewCatalogRepo(db).Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, e.Game.Description)
	assert.Equal(t, model.PromotionNone, e.Promotion.Kind)
	assert.False(t, e.IsAvailableForPurchase())
}

func TestCatalogGetNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM catalog_entries WHERE id = ?")).
		WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows(catalogCols))

	_, err := NewCatalogRepo(db).Get(context.Background(), 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCatalogCreateDuplicateEANIsConflict(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO catalog_entries")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	s := NewSQLStore(db)
	err := s.InTx(context.Background(), func(tx store.Tx) error {
		e, err := model.NewCatalogEntry(model.GameInfo{EAN: "x", Title: "t", Genre: "g"}, decimal.NewFromInt(10))
		require.NoError(t, err)
		return tx.CreateCatalogEntry(context.Background(), e)
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogCreateStoresCallerTimestamps(t *testing.T) {
	db, mock := newMock(t)
	created := ts.Add(-time.Hour)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO catalog_entries")).
		WithArgs("x", "t", "g", nil, sqlmock.AnyArg(), "NONE", sqlmock.AnyArg(), nil, nil, true, created, ts).
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectCommit()

	e, err := model.NewCatalogEntry(model.GameInfo{EAN: "x", Title: "t", Genre: "g"}, decimal.NewFromInt(10))
	require.NoError(t, err)
	e.CreatedAt, e.UpdatedAt = created, ts
	require.NoError(t, NewSQLStore(db).InTx(context.Background(), func(tx store.Tx) error {
		return tx.CreateCatalogEntry(context.Background(), e)
	}))
	assert.Equal(t, uint64(3), e.ID)
	assert.Equal(t, created, e.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogUpdateStoresCallerTimestamp(t *testing.T) {
	db, mock := newMock(t)
	desc := "new blurb"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE catalog_entries")).
		WithArgs("Renamed", "RPG", &desc, sqlmock.AnyArg(), "NONE", sqlmock.AnyArg(), nil, nil, true, ts, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	e := &model.CatalogEntry{
		ID:        5,
		Game:      model.GameInfo{EAN: "x", Title: "Renamed", Genre: "RPG", Description: &desc},
		Price:     decimal.NewFromInt(10),
		Available: true,
		UpdatedAt: ts,
	}
	require.NoError(t, NewSQLStore(db).InTx(context.Background(), func(tx store.Tx) error {
		return tx.UpdateCatalogEntry(context.Background(), e)
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogUpdateMissingRowIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE catalog_entries")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewSQLStore(db).InTx(context.Background(), func(tx store.Tx) error {
		return tx.UpdateCatalogEntry(context.Background(), &model.CatalogEntry{ID: 5})
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryInsertDuplicateIsConflict(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO library_entries")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1-2' for key 'uq_library_player_entry'"})
	mock.ExpectRollback()

	err := NewSQLStore(db).InTx(context.Background(), func(tx store.Tx) error {
		return tx.InsertLibraryEntry(context.Background(), &model.LibraryEntry{PlayerID: 1, CatalogEntryID: 2, PurchasedAt: ts})
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryInsertOtherErrorPassesThrough(t *testing.T) {
	db, mock := newMock(t)
	boom := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO library_entries")).WillReturnError(boom)
	mock.ExpectRollback()

	err := NewSQLStore(db).InTx(context.Background(), func(tx store.Tx) error {
		return tx.InsertLibraryEntry(context.Background(), &model.LibraryEntry{PlayerID: 1, CatalogEntryID: 2, PurchasedAt: ts})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, apperr.ErrConflict)
}

func TestLibraryListAppliesLimit(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY purchased_at DESC, id DESC LIMIT ?")).
		WithArgs(uint64(4), 2).
		WillReturnRows(sqlmock.NewRows(libraryCols).
			AddRow(9, 4, 20, "e2", "Second", "RPG", nil, "7.50", ts.Add(time.Hour)).
			AddRow(8, 4, 10, "e1", "First", "RPG", "d", "15.00", ts))

	out, err := NewLibraryRepo(db).ListByPlayer(context.Background(), 4, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, uint64(9), out[0].ID)
	assert.True(t, out[0].PurchasePrice.Equal(decimal.RequireFromString("7.5")))
	assert.Equal(t, "d", *out[1].Game.Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLibraryGetOtherPlayerIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM library_entries WHERE id = ? AND player_id = ?")).
		WithArgs(uint64(8), uint64(5)).
		WillReturnRows(sqlmock.NewRows(libraryCols))

	_, err := NewLibraryRepo(db).Get(context.Background(), 5, 8)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestOwns(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(")).
		WithArgs(uint64(1), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := NewSQLStore(db).OwnsEntry(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEnsureCartCreatesMissingCart(t *testing.T) {
	db, mock := newMock(t)
	selectCart := regexp.QuoteMeta("SELECT id, created_at FROM carts WHERE player_id = ? FOR UPDATE")

	mock.ExpectBegin()
	mock.ExpectQuery(selectCart).WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))
	mock.ExpectExec(regexp.QuoteMeta("INSERT IGNORE INTO carts")).
		WithArgs(uint64(4), ts).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(selectCart).WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, ts))
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items WHERE cart_id = ?")).WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"cart_id", "catalog_entry_id", "added_at"}))
	mock.ExpectCommit()

	var cart *model.Cart
	err := NewSQLStore(db).InTx(context.Background(), func(tx store.Tx) error {
		var err error
		cart, err = tx.EnsureCart(context.Background(), 4, ts.In(time.FixedZone("CET", 3600)))
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, uint64(11), cart.ID)
	assert.True(t, cart.IsEmpty())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockCartMissingIsNil(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM carts WHERE player_id = ? FOR UPDATE")).WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))
	mock.ExpectCommit()

	err := NewSQLStore(db).InTx(context.Background(), func(tx store.Tx) error {
		cart, err := tx.LockCart(context.Background(), 4)
		assert.Nil(t, cart)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCartLoadsItemsInOrder(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM carts WHERE player_id = ?")).WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(11, ts))
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items WHERE cart_id = ?")).WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"cart_id", "catalog_entry_id", "added_at"}).
			AddRow(11, 3, ts).
			AddRow(11, 1, ts.Add(time.Minute)))

	cart, err := NewSQLStore(db).GetCart(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 1}, cart.EntryIDs())
}

func TestRemoveCartItemAbsentIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE cart_id = ? AND catalog_entry_id = ?")).
		WithArgs(uint64(11), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewSQLStore(db).InTx(context.Background(), func(tx store.Tx) error {
		return tx.RemoveCartItem(context.Background(), 11, 3)
	})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInTxRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := NewSQLStore(db).InTx(context.Background(), func(store.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateKey(t *testing.T) {
	assert.True(t, isDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1213}))
	assert.False(t, isDuplicateKey(errors.New("Duplicate entry")))
}
