package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateExecutesAllStatements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS catalog_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS carts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cart_items").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS library_entries").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS catalog_entries").WillReturnError(boom)

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "statement 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueKeysArePartOfSchema(t *testing.T) {
	joined := ""
	for _, s := range schema {
		joined += s
	}
	assert.Contains(t, joined, "UNIQUE KEY uq_library_player_entry (player_id, catalog_entry_id)")
	assert.Contains(t, joined, "UNIQUE KEY uq_cart_item (cart_id, catalog_entry_id)")
}

func TestDSN(t *testing.T) {
	dsn := Options{User: "store", Password: "pw", Host: "db", Port: "3306", Name: "games"}.DSN()
	assert.Contains(t, dsn, "store:pw@tcp(db:3306)/games")
	assert.Contains(t, dsn, "parseTime=true")
}
