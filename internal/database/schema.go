package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the tables the store relies on.  The unique keys are part of
// the contract: uq_library_player_entry is the authoritative backstop for
// ownership uniqueness and uq_cart_item makes cart adds idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS catalog_entries (
		id                 BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		ean                VARCHAR(32)    NOT NULL,
		title              VARCHAR(255)   NOT NULL,
		genre              VARCHAR(64)    NOT NULL,
		description        TEXT           NULL,
		price              DECIMAL(12,2)  NOT NULL,
		promotion_kind     VARCHAR(32)    NOT NULL DEFAULT 'NONE',
		promotion_value    DECIMAL(12,2)  NOT NULL DEFAULT 0,
		promotion_start_at DATETIME(6)    NULL,
		promotion_end_at   DATETIME(6)    NULL,
		is_available       TINYINT(1)     NOT NULL DEFAULT 1,
		created_at         DATETIME(6)    NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at         DATETIME(6)    NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_catalog_ean (ean),
		CONSTRAINT ck_catalog_price CHECK (price >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS carts (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		player_id  BIGINT UNSIGNED NOT NULL,
		created_at DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_cart_player (player_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		cart_id          BIGINT UNSIGNED NOT NULL,
		catalog_entry_id BIGINT UNSIGNED NOT NULL,
		added_at         DATETIME(6)     NOT NULL,
		UNIQUE KEY uq_cart_item (cart_id, catalog_entry_id),
		CONSTRAINT fk_cart_items_cart FOREIGN KEY (cart_id) REFERENCES carts (id) ON DELETE CASCADE,
		CONSTRAINT fk_cart_items_entry FOREIGN KEY (catalog_entry_id) REFERENCES catalog_entries (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS library_entries (
		id               BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		player_id        BIGINT UNSIGNED NOT NULL,
		catalog_entry_id BIGINT UNSIGNED NOT NULL,
		ean              VARCHAR(32)     NOT NULL,
		title            VARCHAR(255)    NOT NULL,
		genre            VARCHAR(64)     NOT NULL,
		description      TEXT            NULL,
		purchase_price   DECIMAL(12,2)   NOT NULL,
		purchased_at     DATETIME(6)     NOT NULL,
		UNIQUE KEY uq_library_player_entry (player_id, catalog_entry_id),
		KEY ix_library_player_purchased (player_id, purchased_at),
		CONSTRAINT fk_library_entry FOREIGN KEY (catalog_entry_id) REFERENCES catalog_entries (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table.  Statements are idempotent so it is
// safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
