package postgres

import (
	"context"
	"fmt"

	"loomledger/pkg/logger"
)

// Migrate applies the schema. Every statement is idempotent so the server can
// run it unconditionally at startup.
func Migrate(ctx context.Context, pool *Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	logger.Info(ctx, "database schema up to date", "statements", len(schema))
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS cat_parties (
		id          UUID PRIMARY KEY,
		version     INT NOT NULL DEFAULT 1,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL,
		name        TEXT NOT NULL,
		role        TEXT NOT NULL,
		color_code  TEXT NOT NULL DEFAULT '',
		rate_per_kg NUMERIC(12,4),
		CONSTRAINT cat_parties_name_uq UNIQUE (name),
		CONSTRAINT cat_parties_role_ck CHECK (role IN ('yarn_supplier', 'knitting_unit', 'dyeing_unit'))
	)`,

	`CREATE TABLE IF NOT EXISTS cat_yarn_types (
		id         UUID PRIMARY KEY,
		version    INT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		name       TEXT NOT NULL,
		CONSTRAINT cat_yarn_types_name_uq UNIQUE (name)
	)`,

	`CREATE TABLE IF NOT EXISTS reg_batches (
		id            UUID PRIMARY KEY,
		version       INT NOT NULL DEFAULT 1,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		batch_ref     TEXT NOT NULL,
		fabricator_id UUID NOT NULL REFERENCES cat_parties (id),
		product_name  TEXT NOT NULL DEFAULT '',
		expected_lots INT NOT NULL DEFAULT 0,
		composition   TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT 'Ordered',
		CONSTRAINT reg_batches_ref_uq UNIQUE (batch_ref)
	)`,

	`CREATE TABLE IF NOT EXISTS reg_lots (
		id         UUID PRIMARY KEY,
		version    INT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		batch_id   UUID NOT NULL REFERENCES reg_batches (id) ON DELETE CASCADE,
		lot_no     TEXT NOT NULL,
		lot_index  INT NOT NULL,
		weight_kg  NUMERIC(12,3) NOT NULL DEFAULT 0,
		status     TEXT NOT NULL DEFAULT 'Ordered',
		CONSTRAINT reg_lots_no_uq UNIQUE (lot_no)
	)`,
	`CREATE INDEX IF NOT EXISTS reg_lots_batch_idx ON reg_lots (batch_id)`,

	// Purchase rows reference batches and lots by their human-entered refs,
	// not by foreign keys. A ref that matches nothing in the registry stays
	// in the ledger and is surfaced as a dangling-reference diagnostic.
	`CREATE TABLE IF NOT EXISTS doc_purchases (
		id           UUID PRIMARY KEY,
		version      INT NOT NULL DEFAULT 1,
		created_at   TIMESTAMPTZ NOT NULL,
		updated_at   TIMESTAMPTZ NOT NULL,
		entry_date   DATE NOT NULL,
		batch_ref    TEXT NOT NULL DEFAULT '',
		lot_no       TEXT NOT NULL DEFAULT '',
		supplier     TEXT NOT NULL DEFAULT '',
		delivered_to TEXT NOT NULL,
		yarn_type    TEXT NOT NULL DEFAULT '',
		qty_kg       NUMERIC(12,3) NOT NULL DEFAULT 0,
		qty_rolls    INT NOT NULL DEFAULT 0,
		unit_price   NUMERIC(12,4) NOT NULL DEFAULT 0,
		notes        TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS doc_purchases_batch_idx ON doc_purchases (batch_ref)`,
	`CREATE INDEX IF NOT EXISTS doc_purchases_lot_idx ON doc_purchases (lot_no)`,
	`CREATE INDEX IF NOT EXISTS doc_purchases_supplier_idx ON doc_purchases (supplier)`,
	`CREATE INDEX IF NOT EXISTS doc_purchases_delivered_idx ON doc_purchases (delivered_to)`,
	`CREATE INDEX IF NOT EXISTS doc_purchases_date_idx ON doc_purchases (entry_date)`,

	`CREATE TABLE IF NOT EXISTS doc_dyeing_returns (
		id             UUID PRIMARY KEY,
		version        INT NOT NULL DEFAULT 1,
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL,
		lot_id         UUID NOT NULL REFERENCES reg_lots (id) ON DELETE CASCADE,
		dyeing_unit_id UUID NOT NULL REFERENCES cat_parties (id),
		returned_date  DATE NOT NULL,
		returned_kg    NUMERIC(12,3) NOT NULL DEFAULT 0,
		returned_rolls INT NOT NULL DEFAULT 0,
		notes          TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS doc_dyeing_returns_lot_idx ON doc_dyeing_returns (lot_id)`,
	`CREATE INDEX IF NOT EXISTS doc_dyeing_returns_unit_idx ON doc_dyeing_returns (dyeing_unit_id)`,

	`CREATE TABLE IF NOT EXISTS sys_audit (
		id                 UUID PRIMARY KEY,
		entity_type        TEXT NOT NULL,
		entity_id          UUID NOT NULL,
		action             TEXT NOT NULL,
		changes            JSONB,
		changes_compressed BYTEA,
		compression_algo   TEXT NOT NULL DEFAULT 'none',
		created_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sys_audit_entity_idx ON sys_audit (entity_type, entity_id, created_at DESC)`,
}
