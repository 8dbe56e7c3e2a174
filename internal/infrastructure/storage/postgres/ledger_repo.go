package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/id"
	"loomledger/internal/domain/ledger"
)

var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo is the PostgreSQL implementation of ledger.Repository.
type LedgerRepo struct {
	txManager    *TxManager
	purchaseCols []string
	returnCols   []string
}

func NewLedgerRepo(txManager *TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager:    txManager,
		purchaseCols: ExtractDBColumns[ledger.PurchaseEntry](),
		returnCols:   ExtractDBColumns[ledger.DyeingReturnEntry](),
	}
}

const (
	purchasesTable = "doc_purchases"
	returnsTable   = "doc_dyeing_returns"
)

// --- Purchases ---

func (r *LedgerRepo) CreatePurchase(ctx context.Context, p *ledger.PurchaseEntry) error {
	q := Builder().Insert(purchasesTable).SetMap(StructToMap(p))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return translateExecError(err, "insert", "purchase", p.ID.String())
}

// UpdatePurchase rewrites the row with optimistic locking on version.
func (r *LedgerRepo) UpdatePurchase(ctx context.Context, p *ledger.PurchaseEntry) error {
	data := StructToMap(p)
	delete(data, "id")
	delete(data, "version")
	delete(data, "updated_at")

	q := Builder().
		Update(purchasesTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": p.ID}).
		Where(squirrel.Eq{"version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return translateExecError(err, "update", "purchase", p.ID.String())
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict("purchase was modified concurrently").
			WithDetail("id", p.ID.String())
	}
	return nil
}

func (r *LedgerRepo) DeletePurchase(ctx context.Context, purchaseID id.ID) error {
	return r.deleteRow(ctx, purchasesTable, "purchase", purchaseID)
}

func (r *LedgerRepo) GetPurchase(ctx context.Context, purchaseID id.ID) (*ledger.PurchaseEntry, error) {
	q := Builder().Select(r.purchaseCols...).From(purchasesTable).
		Where(squirrel.Eq{"id": purchaseID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p ledger.PurchaseEntry
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase", purchaseID.String())
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	return &p, nil
}

func (r *LedgerRepo) ListPurchasesByBatchRef(ctx context.Context, batchRef string) ([]ledger.PurchaseEntry, error) {
	return r.listPurchases(ctx, squirrel.Eq{"batch_ref": batchRef})
}

func (r *LedgerRepo) ListPurchasesByLotNo(ctx context.Context, lotNo string) ([]ledger.PurchaseEntry, error) {
	return r.listPurchases(ctx, squirrel.Eq{"lot_no": lotNo})
}

func (r *LedgerRepo) ListPurchasesByHolder(ctx context.Context, holder string) ([]ledger.PurchaseEntry, error) {
	return r.listPurchases(ctx, squirrel.Or{
		squirrel.Eq{"supplier": holder},
		squirrel.Eq{"delivered_to": holder},
	})
}

func (r *LedgerRepo) ListPurchasesDeliveredTo(ctx context.Context, deliveredTo string) ([]ledger.PurchaseEntry, error) {
	return r.listPurchases(ctx, squirrel.Eq{"delivered_to": deliveredTo})
}

func (r *LedgerRepo) ListPurchasesBetween(ctx context.Context, from, to time.Time) ([]ledger.PurchaseEntry, error) {
	return r.listPurchases(ctx, squirrel.And{
		squirrel.GtOrEq{"entry_date": from},
		squirrel.LtOrEq{"entry_date": to},
	})
}

func (r *LedgerRepo) listPurchases(ctx context.Context, where squirrel.Sqlizer) ([]ledger.PurchaseEntry, error) {
	q := Builder().Select(r.purchaseCols...).From(purchasesTable).
		Where(where).
		OrderBy("entry_date ASC", "created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []ledger.PurchaseEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return items, nil
}

// --- Dyeing returns ---

func (r *LedgerRepo) CreateReturn(ctx context.Context, d *ledger.DyeingReturnEntry) error {
	q := Builder().Insert(returnsTable).SetMap(StructToMap(d))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return translateExecError(err, "insert", "dyeing return", d.ID.String())
}

func (r *LedgerRepo) UpdateReturn(ctx context.Context, d *ledger.DyeingReturnEntry) error {
	data := StructToMap(d)
	delete(data, "id")
	delete(data, "version")
	delete(data, "updated_at")

	q := Builder().
		Update(returnsTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": d.ID}).
		Where(squirrel.Eq{"version": d.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return translateExecError(err, "update", "dyeing return", d.ID.String())
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict("dyeing return was modified concurrently").
			WithDetail("id", d.ID.String())
	}
	return nil
}

func (r *LedgerRepo) DeleteReturn(ctx context.Context, returnID id.ID) error {
	return r.deleteRow(ctx, returnsTable, "dyeing return", returnID)
}

func (r *LedgerRepo) GetReturn(ctx context.Context, returnID id.ID) (*ledger.DyeingReturnEntry, error) {
	q := Builder().Select(r.returnCols...).From(returnsTable).
		Where(squirrel.Eq{"id": returnID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var d ledger.DyeingReturnEntry
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &d, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("dyeing return", returnID.String())
		}
		return nil, fmt.Errorf("get dyeing return: %w", err)
	}
	return &d, nil
}

func (r *LedgerRepo) ListReturnsByLot(ctx context.Context, lotID id.ID) ([]ledger.DyeingReturnEntry, error) {
	return r.listReturns(ctx, squirrel.Eq{"lot_id": lotID})
}

func (r *LedgerRepo) ListReturnsByLotAndUnit(ctx context.Context, lotID, dyeingUnitID id.ID) ([]ledger.DyeingReturnEntry, error) {
	return r.listReturns(ctx, squirrel.Eq{"lot_id": lotID, "dyeing_unit_id": dyeingUnitID})
}

func (r *LedgerRepo) ListReturnsByLots(ctx context.Context, lotIDs []id.ID) ([]ledger.DyeingReturnEntry, error) {
	if len(lotIDs) == 0 {
		return nil, nil
	}
	return r.listReturns(ctx, squirrel.Eq{"lot_id": lotIDs})
}

func (r *LedgerRepo) listReturns(ctx context.Context, where squirrel.Sqlizer) ([]ledger.DyeingReturnEntry, error) {
	q := Builder().Select(r.returnCols...).From(returnsTable).
		Where(where).
		OrderBy("returned_date ASC", "created_at ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []ledger.DyeingReturnEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list dyeing returns: %w", err)
	}
	return items, nil
}

func (r *LedgerRepo) deleteRow(ctx context.Context, table, entity string, rowID id.ID) error {
	q := Builder().Delete(table).Where(squirrel.Eq{"id": rowID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return translateExecError(err, "delete", entity, rowID.String())
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(entity, rowID.String())
	}
	return nil
}
