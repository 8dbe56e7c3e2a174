package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/id"
	"loomledger/internal/core/types"
	"loomledger/internal/domain/registry"
)

var _ registry.Repository = (*RegistryRepo)(nil)

// RegistryRepo is the PostgreSQL implementation of registry.Repository.
type RegistryRepo struct {
	txManager *TxManager
	batchCols []string
	lotCols   []string
}

func NewRegistryRepo(txManager *TxManager) *RegistryRepo {
	return &RegistryRepo{
		txManager: txManager,
		batchCols: ExtractDBColumns[registry.Batch](),
		lotCols:   ExtractDBColumns[registry.Lot](),
	}
}

const (
	batchesTable = "reg_batches"
	lotsTable    = "reg_lots"
)

func (r *RegistryRepo) CreateBatch(ctx context.Context, b *registry.Batch) error {
	q := Builder().Insert(batchesTable).SetMap(StructToMap(b))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return translateExecError(err, "insert", "batch", b.BatchRef)
}

func (r *RegistryRepo) CreateLot(ctx context.Context, l *registry.Lot) error {
	q := Builder().Insert(lotsTable).SetMap(StructToMap(l))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return translateExecError(err, "insert", "lot", l.LotNo)
}

func (r *RegistryRepo) GetBatchByRef(ctx context.Context, batchRef string) (*registry.Batch, error) {
	q := Builder().Select(r.batchCols...).From(batchesTable).
		Where(squirrel.Eq{"batch_ref": batchRef}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b registry.Batch
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchRef)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}

func (r *RegistryRepo) GetLotByNo(ctx context.Context, lotNo string) (*registry.Lot, error) {
	return r.getLot(ctx, squirrel.Eq{"lot_no": lotNo}, lotNo)
}

func (r *RegistryRepo) GetLotByID(ctx context.Context, lotID id.ID) (*registry.Lot, error) {
	return r.getLot(ctx, squirrel.Eq{"id": lotID}, lotID.String())
}

func (r *RegistryRepo) getLot(ctx context.Context, where squirrel.Eq, key string) (*registry.Lot, error) {
	q := Builder().Select(r.lotCols...).From(lotsTable).Where(where).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var l registry.Lot
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &l, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("lot", key)
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return &l, nil
}

func (r *RegistryRepo) ListBatches(ctx context.Context) ([]registry.Batch, error) {
	return r.listBatches(ctx, nil)
}

func (r *RegistryRepo) ListBatchesByFabricator(ctx context.Context, fabricatorID id.ID) ([]registry.Batch, error) {
	return r.listBatches(ctx, squirrel.Eq{"fabricator_id": fabricatorID})
}

func (r *RegistryRepo) listBatches(ctx context.Context, where squirrel.Eq) ([]registry.Batch, error) {
	q := Builder().Select(r.batchCols...).From(batchesTable).OrderBy("batch_ref ASC")
	if where != nil {
		q = q.Where(where)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []registry.Batch
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return items, nil
}

func (r *RegistryRepo) ListLotsByBatch(ctx context.Context, batchID id.ID) ([]registry.Lot, error) {
	q := Builder().Select(r.lotCols...).From(lotsTable).
		Where(squirrel.Eq{"batch_id": batchID}).
		OrderBy("lot_index ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []registry.Lot
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	return items, nil
}

func (r *RegistryRepo) UpdateLotWeight(ctx context.Context, lotID id.ID, weightKg types.Kg) error {
	return r.updateLot(ctx, lotID, map[string]any{"weight_kg": weightKg})
}

func (r *RegistryRepo) SetLotStatus(ctx context.Context, lotID id.ID, status registry.Status) error {
	return r.updateLot(ctx, lotID, map[string]any{"status": status})
}

func (r *RegistryRepo) updateLot(ctx context.Context, lotID id.ID, set map[string]any) error {
	q := Builder().
		Update(lotsTable).
		SetMap(set).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": lotID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("lot", lotID.String())
	}
	return nil
}

func (r *RegistryRepo) SetBatchStatus(ctx context.Context, batchID id.ID, status registry.Status) error {
	q := Builder().
		Update(batchesTable).
		Set("status", status).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": batchID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("batch", batchID.String())
	}
	return nil
}
