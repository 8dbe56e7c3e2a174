package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/id"
	"loomledger/internal/domain/catalogs/yarn"
)

var _ yarn.Repository = (*YarnRepo)(nil)

// YarnRepo is the PostgreSQL implementation of yarn.Repository.
type YarnRepo struct {
	txManager *TxManager
	cols      []string
}

func NewYarnRepo(txManager *TxManager) *YarnRepo {
	return &YarnRepo{
		txManager: txManager,
		cols:      ExtractDBColumns[yarn.Type](),
	}
}

const yarnTypesTable = "cat_yarn_types"

func (r *YarnRepo) Create(ctx context.Context, t *yarn.Type) error {
	q := Builder().Insert(yarnTypesTable).SetMap(StructToMap(t))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return translateExecError(err, "insert", "yarn type", t.Name)
}

func (r *YarnRepo) Delete(ctx context.Context, typeID id.ID) error {
	q := Builder().Delete(yarnTypesTable).Where(squirrel.Eq{"id": typeID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return translateExecError(err, "delete", "yarn type", typeID.String())
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("yarn type", typeID.String())
	}
	return nil
}

func (r *YarnRepo) GetByName(ctx context.Context, name string) (*yarn.Type, error) {
	q := Builder().Select(r.cols...).From(yarnTypesTable).
		Where(squirrel.Eq{"name": name}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t yarn.Type
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("yarn type", name)
		}
		return nil, fmt.Errorf("get yarn type: %w", err)
	}
	return &t, nil
}

func (r *YarnRepo) List(ctx context.Context) ([]yarn.Type, error) {
	q := Builder().Select(r.cols...).From(yarnTypesTable).OrderBy("name ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []yarn.Type
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list yarn types: %w", err)
	}
	return items, nil
}
