package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/id"
	"loomledger/internal/domain/catalogs/party"
)

// Compile-time check.
var _ party.Repository = (*PartyRepo)(nil)

// PartyRepo is the PostgreSQL implementation of party.Repository.
type PartyRepo struct {
	txManager *TxManager
	cols      []string
}

// NewPartyRepo creates a party repository.
func NewPartyRepo(txManager *TxManager) *PartyRepo {
	return &PartyRepo{
		txManager: txManager,
		cols:      ExtractDBColumns[party.Party](),
	}
}

const partiesTable = "cat_parties"

func (r *PartyRepo) Create(ctx context.Context, p *party.Party) error {
	q := Builder().Insert(partiesTable).SetMap(StructToMap(p))

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	_, err = r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	return translateExecError(err, "insert", "party", p.Name)
}

// Update modifies a party with optimistic locking on version.
func (r *PartyRepo) Update(ctx context.Context, p *party.Party) error {
	data := StructToMap(p)
	delete(data, "id")
	delete(data, "version")
	delete(data, "updated_at")

	q := Builder().
		Update(partiesTable).
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
		return translateExecError(err, "update", "party", p.Name)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConflict("party was modified concurrently").
			WithDetail("id", p.ID.String())
	}
	return nil
}

func (r *PartyRepo) Delete(ctx context.Context, partyID id.ID) error {
	q := Builder().Delete(partiesTable).Where(squirrel.Eq{"id": partyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return translateExecError(err, "delete", "party", partyID.String())
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("party", partyID.String())
	}
	return nil
}

func (r *PartyRepo) GetByID(ctx context.Context, partyID id.ID) (*party.Party, error) {
	return r.getOne(ctx, squirrel.Eq{"id": partyID}, partyID.String())
}

func (r *PartyRepo) GetByName(ctx context.Context, name string) (*party.Party, error) {
	return r.getOne(ctx, squirrel.Eq{"name": name}, name)
}

func (r *PartyRepo) getOne(ctx context.Context, where squirrel.Eq, key string) (*party.Party, error) {
	q := Builder().Select(r.cols...).From(partiesTable).Where(where).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p party.Party
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("party", key)
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	return &p, nil
}

func (r *PartyRepo) List(ctx context.Context) ([]party.Party, error) {
	return r.list(ctx, nil)
}

func (r *PartyRepo) ListByRole(ctx context.Context, role party.Role) ([]party.Party, error) {
	return r.list(ctx, squirrel.Eq{"role": role})
}

func (r *PartyRepo) list(ctx context.Context, where squirrel.Eq) ([]party.Party, error) {
	q := Builder().Select(r.cols...).From(partiesTable).OrderBy("name ASC")
	if where != nil {
		q = q.Where(where)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []party.Party
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	return items, nil
}

// CountReferences counts ledger rows and batches that point at the party,
// by name for the soft references and by ID for the hard ones.
func (r *PartyRepo) CountReferences(ctx context.Context, p *party.Party) (int, error) {
	sql := `
		SELECT
			(SELECT COUNT(*) FROM doc_purchases WHERE supplier = $1 OR delivered_to = $1)
			+ (SELECT COUNT(*) FROM reg_batches WHERE fabricator_id = $2)
			+ (SELECT COUNT(*) FROM doc_dyeing_returns WHERE dyeing_unit_id = $2)
	`

	var count int
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, p.Name, p.ID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count party references: %w", err)
	}
	return count, nil
}
