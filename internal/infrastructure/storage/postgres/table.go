package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"invoicer/internal/core/apperror"
	"invoicer/internal/domain"
)

// Table provides the CRUD statements shared by the repositories.
// T is the row struct; rows are read and written through its "db" tags.
// Queries run on the transaction in ctx when there is one.
type Table[T any] struct {
	name   string
	entity string
	cols   []string
	tx     *TxManager
}

// NewTable creates a table helper. entity names the row in NotFound errors.
func NewTable[T any](tx *TxManager, name, entity string, cols []string) *Table[T] {
	return &Table[T]{name: name, entity: entity, cols: cols, tx: tx}
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// Querier returns the querier bound to ctx.
func (t *Table[T]) Querier(ctx context.Context) Querier {
	return t.tx.GetQuerier(ctx)
}

// Select starts a SELECT of all mapped columns.
func (t *Table[T]) Select() squirrel.SelectBuilder {
	return Builder().Select(t.cols...).From(t.name)
}

// Insert writes row.
func (t *Table[T]) Insert(ctx context.Context, row *T) error {
	sql, args, err := Builder().
		Insert(t.name).
		SetMap(Pick(StructToMap(row), t.cols)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := t.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", t.name, err)
	}
	return nil
}

// Update writes row when its stored version still equals version, and
// bumps the stored version. where scopes the row (id, owner).
func (t *Table[T]) Update(ctx context.Context, row *T, version int, where squirrel.Eq, immutable ...string) error {
	data := Pick(StructToMap(row), t.cols)
	delete(data, "id")
	delete(data, "version")
	delete(data, "created_at")
	for _, c := range immutable {
		delete(data, c)
	}

	sql, args, err := Builder().
		Update(t.name).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(where).
		Where(squirrel.Eq{"version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := t.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return t.missingOrStale(ctx, where)
	}
	return nil
}

// missingOrStale tells a deleted row from a version mismatch.
func (t *Table[T]) missingOrStale(ctx context.Context, where squirrel.Eq) error {
	ok, err := t.Exists(ctx, where)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.NewNotFound(t.entity, where["id"])
	}
	return apperror.NewConcurrentModification(t.entity, where["id"])
}

// Get reads one row.
func (t *Table[T]) Get(ctx context.Context, where squirrel.Sqlizer, key any) (*T, error) {
	sql, args, err := t.Select().Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	row := new(T)
	if err := pgxscan.Get(ctx, t.Querier(ctx), row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(t.entity, key)
		}
		return nil, fmt.Errorf("get %s: %w", t.name, err)
	}
	return row, nil
}

// Exists reports whether a row matches where.
func (t *Table[T]) Exists(ctx context.Context, where squirrel.Sqlizer) (bool, error) {
	sql, args, err := Builder().
		Select("1").Prefix("SELECT EXISTS (").
		From(t.name).Where(where).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}
	var ok bool
	if err := t.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("exists %s: %w", t.name, err)
	}
	return ok, nil
}

// Delete removes the rows matching where. Nothing removed is NotFound.
func (t *Table[T]) Delete(ctx context.Context, where squirrel.Eq) error {
	sql, args, err := Builder().Delete(t.name).Where(where).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := t.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(t.entity, where["id"])
	}
	return nil
}

// List runs q with the filter's pagination and counts all matching rows.
// q must select the table's columns; searchCols are matched with ILIKE.
func (t *Table[T]) List(ctx context.Context, q squirrel.SelectBuilder, filter domain.ListFilter, orderBy string, searchCols ...string) (domain.ListResult[*T], error) {
	result := domain.ListResult[*T]{Limit: filter.Limit, Offset: filter.Offset}

	if filter.Search != "" && len(searchCols) > 0 {
		pattern := "%" + EscapeLike(filter.Search) + "%"
		or := make(squirrel.Or, 0, len(searchCols))
		for _, c := range searchCols {
			or = append(or, squirrel.ILike{c: pattern})
		}
		q = q.Where(or)
	}

	countSQL, countArgs, err := Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	q = q.OrderBy(orderBy)
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	// Count and page come from one snapshot.
	err = t.tx.ReadOnly(ctx, func(ctx context.Context) error {
		querier := t.Querier(ctx)
		if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
			return fmt.Errorf("count %s: %w", t.name, err)
		}
		result.Items = make([]*T, 0)
		if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
			return fmt.Errorf("list %s: %w", t.name, err)
		}
		return nil
	})
	return result, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards so user input matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
