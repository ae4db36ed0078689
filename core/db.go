package core

import (
	"context"
	"database/sql"
)

type (
	DBExecutor interface {
		Exec(query string, args ...interface{}) (sql.Result, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		Begin() (*sql.Tx, error)
		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

// Pagination is the page-numbered shape search endpoints accept.
// PageNo is 1-based; 0 counts as the first page. PageNo without Limit is
// meaningless and is dropped.
type Pagination struct {
	Limit  int `query:"limit"`
	PageNo int `query:"pageNo"`
}

// ListArgs is the normalized shape of a search query handed to repositories:
// pagination plus equality filters keyed by column. Filter keys always come
// from typed per-entity filters, never from raw request input.
type ListArgs struct {
	Limit  int
	Offset int
	Where  map[string]interface{}
}

// ListArgs folds Limit/PageNo into Limit/Offset and copies the provided
// filters, dropping zero values. Malformed or unknown params never reach this
// point; they are skipped at the binding.
func (p Pagination) ListArgs(where map[string]interface{}) ListArgs {
	args := ListArgs{Limit: p.Limit, Where: make(map[string]interface{}, len(where))}
	if p.Limit > 0 && p.PageNo > 1 {
		args.Offset = p.Limit * (p.PageNo - 1)
	}
	for key, val := range where {
		switch v := val.(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
		case int:
			if v == 0 {
				continue
			}
		}
		args.Where[key] = val
	}
	return args
}

// Pagination maps offset back to a 1-based page number; the round trip
// through ListArgs is lossless.
func (a ListArgs) Pagination() Pagination {
	p := Pagination{Limit: a.Limit}
	if a.Limit > 0 {
		p.PageNo = a.Offset/a.Limit + 1
	}
	return p
}
