package sqlxrepos

import (
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
)

const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
)

// trapNoRowsErr maps psql "no rows" to the entity's not-found error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapConstraintErr maps psql constraint violations to the domain error kinds:
// unique violations become the entity's conflict error, foreign key violations
// a ForeignKeyError naming the constraint.
func trapConstraintErr(err, conflict error, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		switch pqErr.Code {
		case pqUniqueViolation:
			return conflict
		case pqForeignKeyViolation:
			return core.NewForeignKeyError(fmt.Sprintf("referenced record does not exist (%s)", pqErr.Constraint))
		}
	}
	return errors.Wrap(err, msg)
}

// buildWhere renders the equality filters into a WHERE fragment with `?`
// placeholders; slice values render as IN. Keys are repo-controlled column
// names coming from typed filters, never raw request input. Keys are sorted so
// generated SQL is stable.
func buildWhere(alias string, where map[string]interface{}) (string, []interface{}) {
	if len(where) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(where))
	for key := range where {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	conds := make([]string, 0, len(keys))
	vals := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		val := where[key]
		if reflect.ValueOf(val).Kind() == reflect.Slice {
			conds = append(conds, alias+"."+key+" IN (?)")
		} else {
			conds = append(conds, alias+"."+key+" = ?")
		}
		vals = append(vals, val)
	}
	return " WHERE " + strings.Join(conds, " AND "), vals
}

// bindQuery expands IN clauses and rebinds `?` placeholders for postgres.
func bindQuery(db *sqlx.DB, query string, vals []interface{}) (string, []interface{}, error) {
	query, args, err := sqlx.In(query, vals...)
	if err != nil {
		return "", nil, errors.Wrap(err, "expanding query args")
	}
	return db.Rebind(query), args, nil
}

// pageClause renders LIMIT/OFFSET; a zero limit means no pagination.
func pageClause(args core.ListArgs) string {
	if args.Limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", args.Limit, args.Offset)
}
