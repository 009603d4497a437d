package store

import (
	"math"
	"strings"

	"CrudAPI/internal/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Dialect holds what differs between the supported SQL engines.
type Dialect struct {
	Name        string
	Placeholder sq.PlaceholderFormat
	Quote       func(ident string) string
	// ILike is used for the start/end/cnt operators when set.
	ILike bool
	// NeedsLimitForOffset: the engine rejects OFFSET without LIMIT.
	NeedsLimitForOffset bool
	ColumnTypes         map[string]string
	IDType              string
}

var Postgres = Dialect{
	Name:        "postgres",
	Placeholder: sq.Dollar,
	Quote: func(ident string) string {
		return pgx.Identifier{ident}.Sanitize()
	},
	ILike: true,
	ColumnTypes: map[string]string{
		model.TypeString: "TEXT",
		model.TypeInt:    "BIGINT",
		model.TypeFloat:  "DOUBLE PRECISION",
		model.TypeBool:   "BOOLEAN",
		model.TypeTime:   "TIMESTAMPTZ",
		model.TypeJSON:   "JSONB",
	},
	IDType: "UUID",
}

var SQLite = Dialect{
	Name:        "sqlite",
	Placeholder: sq.Question,
	Quote: func(ident string) string {
		return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
	},
	NeedsLimitForOffset: true,
	ColumnTypes: map[string]string{
		model.TypeString: "TEXT",
		model.TypeInt:    "INTEGER",
		model.TypeFloat:  "REAL",
		model.TypeBool:   "BOOLEAN",
		model.TypeTime:   "TIMESTAMP",
		model.TypeJSON:   "TEXT",
	},
	IDType: "TEXT",
}

// unboundedLimit stands in for "no limit" where OFFSET needs a LIMIT.
const unboundedLimit = uint64(math.MaxInt64)

func (d Dialect) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.Placeholder)
}

func (d Dialect) quoteAll(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = d.Quote(c)
	}
	return out
}
