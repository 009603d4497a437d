package store

import (
	"testing"

	"CrudAPI/internal/model"
	"CrudAPI/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func booksModel(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.ParseModel("books", []byte(`
fields:
  title:
    rules: required
  author: string
  pages: int
  price: float
  published: bool
  tags: json
`))
	require.NoError(t, err)
	return m
}

func TestBuildWhereSuffixOperators(t *testing.T) {
	s := NewSQLStore(nil, Postgres)
	m := booksModel(t)

	cond, err := s.buildWhere(m, map[string]any{"pages__gte": "100", "title": "Dune"})
	require.NoError(t, err)
	sql, args, err := cond.ToSql()
	require.NoError(t, err)

	assert.Equal(t, `("pages" >= ? AND "title" = ?)`, sql)
	assert.Equal(t, []any{int64(100), "Dune"}, args)
}

func TestBuildWhereOperatorMap(t *testing.T) {
	s := NewSQLStore(nil, Postgres)
	m := booksModel(t)

	cond, err := s.buildWhere(m, map[string]any{"price": map[string]any{"$lt": "20.5", "$gt": 3}})
	require.NoError(t, err)
	sql, args, err := cond.ToSql()
	require.NoError(t, err)

	assert.Equal(t, `(("price" > ? AND "price" < ?))`, sql)
	assert.Equal(t, []any{float64(3), 20.5}, args)
}

func TestBuildWhereNullAndIn(t *testing.T) {
	s := NewSQLStore(nil, Postgres)
	m := booksModel(t)

	cond, err := s.buildWhere(m, map[string]any{"author": nil, "pages__in": []any{"1", "2"}})
	require.NoError(t, err)
	sql, args, err := cond.ToSql()
	require.NoError(t, err)

	assert.Equal(t, `("author" IS NULL AND "pages" IN (?,?))`, sql)
	assert.Equal(t, []any{int64(1), int64(2)}, args)
}

func TestBuildWhereCompositeAndLike(t *testing.T) {
	m := booksModel(t)

	pg, err := NewSQLStore(nil, Postgres).buildWhere(m, map[string]any{"title_or_author__cnt": "dune"})
	require.NoError(t, err)
	sql, args, err := pg.ToSql()
	require.NoError(t, err)
	assert.Equal(t, `(("title" ILIKE ? OR "author" ILIKE ?))`, sql)
	assert.Equal(t, []any{"%dune%", "%dune%"}, args)

	lite, err := NewSQLStore(nil, SQLite).buildWhere(m, map[string]any{"title__start": "Du"})
	require.NoError(t, err)
	sql, args, err = lite.ToSql()
	require.NoError(t, err)
	assert.Equal(t, `("title" LIKE ?)`, sql)
	assert.Equal(t, []any{"Du%"}, args)
}

func TestBuildWhereLogicalGroup(t *testing.T) {
	s := NewSQLStore(nil, Postgres)
	m := booksModel(t)

	cond, err := s.buildWhere(m, map[string]any{
		"$or": []any{
			map[string]any{"title": "Dune"},
			map[string]any{"published": "true"},
		},
	})
	require.NoError(t, err)
	sql, args, err := cond.ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, " OR ")
	assert.Equal(t, []any{"Dune", true}, args)
}

func TestBuildWhereErrors(t *testing.T) {
	s := NewSQLStore(nil, Postgres)
	m := booksModel(t)

	for name, filter := range map[string]map[string]any{
		"unknown operator": {"pages__between": "1"},
		"in needs a list":  {"pages__in": "1"},
		"bad group":        {"$or": "x"},
		"like on number":   {"title__cnt": 3},
		"dollar operator":  {"pages": map[string]any{"$regex": "x"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.buildWhere(m, filter)
			assert.Error(t, err)
		})
	}
}

func TestBuildWhereEmpty(t *testing.T) {
	cond, err := NewSQLStore(nil, Postgres).buildWhere(booksModel(t), nil)
	require.NoError(t, err)
	assert.Nil(t, cond)
}

func TestProjectColumns(t *testing.T) {
	m := booksModel(t)
	one := query.Int{Value: 1, Present: true, Valid: true}
	zero := query.Int{Value: 0, Present: true, Valid: true}
	nan := query.Int{Present: true}

	assert.Equal(t, m.Keys(), projectColumns(m, nil))
	assert.Equal(t, []string{"id", "title", "pages"},
		projectColumns(m, query.Projection{"pages": one, "title": one, "junk": nan}))
	assert.Equal(t, []string{"title"},
		projectColumns(m, query.Projection{"title": one, "id": zero}))
	assert.Equal(t, []string{"title", "author", "pages", "price", "published", "id", "created_at", "updated_at", "version"},
		projectColumns(m, query.Projection{"tags": zero}))
}

func TestCreateTableSQL(t *testing.T) {
	stmt, err := CreateTableSQL(Postgres, booksModel(t))
	require.NoError(t, err)
	assert.Contains(t, stmt, `CREATE TABLE IF NOT EXISTS "books"`)
	assert.Contains(t, stmt, `"id" UUID PRIMARY KEY`)
	assert.Contains(t, stmt, `"tags" JSONB`)
	assert.Contains(t, stmt, `"version" BIGINT NOT NULL DEFAULT 0`)

	stmt, err = CreateTableSQL(SQLite, booksModel(t))
	require.NoError(t, err)
	assert.Contains(t, stmt, `"published" BOOLEAN`)
	assert.Contains(t, stmt, `"created_at" TIMESTAMP NOT NULL`)
}
