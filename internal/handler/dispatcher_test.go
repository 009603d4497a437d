package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"CrudAPI/internal/auth"
	"CrudAPI/internal/credential"
	"CrudAPI/internal/locale"
	"CrudAPI/internal/model"
	"CrudAPI/internal/query"
	"CrudAPI/internal/store"
	"CrudAPI/internal/validation"

	"github.com/gavv/httpexpect/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const usersYAML = `
fields:
  email:
    rules: required,email
    normalize: [trim, lowercase]
  name:
    rules: required,min=2
  age:
    type: int
    rules: omitempty,gte=0,lte=150
  password:
    rules: required,min=8
    secret: true
  role:
    read_only: true
`

const missingID = "00000000-0000-4000-8000-000000000000"

func usersModel(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.ParseModel("users", []byte(usersYAML))
	require.NoError(t, err)
	return m
}

func sqliteStore(t *testing.T, m *model.Model) store.Store {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := store.NewSQLStore(db, store.SQLite)
	require.NoError(t, s.CreateTables(context.Background(), m))
	return s
}

func newExpect(t *testing.T, st store.Store, deps Deps) *httpexpect.Expect {
	t.Helper()
	return newExpectFor(t, usersModel(t), st, deps)
}

// newExpectFor serves m under /users/.
func newExpectFor(t *testing.T, m *model.Model, st store.Store, deps Deps) *httpexpect.Expect {
	t.Helper()
	if st == nil {
		st = sqliteStore(t, m)
	}
	if deps.Hasher == nil {
		deps.Hasher = credential.NewBcrypt(4)
	}
	if deps.Locale == nil {
		catalog, err := locale.NewCatalog("en", "")
		require.NoError(t, err)
		deps.Locale = catalog
	}

	mux := http.NewServeMux()
	d := NewDispatcher(NewResource(m, st, validation.NewRuleEngine()), deps)
	mux.Handle("/users/", http.StripPrefix("/users", d))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return httpexpect.Default(t, srv.URL)
}

func insertUser(e *httpexpect.Expect, email, name string) string {
	return e.POST("/users/insert").
		WithJSON(map[string]any{"email": email, "name": name, "password": "secret123"}).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object().Value("id").String().Raw()
}

func TestDescribeListsAllKeys(t *testing.T) {
	e := newExpect(t, nil, Deps{})

	obj := e.GET("/users/describe").Expect().Status(http.StatusOK).JSON().Object()
	obj.Value("success").Boolean().IsTrue()
	obj.Value("keys").Array().IsEqual([]string{
		"email", "name", "age", "password", "role", "id", "created_at", "updated_at", "version",
	})
}

func TestInsertStoresMutableFieldsAndHidesSecrets(t *testing.T) {
	e := newExpect(t, nil, Deps{})

	obj := e.POST("/users/insert").
		WithJSON(map[string]any{
			"email":    "  Ann@Example.COM ",
			"name":     "Ann",
			"age":      30,
			"password": "secret123",
			"role":     "admin",
			"id":       "forced",
		}).
		Expect().Status(http.StatusOK).JSON().Object()

	obj.Value("success").Boolean().IsTrue()
	obj.Value("code").String().IsEqual("db.insert_success")
	obj.Value("message").String().IsEqual("Insert operation successful.")
	obj.Value("blocked_attributes").Array().IsEqual([]string{"id", "role"})

	data := obj.Value("data").Object()
	data.Value("email").String().IsEqual("ann@example.com")
	data.Value("age").Number().IsEqual(30)
	data.Value("version").Number().IsEqual(0)
	data.Value("role").IsNull()
	data.NotContainsKey("password")
	data.Value("id").String().NotEqual("forced")
}

func TestInsertRejectsEveryValidationError(t *testing.T) {
	e := newExpect(t, nil, Deps{})

	obj := e.POST("/users/insert").
		WithJSON(map[string]any{"name": "A", "age": "old"}).
		Expect().Status(http.StatusUnprocessableEntity).JSON().Object()

	obj.Value("success").Boolean().IsFalse()
	obj.Value("code").String().IsEqual("db.validate_error")
	errs := obj.Value("validate_errors").Array()
	errs.Length().IsEqual(4)
	errs.Value(0).Object().Value("field").String().IsEqual("email")
	errs.Value(1).Object().Value("message").String().IsEqual("name must be at least 2 characters long")
	errs.Value(2).Object().Value("message").String().IsEqual("age must be of type int")
	errs.Value(3).Object().Value("field").String().IsEqual("password")

	e.GET("/users/count").Expect().Status(http.StatusOK).
		JSON().Object().Value("count").Number().IsEqual(0)
}

func TestFindByIDIdentityChecks(t *testing.T) {
	e := newExpect(t, nil, Deps{})

	e.GET("/users/findById").Expect().Status(http.StatusBadRequest).
		JSON().Object().Value("code").String().IsEqual("db.empty_id")
	e.GET("/users/findById").WithQuery("id", "42").Expect().Status(http.StatusBadRequest).
		JSON().Object().Value("code").String().IsEqual("db.invalid_id")

	noData := e.GET("/users/findById").WithQuery("id", missingID).
		Expect().Status(http.StatusOK).JSON().Object()
	noData.Value("success").Boolean().IsTrue()
	noData.Value("code").String().IsEqual("db.query_no_data")
	noData.Value("data").Object().IsEmpty()

	id := insertUser(e, "bob@example.com", "Bob")
	found := e.GET("/users/findById").WithQuery("id", id).WithQuery("proj[name]", "1").
		Expect().Status(http.StatusOK).JSON().Object().Value("data").Object()
	found.Keys().ContainsOnly("id", "name")
	found.Value("name").String().IsEqual("Bob")
}

func TestIdentityAcceptsOtherUUIDSpellings(t *testing.T) {
	e := newExpect(t, nil, Deps{})
	id := insertUser(e, "ann@example.com", "Ann")

	braced := "{" + strings.ToUpper(id) + "}"
	e.GET("/users/findById").WithQuery("id", braced).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object().Value("id").String().IsEqual(id)

	e.POST("/users/update").WithJSON(map[string]any{"id": "urn:uuid:" + id, "name": "Anna"}).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object().Value("name").String().IsEqual("Anna")

	e.POST("/users/checkPassById").WithJSON(map[string]any{"id": strings.ReplaceAll(id, "-", ""), "password": "secret123"}).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("code").String().IsEqual("db.password_match")

	e.DELETE("/users/delete").WithQuery("id", "urn:uuid:"+strings.ToUpper(id)).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("code").String().IsEqual("db.delete_success")

	e.GET("/users/findById").WithQuery("id", id).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("code").String().IsEqual("db.query_no_data")
}

func TestFindWithPagerAndFilter(t *testing.T) {
	e := newExpect(t, nil, Deps{})
	for _, name := range []string{"Cid", "Ann", "Bob"} {
		insertUser(e, name+"@example.com", name)
	}

	paged := e.GET("/users/find").
		WithQuery("sort", "name").
		WithQuery("pager[page_number]", "1").
		WithQuery("pager[page_size]", "2").
		Expect().Status(http.StatusOK).JSON().Object()
	paged.Value("data").Array().Length().IsEqual(2)
	paged.Value("data").Array().Value(0).Object().Value("name").String().IsEqual("Ann")
	paged.Value("data").Array().Value(0).Object().NotContainsKey("password")
	pager := paged.Value("pager").Object()
	pager.Value("total_items").Number().IsEqual(3)
	pager.Value("items_in_page").Number().IsEqual(2)
	pager.Value("number_of_pages").Number().IsEqual(2)
	pager.Value("actual_page").Number().IsEqual(1)

	plain := e.GET("/users/find").
		WithQuery("filter[name__start]", "B").
		Expect().Status(http.StatusOK).JSON().Object()
	plain.Value("pager").String().IsEqual("pager disabled")
	plain.Value("data").Array().Length().IsEqual(1)

	empty := e.GET("/users/find").
		WithQuery("filter", `{"name":"Zed"}`).
		Expect().Status(http.StatusOK).JSON().Object()
	empty.Value("code").String().IsEqual("db.query_no_data")
	empty.Value("data").Object().IsEmpty()

	one := e.GET("/users/findOne").
		WithQuery("sort", "-name").
		Expect().Status(http.StatusOK).JSON().Object()
	one.Value("data").Object().Value("name").String().IsEqual("Cid")

	e.GET("/users/count").WithQuery("filter[name__in][]", "Ann").WithQuery("filter[name__in][]", "Bob").
		Expect().Status(http.StatusOK).
		JSON().Object().Value("count").Number().IsEqual(2)
}

func TestFindIsIdempotent(t *testing.T) {
	e := newExpect(t, nil, Deps{})
	insertUser(e, "ann@example.com", "Ann")
	insertUser(e, "bob@example.com", "Bob")

	first := e.GET("/users/find").WithQuery("sort", "-name").Expect().Status(http.StatusOK).Body().Raw()
	second := e.GET("/users/find").WithQuery("sort", "-name").Expect().Status(http.StatusOK).Body().Raw()
	require.Equal(t, first, second)
}

func TestUpdatePartitionsValidation(t *testing.T) {
	e := newExpect(t, nil, Deps{})
	id := insertUser(e, "ann@example.com", "Ann")

	// email ошибочен и изменяется: запрос отклонён целиком
	bad := e.POST("/users/update").
		WithJSON(map[string]any{"id": id, "name": "Anna", "email": "nope"}).
		Expect().Status(http.StatusUnprocessableEntity).JSON().Object()
	bad.Value("validate_errors").Array().Length().IsEqual(1)
	bad.Value("validate_errors").Array().Value(0).Object().Value("field").String().IsEqual("email")

	// ошибки на нетронутых полях (password required) не блокируют
	ok := e.PUT("/users/update").
		WithJSON(map[string]any{"id": id, "name": "Anna", "created_at": "2001-01-01"}).
		Expect().Status(http.StatusOK).JSON().Object()
	ok.Value("success").Boolean().IsTrue()
	ok.Value("blocked_attributes").Array().IsEqual([]string{"created_at", "id"})
	data := ok.Value("data").Object()
	data.Value("name").String().IsEqual("Anna")
	data.Value("email").String().IsEqual("ann@example.com")
	data.Value("version").Number().IsEqual(1)

	// пустой набор изменений: документ возвращается как есть
	e.POST("/users/update").WithJSON(map[string]any{"id": id, "version": 9}).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object().Value("version").Number().IsEqual(1)

	e.POST("/users/update").WithJSON(map[string]any{"id": missingID, "name": "Ghost"}).
		Expect().Status(http.StatusNotFound).
		JSON().Object().Value("code").String().IsEqual("db.id_no_results")

	e.POST("/users/update").WithJSON(map[string]any{"name": "Ghost"}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().Value("code").String().IsEqual("db.empty_id")
}

func TestDeleteIsNotIdempotent(t *testing.T) {
	e := newExpect(t, nil, Deps{})
	id := insertUser(e, "ann@example.com", "Ann")

	first := e.DELETE("/users/delete").WithQuery("id", id).
		Expect().Status(http.StatusOK).JSON().Object()
	first.Value("code").String().IsEqual("db.delete_success")
	first.Value("data").Object().Value("id").String().IsEqual(id)
	first.Value("data").Object().NotContainsKey("password")

	second := e.POST("/users/delete").WithJSON(map[string]any{"id": id}).
		Expect().Status(http.StatusNotFound).JSON().Object()
	second.Value("success").Boolean().IsFalse()
	second.Value("code").String().IsEqual("db.delete_id_no_results")
	second.Value("id").String().IsEqual(id)
}

func TestCheckPassByID(t *testing.T) {
	e := newExpect(t, nil, Deps{})
	id := insertUser(e, "ann@example.com", "Ann")

	e.POST("/users/checkPassById").WithJSON(map[string]any{"id": id, "password": "secret123"}).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("code").String().IsEqual("db.password_match")

	miss := e.POST("/users/checkPassById").WithJSON(map[string]any{"id": id, "password": "wrong-one"}).
		Expect().Status(http.StatusOK).JSON().Object()
	miss.Value("success").Boolean().IsFalse()
	miss.Value("code").String().IsEqual("db.password_dont_match")
	miss.NotContainsKey("data")

	e.POST("/users/checkPassById").WithJSON(map[string]any{"id": id}).
		Expect().Status(http.StatusBadRequest).
		JSON().Object().Value("code").String().IsEqual("db.password_empty")

	e.POST("/users/checkPassById").WithJSON(map[string]any{"id": missingID, "password": "secret123"}).
		Expect().Status(http.StatusNotFound).
		JSON().Object().Value("code").String().IsEqual("db.id_no_results")
}

const accountsYAML = `
fields:
  login:
    rules: required
  pin:
    secret: true
    normalize: [trim, lowercase]
`

func TestCheckPassByIDWithNormalizedSecret(t *testing.T) {
	m, err := model.ParseModel("users", []byte(accountsYAML))
	require.NoError(t, err)
	e := newExpectFor(t, m, sqliteStore(t, m), Deps{})

	id := e.POST("/users/insert").WithJSON(map[string]any{"login": "ann", "pin": "  Secret123 "}).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object().Value("id").String().Raw()

	for _, candidate := range []string{"secret123", "SECRET123"} {
		e.POST("/users/checkPassById").WithJSON(map[string]any{"id": id, "password": candidate}).
			Expect().Status(http.StatusOK).
			JSON().Object().Value("code").String().IsEqual("db.password_match")
	}
	e.POST("/users/checkPassById").WithJSON(map[string]any{"id": id, "password": "secret124"}).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("code").String().IsEqual("db.password_dont_match")
}

func TestCheckPassByIDWithoutStoredSecret(t *testing.T) {
	m, err := model.ParseModel("users", []byte(accountsYAML))
	require.NoError(t, err)
	e := newExpectFor(t, m, sqliteStore(t, m), Deps{})

	id := e.POST("/users/insert").WithJSON(map[string]any{"login": "bob"}).
		Expect().Status(http.StatusOK).
		JSON().Object().Value("data").Object().Value("id").String().Raw()

	obj := e.POST("/users/checkPassById").WithJSON(map[string]any{"id": id, "password": "anything"}).
		Expect().Status(http.StatusOK).JSON().Object()
	obj.Value("success").Boolean().IsFalse()
	obj.Value("code").String().IsEqual("db.password_dont_match")
}

func TestRoutingErrors(t *testing.T) {
	e := newExpect(t, nil, Deps{})

	e.GET("/users/insert").Expect().Status(http.StatusMethodNotAllowed).
		Header("Allow").IsEqual("POST")
	e.GET("/users/nope").Expect().Status(http.StatusNotFound).
		JSON().Object().Value("code").String().IsEqual("server.not_found")
	e.POST("/users/insert").WithText("{not json").WithHeader("Content-Type", "application/json").
		Expect().Status(http.StatusBadRequest).
		JSON().Object().Value("code").String().IsEqual("server.bad_request")
}

func TestMethodsUnionOfRouteTable(t *testing.T) {
	require.Equal(t, []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}, Methods())

	d := NewDispatcher(NewResource(usersModel(t), nil, validation.NewRuleEngine()), Deps{})
	require.Len(t, d.ops, len(routes))
	for name, op := range d.ops {
		require.NotNil(t, op.run, name)
	}
}

func TestLocalizedMessages(t *testing.T) {
	e := newExpect(t, nil, Deps{})

	e.GET("/users/findById").WithHeader("Accept-Language", "es-ES,es;q=0.9").
		Expect().Status(http.StatusBadRequest).
		JSON().Object().Value("message").String().IsEqual("El campo ID no puede estar vacío.")
}

type denyGate struct{ err error }

func (g denyGate) Verify(*http.Request) (map[string]any, error) { return nil, g.err }

func TestAuthGateDenies(t *testing.T) {
	e := newExpect(t, nil, Deps{Gate: denyGate{err: auth.ErrMissingToken}})
	e.GET("/users/find").Expect().Status(http.StatusUnauthorized).
		JSON().Object().Value("code").String().IsEqual("jwt.check_empty_token")

	e = newExpect(t, nil, Deps{Gate: denyGate{err: auth.ErrInvalidToken}})
	e.POST("/users/insert").WithJSON(map[string]any{}).Expect().Status(http.StatusUnauthorized).
		JSON().Object().Value("code").String().IsEqual("jwt.check_invalid_token")
}

func TestStrictParams(t *testing.T) {
	e := newExpect(t, nil, Deps{Strict: true})
	obj := e.GET("/users/find").WithQuery("skip", "abc").WithQuery("proj[name]", "x").
		Expect().Status(http.StatusBadRequest).JSON().Object()
	obj.Value("code").String().IsEqual("db.invalid_param")
	obj.Value("invalid").Array().IsEqual([]string{"skip", "proj.name"})

	lenient := newExpect(t, nil, Deps{})
	lenient.GET("/users/find").WithQuery("skip", "abc").Expect().Status(http.StatusOK)
}

// failingStore fails every read it implements; other methods are unused.
type failingStore struct{ store.Store }

func (failingStore) Count(context.Context, *model.Model, map[string]any) (int64, error) {
	return 0, errors.New("connection refused")
}

func (failingStore) Find(context.Context, *model.Model, query.Descriptor) ([]map[string]any, error) {
	return nil, errors.New("connection refused")
}

func TestStoreErrorsBecome500(t *testing.T) {
	e := newExpect(t, failingStore{}, Deps{})

	obj := e.GET("/users/count").Expect().Status(http.StatusInternalServerError).JSON().Object()
	obj.Value("success").Boolean().IsFalse()
	obj.Value("code").String().IsEqual("db.query_error")
	obj.Value("error").String().IsEqual("connection refused")

	e.GET("/users/find").Expect().Status(http.StatusInternalServerError)
}

type recorder struct {
	mu  sync.Mutex
	got []string
}

func (r *recorder) Observe(model, operation string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, model+"/"+operation+"/"+http.StatusText(status))
}

func TestMetricsObserveEveryOperation(t *testing.T) {
	rec := &recorder{}
	e := newExpect(t, nil, Deps{Metrics: rec})

	e.GET("/users/describe").Expect().Status(http.StatusOK)
	e.GET("/users/findById").Expect().Status(http.StatusBadRequest)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Equal(t, []string{"users/describe/OK", "users/findById/Bad Request"}, rec.got)
}
