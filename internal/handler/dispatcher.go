package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"CrudAPI/internal/auth"
	"CrudAPI/internal/credential"
	"CrudAPI/internal/locale"
	"CrudAPI/internal/logger"
	"CrudAPI/internal/metrics"
	"CrudAPI/internal/query"
	"CrudAPI/internal/response"
)

// Localizer picks a translator for the request languages.
type Localizer interface {
	For(prefs ...string) locale.Translator
}

type keysLocalizer struct{}

func (keysLocalizer) For(...string) locale.Translator { return locale.Keys{} }

// Deps are the collaborators shared by every dispatcher.
type Deps struct {
	Hasher  credential.Hasher
	Locale  Localizer
	Gate    auth.Gate
	Metrics metrics.Recorder
	// Strict rejects unparsable skip/limit/projection values with 400.
	Strict bool
}

// route is one entry of the per-model operation table.
type route struct {
	name    string
	methods []string
}

var routes = []route{
	{"describe", []string{http.MethodGet}},
	{"count", []string{http.MethodGet}},
	{"find", []string{http.MethodGet}},
	{"findById", []string{http.MethodGet}},
	{"findOne", []string{http.MethodGet}},
	{"insert", []string{http.MethodPost}},
	{"update", []string{http.MethodPost, http.MethodPut}},
	{"delete", []string{http.MethodPost, http.MethodDelete}},
	{"checkPassById", []string{http.MethodPost}},
}

// Methods lists every HTTP method some model operation accepts, in table order.
func Methods() []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range routes {
		for _, m := range r.methods {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

type operation struct {
	route
	run func(ctx context.Context, tr locale.Translator, in map[string]any) response.Envelope
}

// Dispatcher serves the fixed operation set of one model. It expects the
// model prefix to be stripped: r.URL.Path is "/find", "/insert", ...
type Dispatcher struct {
	res  Resource
	deps Deps
	ops  map[string]operation
}

func NewDispatcher(res Resource, deps Deps) *Dispatcher {
	if deps.Locale == nil {
		deps.Locale = keysLocalizer{}
	}
	if deps.Gate == nil {
		deps.Gate = auth.AllowAll{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	if deps.Hasher == nil {
		deps.Hasher = credential.NewBcrypt(0)
	}

	d := &Dispatcher{res: res, deps: deps}
	runs := map[string]func(context.Context, locale.Translator, map[string]any) response.Envelope{
		"describe":      d.describe,
		"count":         d.count,
		"find":          d.find,
		"findById":      d.findByID,
		"findOne":       d.findOne,
		"insert":        d.insert,
		"update":        d.update,
		"delete":        d.delete,
		"checkPassById": d.checkPassByID,
	}
	d.ops = make(map[string]operation, len(routes))
	for _, r := range routes {
		d.ops[r.name] = operation{route: r, run: runs[r.name]}
	}
	return d
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	tr := d.deps.Locale.For(r.Header.Get("Accept-Language"))

	name := strings.Trim(r.URL.Path, "/")
	op, ok := d.ops[name]
	if !ok {
		response.Write(w, response.Fail(http.StatusNotFound, locale.ServerNotFound, tr))
		return
	}
	if !allowed(op.methods, r.Method) {
		w.Header().Set("Allow", strings.Join(op.methods, ", "))
		d.finish(w, op, started, response.Fail(http.StatusMethodNotAllowed, locale.ServerMethodDenied, tr))
		return
	}

	claims, err := d.deps.Gate.Verify(r)
	if err != nil {
		key := locale.JWTCheckInvalidToken
		if errors.Is(err, auth.ErrMissingToken) {
			key = locale.JWTCheckEmptyToken
		}
		d.finish(w, op, started, response.Fail(http.StatusUnauthorized, key, tr))
		return
	}
	ctx := r.Context()
	if claims != nil {
		ctx = auth.WithClaims(ctx, claims)
	}

	in, err := query.ReadInput(r)
	if err != nil {
		env := response.Fail(http.StatusBadRequest, locale.ServerBadRequest, tr)
		env.Error = err.Error()
		d.finish(w, op, started, env)
		return
	}

	d.finish(w, op, started, op.run(ctx, tr, in))
}

func (d *Dispatcher) finish(w http.ResponseWriter, op operation, started time.Time, env response.Envelope) {
	response.Write(w, env)
	status := env.Status
	if status == 0 {
		status = http.StatusOK
	}
	d.deps.Metrics.Observe(d.res.Name(), op.name, status, time.Since(started))
}

func allowed(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

// storeFailure logs a store error; the envelope is built by the caller.
func (d *Dispatcher) storeFailure(op string, err error) {
	logger.Error("store_error", map[string]any{
		"model":     d.res.Name(),
		"operation": op,
		"error":     err.Error(),
	})
}
