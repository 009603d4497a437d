package handler

import (
	"context"
	"net/http"

	"CrudAPI/internal/locale"
	"CrudAPI/internal/query"
	"CrudAPI/internal/response"
)

func (d *Dispatcher) describe(_ context.Context, tr locale.Translator, _ map[string]any) response.Envelope {
	return response.OK("", tr, nil).With("keys", d.res.Fields())
}

func (d *Dispatcher) count(ctx context.Context, tr locale.Translator, in map[string]any) response.Envelope {
	desc, fail := d.descriptor(tr, in)
	if fail != nil {
		return *fail
	}
	n, err := d.res.Store().Count(ctx, d.res.Model(), desc.Filter)
	if err != nil {
		d.storeFailure("count", err)
		return response.Normalize(err, nil, tr)
	}
	return response.OK("", tr, nil).With("count", n)
}

// find runs count then fetch when a pager is requested. The two statements
// are not isolated: under concurrent writes total_items may disagree with
// the page.
func (d *Dispatcher) find(ctx context.Context, tr locale.Translator, in map[string]any) response.Envelope {
	desc, fail := d.descriptor(tr, in)
	if fail != nil {
		return *fail
	}
	st, m := d.res.Store(), d.res.Model()

	var total int64
	if desc.Pager.Requested {
		n, err := st.Count(ctx, m, desc.Filter)
		if err != nil {
			d.storeFailure("find", err)
			return response.Normalize(err, nil, tr)
		}
		total = n
	}
	rows, err := st.Find(ctx, m, desc)
	if err != nil {
		d.storeFailure("find", err)
		return response.Normalize(err, nil, tr)
	}
	rows = stripSecretRows(m, rows)
	return response.Normalize(nil, rows, tr).With("pager", desc.Pager.Report(total, len(rows)))
}

func (d *Dispatcher) findByID(ctx context.Context, tr locale.Translator, in map[string]any) response.Envelope {
	id, fail := d.identity(tr, in)
	if fail != nil {
		return *fail
	}
	desc, fail := d.descriptor(tr, map[string]any{"proj": in["proj"]})
	if fail != nil {
		return *fail
	}
	doc, err := d.res.Store().FindByID(ctx, d.res.Model(), id, desc.Projection)
	if err != nil {
		d.storeFailure("findById", err)
		return response.Normalize(err, nil, tr)
	}
	return response.Normalize(nil, stripSecrets(d.res.Model(), doc), tr)
}

func (d *Dispatcher) findOne(ctx context.Context, tr locale.Translator, in map[string]any) response.Envelope {
	desc, fail := d.descriptor(tr, in)
	if fail != nil {
		return *fail
	}
	doc, err := d.res.Store().FindOne(ctx, d.res.Model(), desc)
	if err != nil {
		d.storeFailure("findOne", err)
		return response.Normalize(err, nil, tr)
	}
	return response.Normalize(nil, stripSecrets(d.res.Model(), doc), tr)
}

// descriptor turns the request parameters into a query plan. In strict
// mode unparsable numeric parameters are a 400.
func (d *Dispatcher) descriptor(tr locale.Translator, in map[string]any) (query.Descriptor, *response.Envelope) {
	params, err := query.DecodeParams(in)
	if err != nil {
		env := response.Fail(http.StatusBadRequest, locale.ServerBadRequest, tr)
		env.Error = err.Error()
		return query.Descriptor{}, &env
	}
	desc := query.Build(params)
	if d.deps.Strict {
		if invalid := desc.Invalid(); len(invalid) > 0 {
			env := response.Fail(http.StatusBadRequest, locale.InvalidParam, tr).With("invalid", invalid)
			return query.Descriptor{}, &env
		}
	}
	return desc, nil
}
