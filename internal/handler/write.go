package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"CrudAPI/internal/locale"
	"CrudAPI/internal/logger"
	"CrudAPI/internal/response"
	"CrudAPI/internal/validation"
)

// insert rejects on any validation error, then stores the mutable part of
// the body. Keys that may not be set are reported, not stored.
func (d *Dispatcher) insert(ctx context.Context, tr locale.Translator, in map[string]any) response.Envelope {
	if errs := d.res.Validate(in); len(errs) > 0 {
		return rejected(tr, errs)
	}
	outcome := validation.Partition(nil, d.res.MutableFields(), in)
	set, err := d.hashSecrets(outcome.MutationSet)
	if err != nil {
		return internalError(tr, err)
	}

	doc, err := d.res.Store().Insert(ctx, d.res.Model(), set)
	if err != nil {
		d.storeFailure("insert", err)
		return writeFailure(tr, locale.InsertError, err)
	}
	return response.OK(locale.InsertSuccess, tr, stripSecrets(d.res.Model(), doc)).
		With("blocked_attributes", outcome.BlockedFields)
}

// update only lets errors on the fields it writes block the request.
// An empty mutation set reads the target back unchanged.
func (d *Dispatcher) update(ctx context.Context, tr locale.Translator, in map[string]any) response.Envelope {
	id, fail := d.identity(tr, in)
	if fail != nil {
		return *fail
	}
	outcome := validation.Partition(d.res.Validate(in), d.res.MutableFields(), in)
	if outcome.Rejected() {
		return rejected(tr, outcome.Errors)
	}
	set, err := d.hashSecrets(outcome.MutationSet)
	if err != nil {
		return internalError(tr, err)
	}

	doc, err := d.res.Store().Update(ctx, d.res.Model(), id, set)
	if err != nil {
		d.storeFailure("update", err)
		return writeFailure(tr, locale.UpdateError, err)
	}
	if doc == nil {
		return response.Fail(http.StatusNotFound, locale.IDNoResults, tr).With("id", id)
	}
	return response.OK("", tr, stripSecrets(d.res.Model(), doc)).
		With("blocked_attributes", outcome.BlockedFields)
}

func (d *Dispatcher) delete(ctx context.Context, tr locale.Translator, in map[string]any) response.Envelope {
	id, fail := d.identity(tr, in)
	if fail != nil {
		return *fail
	}
	doc, err := d.res.Store().Delete(ctx, d.res.Model(), id)
	if err != nil {
		d.storeFailure("delete", err)
		return writeFailure(tr, locale.DeleteError, err)
	}
	if doc == nil {
		return response.Fail(http.StatusNotFound, locale.DeleteIDNoResults, tr).With("id", id)
	}
	return response.OK(locale.DeleteSuccess, tr, stripSecrets(d.res.Model(), doc))
}

// checkPassByID compares the "password" request value with the stored hash
// of the model's credential field. The hash never leaves the server.
// The candidate goes through the field's normalizers, as the stored secret did.
func (d *Dispatcher) checkPassByID(ctx context.Context, tr locale.Translator, in map[string]any) response.Envelope {
	id, fail := d.identity(tr, in)
	if fail != nil {
		return *fail
	}
	// не обрезаем: пробелы значимы, если у поля нет нормализатора trim
	candidate, ok := in["password"].(string)
	if !ok {
		candidate, ok = scalarString(in["password"])
	}
	if !ok || strings.TrimSpace(candidate) == "" {
		return response.Fail(http.StatusBadRequest, locale.PasswordEmpty, tr)
	}

	m := d.res.Model()
	if f, ok := m.Field(m.CredentialField()); ok {
		candidate = fmt.Sprint(f.Normalized(candidate))
	}
	doc, err := d.res.Store().FindByID(ctx, m, id, nil)
	if err != nil {
		d.storeFailure("checkPassById", err)
		return response.Normalize(err, nil, tr)
	}
	if doc == nil {
		return response.Fail(http.StatusNotFound, locale.IDNoResults, tr).With("id", id)
	}

	hash, _ := scalarString(doc[m.CredentialField()])
	if hash == "" {
		// секрет не задан: сравнивать не с чем
		return response.Fail(http.StatusOK, locale.PasswordDontMatch, tr)
	}
	match, err := d.deps.Hasher.Compare(ctx, hash, candidate)
	if err != nil {
		return internalError(tr, err)
	}
	if !match {
		return response.Fail(http.StatusOK, locale.PasswordDontMatch, tr)
	}
	return response.OK(locale.PasswordMatch, tr, nil)
}

// hashSecrets replaces secret values of set with their bcrypt hash.
// set is copied, never modified.
func (d *Dispatcher) hashSecrets(set map[string]any) (map[string]any, error) {
	secrets := d.res.Model().SecretFields()
	if len(secrets) == 0 {
		return set, nil
	}
	out := make(map[string]any, len(set))
	for k, v := range set {
		out[k] = v
	}
	for _, name := range secrets {
		v, ok := out[name]
		if !ok || v == nil {
			continue
		}
		f, _ := d.res.Model().Field(name)
		plain := fmt.Sprint(f.Normalized(v))
		hash, err := d.deps.Hasher.Hash(plain)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", name, err)
		}
		out[name] = hash
	}
	return out, nil
}

func rejected(tr locale.Translator, errs []validation.FieldError) response.Envelope {
	return response.Fail(http.StatusUnprocessableEntity, locale.ValidateError, tr).
		With("validate_errors", errs)
}

func writeFailure(tr locale.Translator, key locale.Key, err error) response.Envelope {
	env := response.Fail(http.StatusInternalServerError, key, tr)
	env.Error = err.Error()
	return env
}

func internalError(tr locale.Translator, err error) response.Envelope {
	logger.Error("internal_error", map[string]any{"error": err.Error()})
	return writeFailure(tr, locale.ServerInternalError, err)
}
