package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"CrudAPI/internal/locale"
	"CrudAPI/internal/model"
	"CrudAPI/internal/response"
)

// identity reads the "id" parameter and returns it in the store's
// canonical spelling.
func (d *Dispatcher) identity(tr locale.Translator, in map[string]any) (string, *response.Envelope) {
	raw, _ := scalarString(in[d.res.Model().IDField()])
	if raw == "" {
		env := response.Fail(http.StatusBadRequest, locale.EmptyID, tr)
		return "", &env
	}
	id, ok := d.res.Store().ParseID(raw)
	if !ok {
		env := response.Fail(http.StatusBadRequest, locale.InvalidID, tr).With("id", raw)
		return "", &env
	}
	return id, nil
}

// scalarString flattens a request value to a trimmed string. Repeated
// query parameters keep their first value.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	case []any:
		if len(t) == 0 {
			return "", false
		}
		return scalarString(t[0])
	}
	return "", false
}

func stripSecrets(m *model.Model, doc map[string]any) map[string]any {
	secrets := m.SecretFields()
	if doc == nil || len(secrets) == 0 {
		return doc
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	for _, s := range secrets {
		delete(out, s)
	}
	return out
}

func stripSecretRows(m *model.Model, rows []map[string]any) []map[string]any {
	if len(m.SecretFields()) == 0 {
		return rows
	}
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = stripSecrets(m, row)
	}
	return out
}
