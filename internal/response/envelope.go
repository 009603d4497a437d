package response

import (
	"encoding/json"
	"net/http"
	"reflect"

	"CrudAPI/internal/locale"
	"CrudAPI/internal/logger"
)

// Envelope is the JSON object returned by every operation.
// Code carries the message key, Message its localized text.
type Envelope struct {
	Status  int
	Success bool
	Code    locale.Key
	Message string
	Data    any
	Error   string
	Extra   map[string]any
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+5)
	for k, v := range e.Extra {
		out[k] = v
	}
	out["success"] = e.Success
	if e.Code != "" {
		out["code"] = string(e.Code)
	}
	if e.Message != "" {
		out["message"] = e.Message
	}
	if e.Data != nil {
		out["data"] = e.Data
	}
	if e.Error != "" {
		out["error"] = e.Error
	}
	return json.Marshal(out)
}

// With adds an operation-specific field (pager, keys, blocked_attributes...).
func (e Envelope) With(key string, value any) Envelope {
	extra := make(map[string]any, len(e.Extra)+1)
	for k, v := range e.Extra {
		extra[k] = v
	}
	extra[key] = value
	e.Extra = extra
	return e
}

// WithStatus overrides the HTTP status of the envelope.
func (e Envelope) WithStatus(status int) Envelope {
	e.Status = status
	return e
}

// Normalize maps a store result onto one of the three read envelopes:
// query error, data, or "no data" with an empty object.
func Normalize(err error, data any, tr locale.Translator) Envelope {
	if err != nil {
		return Envelope{
			Status:  http.StatusInternalServerError,
			Success: false,
			Code:    locale.QueryError,
			Message: tr.Text(locale.QueryError),
			Error:   err.Error(),
		}
	}
	if IsEmpty(data) {
		return Envelope{
			Status:  http.StatusOK,
			Success: true,
			Code:    locale.QueryNoData,
			Message: tr.Text(locale.QueryNoData),
			Data:    map[string]any{},
		}
	}
	return Envelope{Status: http.StatusOK, Success: true, Data: data}
}

func OK(key locale.Key, tr locale.Translator, data any) Envelope {
	env := Envelope{Status: http.StatusOK, Success: true, Data: data}
	if key != "" {
		env.Code = key
		env.Message = tr.Text(key)
	}
	return env
}

func Fail(status int, key locale.Key, tr locale.Translator) Envelope {
	return Envelope{Status: status, Success: false, Code: key, Message: tr.Text(key)}
}

// IsEmpty treats nil, nil pointers and zero-length maps or slices as empty.
func IsEmpty(data any) bool {
	if data == nil {
		return true
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Write sends env as JSON with its status (200 when unset).
func Write(w http.ResponseWriter, env Envelope) {
	status := env.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Error("response_encode_failed", map[string]any{"error": err.Error()})
	}
}
