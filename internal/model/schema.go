package model

import (
	"fmt"
	"strings"
)

// Prepare fills defaults, checks the declaration and caches the field sets.
// It must be called once before the model is shared between requests.
func (m *Model) Prepare(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("model name is empty")
	}
	m.Name = name
	if m.Table == "" {
		m.Table = name
	}
	if m.Timestamps == nil {
		m.Timestamps = boolPtr(true)
	}
	if m.Versioned == nil {
		m.Versioned = boolPtr(true)
	}
	m.Reserved = m.Reserved.withDefaults()

	reserved := m.ReservedNames()
	reservedSet := make(map[string]bool, len(reserved))
	for _, r := range reserved {
		if reservedSet[r] {
			return fmt.Errorf("model %s: reserved field %q declared twice", name, r)
		}
		reservedSet[r] = true
	}

	m.byName = make(map[string]*Field, len(m.Fields))
	m.keys = make([]string, 0, len(m.Fields)+len(reserved))
	m.mutable = make([]string, 0, len(m.Fields))
	m.mutableSet = make(map[string]bool, len(m.Fields))

	for _, f := range m.Fields {
		if f == nil || f.Name == "" {
			return fmt.Errorf("model %s: unnamed field", name)
		}
		if reservedSet[f.Name] {
			return fmt.Errorf("model %s: field %q clashes with a reserved field", name, f.Name)
		}
		if f.Type == "" {
			f.Type = TypeString
		}
		if !allowedFieldTypeValues[f.Type] {
			return fmt.Errorf("model %s: unknown type %q for field %q", name, f.Type, f.Name)
		}
		for _, n := range f.Normalize {
			if !allowedNormalizers[n] {
				return fmt.Errorf("model %s: unknown normalizer %q for field %q", name, n, f.Name)
			}
		}
		m.byName[f.Name] = f
		m.keys = append(m.keys, f.Name)
		if !f.ReadOnly {
			m.mutable = append(m.mutable, f.Name)
			m.mutableSet[f.Name] = true
		}
	}
	m.keys = append(m.keys, reserved...)
	return nil
}

// Keys returns every field name: declared fields in order, then the reserved ones.
func (m *Model) Keys() []string {
	return append([]string(nil), m.keys...)
}

// MutableFields is Keys minus reserved and read-only fields.
func (m *Model) MutableFields() []string {
	return append([]string(nil), m.mutable...)
}

func (m *Model) IsMutable(name string) bool {
	return m.mutableSet[name]
}

func (m *Model) Field(name string) (*Field, bool) {
	f, ok := m.byName[name]
	return f, ok
}

func (m *Model) IDField() string {
	return m.Reserved.ID
}

func (m *Model) HasTimestamps() bool {
	return m.Timestamps == nil || *m.Timestamps
}

func (m *Model) IsVersioned() bool {
	return m.Versioned == nil || *m.Versioned
}

// ReservedNames lists the enabled system-managed fields.
func (m *Model) ReservedNames() []string {
	r := m.Reserved.withDefaults()
	out := []string{r.ID}
	if m.HasTimestamps() {
		out = append(out, r.CreatedAt, r.UpdatedAt)
	}
	if m.IsVersioned() {
		out = append(out, r.Version)
	}
	return out
}

// SecretFields returns the declared fields that must never leave the store.
func (m *Model) SecretFields() []string {
	var out []string
	for _, f := range m.Fields {
		if f.Secret {
			out = append(out, f.Name)
		}
	}
	return out
}

// CredentialField is the field checked by checkPassById.
func (m *Model) CredentialField() string {
	if s := m.SecretFields(); len(s) > 0 {
		return s[0]
	}
	return "password"
}

func (r ReservedFields) withDefaults() ReservedFields {
	if r.ID == "" {
		r.ID = DefaultReserved.ID
	}
	if r.CreatedAt == "" {
		r.CreatedAt = DefaultReserved.CreatedAt
	}
	if r.UpdatedAt == "" {
		r.UpdatedAt = DefaultReserved.UpdatedAt
	}
	if r.Version == "" {
		r.Version = DefaultReserved.Version
	}
	return r
}

func boolPtr(b bool) *bool { return &b }
