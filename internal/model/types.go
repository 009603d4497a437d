package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeTime   = "time"
	TypeJSON   = "json"
)

// Model описывает структуру модели в конфигурации
type Model struct {
	Name       string         `yaml:"-"` // logical name of the model, also the route prefix
	Table      string         `yaml:"table"`
	Timestamps *bool          `yaml:"timestamps"` // created_at/updated_at, по умолчанию true
	Versioned  *bool          `yaml:"versioned"`  // version marker, по умолчанию true
	Reserved   ReservedFields `yaml:"reserved"`
	Fields     FieldList      `yaml:"fields"`

	// для runtime (не сериализуется)
	keys       []string
	mutable    []string
	mutableSet map[string]bool
	byName     map[string]*Field
}

// ReservedFields names the system-managed columns of a model.
// Empty names fall back to the defaults below.
type ReservedFields struct {
	ID        string `yaml:"id"`
	CreatedAt string `yaml:"created_at"`
	UpdatedAt string `yaml:"updated_at"`
	Version   string `yaml:"version"`
}

var DefaultReserved = ReservedFields{
	ID:        "id",
	CreatedAt: "created_at",
	UpdatedAt: "updated_at",
	Version:   "version",
}

// Field описывает одно объявленное поле модели
type Field struct {
	Name      string   `yaml:"-"`
	Type      string   `yaml:"type"`      // string, int, float, bool, time, json
	Rules     string   `yaml:"rules"`     // validator tags, e.g. "required,email"
	Message   string   `yaml:"message"`   // optional override of the rule message
	ReadOnly  bool     `yaml:"read_only"` // если true, поле нельзя менять через insert/update
	Secret    bool     `yaml:"secret"`    // хешируется при записи и не попадает в ответ
	Normalize []string `yaml:"normalize"` // trim, lowercase, uppercase
}

// FieldList keeps the declaration order of the YAML mapping.
type FieldList []*Field

func (l *FieldList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("fields must be a mapping, got line %d", node.Line)
	}
	out := make(FieldList, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if seen[name] {
			return fmt.Errorf("duplicate field %q", name)
		}
		seen[name] = true

		f := &Field{}
		// короткая форма: "username: string"
		if node.Content[i+1].Kind == yaml.ScalarNode && node.Content[i+1].Value != "" {
			f.Type = node.Content[i+1].Value
		} else if err := node.Content[i+1].Decode(f); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		f.Name = name
		out = append(out, f)
	}
	*l = out
	return nil
}
