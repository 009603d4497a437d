package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Разрешённые ключи для объектов
var allowedModelKeys = map[string]bool{
	"table":      true,
	"timestamps": true,
	"versioned":  true,
	"reserved":   true,
	"fields":     true,
}

var allowedReservedKeys = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"version":    true,
}

var allowedFieldKeys = map[string]bool{
	"type":      true,
	"rules":     true,
	"message":   true,
	"read_only": true,
	"secret":    true,
	"normalize": true,
}

// Разрешённые значения для type в полях
var allowedFieldTypeValues = map[string]bool{
	TypeString: true,
	TypeInt:    true,
	TypeFloat:  true,
	TypeBool:   true,
	TypeTime:   true,
	TypeJSON:   true,
}

var allowedNormalizers = map[string]bool{
	"trim":      true,
	"lowercase": true,
	"uppercase": true,
}

func validateYAMLNode(node *yaml.Node, context string) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := validateYAMLNode(child, "model"); err != nil {
				return err
			}
		}

	case yaml.MappingNode:
		var allowedKeys map[string]bool
		switch context {
		case "model":
			allowedKeys = allowedModelKeys
		case "reserved":
			allowedKeys = allowedReservedKeys
		case "field":
			allowedKeys = allowedFieldKeys
		case "fields-map":
			allowedKeys = nil // имена полей свободные
		default:
			return fmt.Errorf("unexpected mapping in %s (line %d)", context, node.Line)
		}

		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			key := keyNode.Value

			if allowedKeys != nil && !allowedKeys[key] {
				return fmt.Errorf("unknown key '%s' in %s", key, context)
			}

			if context == "field" && key == "type" && !allowedFieldTypeValues[valNode.Value] {
				return fmt.Errorf("unknown type value '%s' in field", valNode.Value)
			}

			nextContext := ""
			switch {
			case context == "model" && key == "fields":
				nextContext = "fields-map"
			case context == "model" && key == "reserved":
				nextContext = "reserved"
			case context == "fields-map":
				nextContext = "field"
			case context == "field" && key == "normalize":
				nextContext = "normalize-seq"
			default:
				nextContext = context + "." + key
			}

			if err := validateYAMLNode(valNode, nextContext); err != nil {
				return err
			}
		}

	case yaml.SequenceNode:
		if context != "normalize-seq" {
			return fmt.Errorf("unexpected sequence in %s (line %d)", context, node.Line)
		}
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode || !allowedNormalizers[item.Value] {
				return fmt.Errorf("unknown normalizer '%s'", item.Value)
			}
		}

	case yaml.ScalarNode:
		// короткая форма поля: "name: string"
		if context == "field" && node.Value != "" && !allowedFieldTypeValues[node.Value] {
			return fmt.Errorf("unknown type value '%s' in field", node.Value)
		}
	}

	return nil
}
