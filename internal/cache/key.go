package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

const keyPrefix = "crud:"

// modelPattern matches every cached entry of one model.
func modelPattern(model string) string {
	return keyPrefix + model + ":*"
}

// Key hashes the canonical form of payload under the model namespace.
func Key(model string, payload map[string]any) (string, error) {
	data, err := canonicalJSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return keyPrefix + model + ":" + hex.EncodeToString(sum[:]), nil
}

// canonicalJSON encodes maps with sorted keys at every depth, so equal
// requests hash equally regardless of map iteration order.
func canonicalJSON(value any) ([]byte, error) {
	var b strings.Builder
	if err := encodeCanonical(&b, value); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func encodeCanonical(b *strings.Builder, value any) error {
	switch v := value.(type) {
	case nil:
		b.WriteString("null")
	case json.Number:
		b.WriteString(v.String())
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encodeCanonical(b, item); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			encKey, _ := json.Marshal(k)
			b.Write(encKey)
			b.WriteByte(':')
			if err := encodeCanonical(b, v[k]); err != nil {
				return err
			}
		}
		b.WriteByte('}')
	default:
		// скаляры и прочие типы: encoding/json сам сортирует ключи map
		enc, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b.Write(enc)
	}
	return nil
}
