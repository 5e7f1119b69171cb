// Package secrets discovers and parses credential files mounted into a
// batch container, keeps them available for application use, and feeds
// every loaded value into the redaction vocabulary so nothing printed by
// the task can leak them.
package secrets

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DefaultSecretFolder is the vault sidecar mount scanned at startup.
const DefaultSecretFolder = "/vault/secrets"

// Kind discriminates the two shapes a secret file can take.
type Kind int

const (
	// KindOpaque is a single credential string or token.
	KindOpaque Kind = iota
	// KindStructured is a JSON object of named credential fields.
	KindStructured
)

// Value is the parsed content of one secret file: either an opaque blob
// or a flat mapping of field name to value. Downstream code switches on
// Kind instead of sniffing the content again.
type Value struct {
	Kind   Kind
	Opaque string
	Fields map[string]string
}

// IsZero reports whether the value carries no secret material.
func (v Value) IsZero() bool {
	return v.Opaque == "" && len(v.Fields) == 0
}

// Words returns every literal that must be masked if this value were
// ever printed. For structured values that is each field value; field
// names are not considered sensitive.
func (v Value) Words() []string {
	switch v.Kind {
	case KindStructured:
		words := make([]string, 0, len(v.Fields))
		for _, fv := range v.Fields {
			if fv != "" {
				words = append(words, fv)
			}
		}
		sort.Strings(words)
		return words
	default:
		if v.Opaque == "" {
			return nil
		}
		return []string{v.Opaque}
	}
}

// Field returns a named field of a structured value ("" for opaque).
func (v Value) Field(name string) string {
	return v.Fields[name]
}

// String keeps secret material out of accidental %v formatting.
func (v Value) String() string {
	return "[REDACTED]"
}

// Parse sniffs content and produces a Value. Content that looks like a
// JSON object (trimmed text starting with '{' and ending with '}') is
// parsed as one; anything else is opaque. A JSON-shaped file that fails
// to parse is returned as an opaque value together with the parse error,
// so the caller can log the problem while still redacting the raw text.
func Parse(content []byte) (Value, error) {
	text := strings.TrimSpace(string(content))
	if text == "" {
		return Value{}, nil
	}

	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		var raw map[string]any
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return Value{Kind: KindOpaque, Opaque: text}, err
		}
		return Value{Kind: KindStructured, Fields: flatten(raw)}, nil
	}

	return Value{Kind: KindOpaque, Opaque: text}, nil
}

// flatten coerces every top-level JSON value to its string form, the
// shape credentials objects are printed in.
func flatten(raw map[string]any) map[string]string {
	fields := make(map[string]string, len(raw))
	for key, val := range raw {
		switch tv := val.(type) {
		case string:
			fields[key] = tv
		case nil:
			fields[key] = ""
		case float64, bool:
			fields[key] = fmt.Sprintf("%v", tv)
		default:
			// Nested objects and arrays keep their compact JSON form.
			encoded, err := json.Marshal(tv)
			if err != nil {
				fields[key] = fmt.Sprintf("%v", tv)
				continue
			}
			fields[key] = string(encoded)
		}
	}
	return fields
}
