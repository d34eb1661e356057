package celltype

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the shape of a cell value: absent, a single scalar, or a
// collection of scalars. Descriptors switch on Kind exhaustively instead of
// sniffing the runtime shape of the payload.
type Kind int

const (
	// KindNull is the missing value. It is the zero Value.
	KindNull Kind = iota
	// KindScalar holds exactly one scalar in Data.
	KindScalar
	// KindList holds a collection of scalars in Data ([]any).
	KindList
)

// Value is the payload of one cell. The zero value is the missing value,
// distinct from an empty string or empty list.
type Value struct {
	Kind Kind
	// Data holds the scalar when Kind is KindScalar (string, float64,
	// int64, bool, time.Time or Ref) and []any of scalars when Kind is
	// KindList. It is nil when Kind is KindNull.
	Data any
}

// Null returns the missing value.
func Null() Value { return Value{} }

// Scalar wraps a single scalar payload.
func Scalar(data any) Value {
	if data == nil {
		return Value{}
	}
	return Value{Kind: KindScalar, Data: data}
}

// List wraps a collection of scalar payloads. Order is preserved.
func List(items ...any) Value {
	return Value{Kind: KindList, Data: items}
}

// StringList wraps a collection of strings.
func StringList(items []string) Value {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return Value{Kind: KindList, Data: out}
}

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsString returns the scalar as a string.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindScalar {
		return "", false
	}
	switch t := v.Data.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	}
	return "", false
}

// AsFloat returns the scalar as a float64, converting integer payloads.
func (v Value) AsFloat() (float64, bool) {
	if v.Kind != KindScalar {
		return 0, false
	}
	switch t := v.Data.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

// AsBool returns the scalar as a bool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindScalar {
		return false, false
	}
	b, ok := v.Data.(bool)
	return b, ok
}

// AsRef returns the scalar as a record reference.
func (v Value) AsRef() (Ref, bool) {
	if v.Kind != KindScalar {
		return Ref{}, false
	}
	r, ok := v.Data.(Ref)
	return r, ok
}

// Items returns the collection payload, or nil for non-list values.
func (v Value) Items() []any {
	if v.Kind != KindList {
		return nil
	}
	items, _ := v.Data.([]any)
	return items
}

// Strings returns the collection coerced to strings, preserving order.
func (v Value) Strings() []string {
	items := v.Items()
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, scalarString(it))
	}
	return out
}

// Equal reports semantic equality: same shape, element-wise equal payloads
// with numeric payloads compared as float64.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindScalar:
		return scalarEqual(v.Data, o.Data)
	case KindList:
		a, b := v.Items(), o.Items()
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !scalarEqual(a[i], b[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON encodes the value as its plain JSON payload: null, a scalar
// or an array. References encode as {"id", "name"} objects.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

// UnmarshalJSON decodes a plain JSON payload through FromAny.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// FromAny converts a decoded JSON payload into a Value: nil becomes the
// missing value, arrays become collections, objects with an "id" field
// become references, everything else stays a scalar.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case []any:
		items := make([]any, len(t))
		for i, it := range t {
			items[i] = scalarFromAny(it)
		}
		return Value{Kind: KindList, Data: items}
	default:
		return Scalar(scalarFromAny(v))
	}
}

// ToAny is the inverse of FromAny, producing a JSON-encodable payload.
func (v Value) ToAny() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindScalar:
		return scalarToAny(v.Data)
	case KindList:
		items := v.Items()
		out := make([]any, len(items))
		for i, it := range items {
			out[i] = scalarToAny(it)
		}
		return out
	}
	return nil
}

func scalarFromAny(v any) any {
	if m, ok := v.(map[string]any); ok {
		if id, ok := m["id"].(string); ok {
			name, _ := m["name"].(string)
			return Ref{ID: id, Name: name}
		}
		raw, _ := json.Marshal(m)
		return string(raw)
	}
	return v
}

func scalarToAny(v any) any {
	if r, ok := v.(Ref); ok {
		return map[string]any{"id": r.ID, "name": r.Name}
	}
	return v
}

func scalarEqual(a, b any) bool {
	af, aok := numericFloat(a)
	bf, bok := numericFloat(b)
	if aok && bok {
		return af == bf
	}
	if aok != bok {
		return false
	}
	return a == b
}

func numericFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case Ref:
		return t.Name
	default:
		return fmt.Sprintf("%v", t)
	}
}

func compareStringsFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
