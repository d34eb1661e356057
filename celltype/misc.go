package celltype

import (
	"encoding/json"
	"fmt"
	"strings"
)

// checkboxType holds a single bool. False and missing are distinct.
type checkboxType struct{}

func (checkboxType) Name() string { return TypeCheckbox }

func (checkboxType) Validate(v Value, _ Options) error {
	switch v.Kind {
	case KindNull:
		return nil
	case KindList:
		return fmt.Errorf("checkbox cell cannot hold a collection")
	}
	if _, ok := v.AsBool(); !ok {
		return fmt.Errorf("expected boolean, got %T", v.Data)
	}
	return nil
}

func (checkboxType) Parse(text string, _ Options) Value {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "":
		return Null()
	case "true", "1", "yes", "checked", "x":
		return Scalar(true)
	default:
		return Scalar(false)
	}
}

func (checkboxType) Format(v Value, _ Options) string {
	b, ok := v.AsBool()
	if !ok {
		return ""
	}
	if b {
		return "Yes"
	}
	return "No"
}

func (checkboxType) Serialize(v Value) string {
	b, ok := v.AsBool()
	if !ok {
		return ""
	}
	if b {
		return "true"
	}
	return "false"
}

func (checkboxType) Compare(a, b Value, _ Options) int {
	if c, done := orderMissing(a, b); done {
		return c
	}
	ab, _ := a.AsBool()
	bb, _ := b.AsBool()
	switch {
	case ab == bb:
		return 0
	case !ab:
		return -1
	}
	return 1
}

func (c checkboxType) Matches(v Value, filter string, opts Options) bool {
	return containsFold(c.Format(v, opts), filter)
}

// jsonType holds free-form structured data as a raw JSON text scalar.
type jsonType struct{}

func (jsonType) Name() string { return TypeJSON }

func (jsonType) Validate(v Value, _ Options) error {
	switch v.Kind {
	case KindNull:
		return nil
	case KindList:
		return fmt.Errorf("json cell cannot hold a collection")
	}
	s, ok := v.AsString()
	if !ok {
		return fmt.Errorf("expected raw JSON text, got %T", v.Data)
	}
	if !json.Valid([]byte(s)) {
		return fmt.Errorf("invalid JSON")
	}
	return nil
}

func (jsonType) Parse(text string, _ Options) Value {
	text = strings.TrimSpace(text)
	if text == "" {
		return Null()
	}
	if !json.Valid([]byte(text)) {
		// Keep arbitrary text by quoting it into a JSON string.
		raw, _ := json.Marshal(text)
		return Scalar(string(raw))
	}
	return Scalar(text)
}

func (jsonType) Format(v Value, _ Options) string {
	if v.IsNull() {
		return ""
	}
	return scalarString(v.Data)
}

func (jsonType) Serialize(v Value) string {
	if v.IsNull() {
		return ""
	}
	return scalarString(v.Data)
}

func (jsonType) Compare(a, b Value, _ Options) int {
	if c, done := orderMissing(a, b); done {
		return c
	}
	return compareStringsFold(scalarString(a.Data), scalarString(b.Data))
}

func (j jsonType) Matches(v Value, filter string, opts Options) bool {
	return containsFold(j.Format(v, opts), filter)
}

// actionType is the trigger pseudo-type: its cells never hold data, the
// presentation layer renders a control per row.
type actionType struct{}

func (actionType) Name() string { return TypeAction }

func (actionType) Validate(v Value, _ Options) error {
	if !v.IsNull() {
		return fmt.Errorf("action cells hold no value")
	}
	return nil
}

func (actionType) Parse(string, Options) Value { return Null() }

func (actionType) Format(Value, Options) string { return "" }

func (actionType) Serialize(Value) string { return "" }

func (actionType) Compare(a, b Value, _ Options) int {
	c, _ := orderMissing(a, b)
	return c
}

func (actionType) Matches(Value, string, Options) bool { return false }
