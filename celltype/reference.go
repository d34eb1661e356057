package celltype

import (
	"encoding/json"
	"fmt"
	"strings"
)

// referenceType links a cell to one or several other records. Each link
// carries the target identifier and a display name. Options.Multiple
// switches the column between a single link (scalar) and a collection.
type referenceType struct{}

func (referenceType) Name() string { return TypeReference }

func (referenceType) Validate(v Value, opts Options) error {
	switch v.Kind {
	case KindNull:
		return nil
	case KindScalar:
		if opts.Multiple {
			return fmt.Errorf("reference cell requires a collection")
		}
		r, ok := v.AsRef()
		if !ok {
			return fmt.Errorf("expected record reference, got %T", v.Data)
		}
		if r.ID == "" {
			return fmt.Errorf("reference without a target identifier")
		}
		return nil
	case KindList:
		if !opts.Multiple {
			return fmt.Errorf("reference cell holds a single link")
		}
		items := v.Items()
		if len(items) == 0 {
			return fmt.Errorf("empty collection; use a null value instead")
		}
		for _, it := range items {
			r, ok := it.(Ref)
			if !ok {
				return fmt.Errorf("expected record reference, got %T", it)
			}
			if r.ID == "" {
				return fmt.Errorf("reference without a target identifier")
			}
		}
		return nil
	}
	return fmt.Errorf("unknown value kind %d", v.Kind)
}

// Parse accepts the JSON produced by Serialize: a single object for scalar
// references, an array for collections.
func (referenceType) Parse(text string, _ Options) Value {
	text = strings.TrimSpace(text)
	if text == "" {
		return Null()
	}
	if strings.HasPrefix(text, "[") {
		var refs []Ref
		if err := json.Unmarshal([]byte(text), &refs); err != nil {
			return Null()
		}
		items := make([]any, len(refs))
		for i, r := range refs {
			items[i] = r
		}
		return Value{Kind: KindList, Data: items}
	}
	var ref Ref
	if err := json.Unmarshal([]byte(text), &ref); err != nil || ref.ID == "" {
		return Null()
	}
	return Scalar(ref)
}

func (referenceType) Format(v Value, _ Options) string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindScalar:
		if r, ok := v.AsRef(); ok {
			return r.Name
		}
		return scalarString(v.Data)
	case KindList:
		names := make([]string, 0, len(v.Items()))
		for _, it := range v.Items() {
			if r, ok := it.(Ref); ok {
				names = append(names, r.Name)
			}
		}
		return strings.Join(names, ", ")
	}
	return ""
}

func (referenceType) Serialize(v Value) string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindScalar:
		if r, ok := v.AsRef(); ok {
			raw, _ := json.Marshal(r)
			return string(raw)
		}
		return scalarString(v.Data)
	case KindList:
		refs := make([]Ref, 0, len(v.Items()))
		for _, it := range v.Items() {
			if r, ok := it.(Ref); ok {
				refs = append(refs, r)
			}
		}
		raw, _ := json.Marshal(refs)
		return string(raw)
	}
	return ""
}

func (r referenceType) Compare(a, b Value, opts Options) int {
	if c, done := orderMissing(a, b); done {
		return c
	}
	return compareStringsFold(r.Format(a, opts), r.Format(b, opts))
}

func (r referenceType) Matches(v Value, filter string, opts Options) bool {
	if v.IsNull() {
		return filter == ""
	}
	return containsFold(r.Format(v, opts), filter)
}
