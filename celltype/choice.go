package celltype

import (
	"fmt"
	"strings"
)

// selectType holds a single option value. Values that are not among the
// configured choices are kept and displayed as-is so a column's options can
// evolve without destroying data.
type selectType struct{}

func (selectType) Name() string { return TypeSelect }

func (selectType) Validate(v Value, _ Options) error {
	switch v.Kind {
	case KindNull:
		return nil
	case KindList:
		return fmt.Errorf("select cell cannot hold a collection")
	}
	s, ok := v.AsString()
	if !ok {
		return fmt.Errorf("expected option value, got %T", v.Data)
	}
	if s == "" {
		return fmt.Errorf("empty option value; use a null value instead")
	}
	return nil
}

func (selectType) Parse(text string, opts Options) Value {
	text = strings.TrimSpace(text)
	if text == "" {
		return Null()
	}
	// Entered text may be a label rather than an option value.
	for _, c := range opts.Choices {
		if strings.EqualFold(text, c.Label) || text == c.Value {
			return Scalar(c.Value)
		}
	}
	return Scalar(text)
}

func (selectType) Format(v Value, opts Options) string {
	if v.IsNull() {
		return ""
	}
	s, _ := v.AsString()
	return choiceLabel(s, opts)
}

func (selectType) Serialize(v Value) string {
	if v.IsNull() {
		return ""
	}
	return scalarString(v.Data)
}

func (selectType) Compare(a, b Value, opts Options) int {
	if c, done := orderMissing(a, b); done {
		return c
	}
	as, _ := a.AsString()
	bs, _ := b.AsString()
	ai, bi := choiceIndex(as, opts), choiceIndex(bs, opts)
	if ai != bi {
		return ai - bi
	}
	return compareStringsFold(as, bs)
}

func (s selectType) Matches(v Value, filter string, opts Options) bool {
	if v.IsNull() {
		return filter == ""
	}
	raw, _ := v.AsString()
	return containsFold(s.Format(v, opts), filter) || containsFold(raw, filter)
}

// multiSelectType holds a collection of option values.
type multiSelectType struct{}

func (multiSelectType) Name() string { return TypeMultiSelect }

func (multiSelectType) Validate(v Value, _ Options) error {
	switch v.Kind {
	case KindNull:
		return nil
	case KindScalar:
		return fmt.Errorf("multi-select cell requires a collection")
	}
	items := v.Items()
	if len(items) == 0 {
		return fmt.Errorf("empty collection; use a null value instead")
	}
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return fmt.Errorf("expected option value, got %T", it)
		}
		if s == "" {
			return fmt.Errorf("empty option value")
		}
	}
	return nil
}

func (multiSelectType) Parse(text string, opts Options) Value {
	parts := splitList(text)
	if parts == nil {
		return Null()
	}
	for i, p := range parts {
		for _, c := range opts.Choices {
			if strings.EqualFold(p, c.Label) || p == c.Value {
				parts[i] = c.Value
				break
			}
		}
	}
	return StringList(parts)
}

func (multiSelectType) Format(v Value, opts Options) string {
	if v.IsNull() {
		return ""
	}
	labels := make([]string, 0, len(v.Items()))
	for _, raw := range v.Strings() {
		labels = append(labels, choiceLabel(raw, opts))
	}
	return strings.Join(labels, ", ")
}

func (multiSelectType) Serialize(v Value) string { return joinList(v) }

func (m multiSelectType) Compare(a, b Value, opts Options) int {
	if c, done := orderMissing(a, b); done {
		return c
	}
	return compareStringsFold(m.Format(a, opts), m.Format(b, opts))
}

func (m multiSelectType) Matches(v Value, filter string, opts Options) bool {
	if v.IsNull() {
		return filter == ""
	}
	return containsFold(m.Format(v, opts), filter) || containsFold(joinList(v), filter)
}

// tagsType holds a collection of free-form labels, order preserved.
type tagsType struct{}

func (tagsType) Name() string { return TypeTags }

func (tagsType) Validate(v Value, _ Options) error {
	switch v.Kind {
	case KindNull:
		return nil
	case KindScalar:
		return fmt.Errorf("tag cell requires a collection")
	}
	items := v.Items()
	if len(items) == 0 {
		return fmt.Errorf("empty collection; use a null value instead")
	}
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return fmt.Errorf("expected tag, got %T", it)
		}
		if s == "" {
			return fmt.Errorf("empty tag")
		}
	}
	return nil
}

func (tagsType) Parse(text string, _ Options) Value {
	parts := splitList(text)
	if parts == nil {
		return Null()
	}
	return StringList(parts)
}

func (tagsType) Format(v Value, _ Options) string {
	if v.IsNull() {
		return ""
	}
	return strings.Join(v.Strings(), ", ")
}

func (tagsType) Serialize(v Value) string { return joinList(v) }

func (t tagsType) Compare(a, b Value, opts Options) int {
	if c, done := orderMissing(a, b); done {
		return c
	}
	return compareStringsFold(t.Format(a, opts), t.Format(b, opts))
}

func (t tagsType) Matches(v Value, filter string, opts Options) bool {
	if v.IsNull() {
		return filter == ""
	}
	for _, tag := range v.Strings() {
		if containsFold(tag, filter) {
			return true
		}
	}
	return false
}

func choiceLabel(value string, opts Options) string {
	for _, c := range opts.Choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

func choiceIndex(value string, opts Options) int {
	for i, c := range opts.Choices {
		if c.Value == value {
			return i
		}
	}
	return len(opts.Choices)
}

func splitList(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func joinList(v Value) string {
	if v.IsNull() {
		return ""
	}
	return strings.Join(v.Strings(), ",")
}
