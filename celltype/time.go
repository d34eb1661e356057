package celltype

import (
	"fmt"
	"time"
)

// dateFormats are the layouts Parse accepts, tried in order. Serialize
// always emits RFC 3339 so round trips are exact.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"Jan 2, 2006",
}

// dateType holds a single time.Time scalar.
type dateType struct{}

func (dateType) Name() string { return TypeDate }

func (dateType) Validate(v Value, _ Options) error {
	switch v.Kind {
	case KindNull:
		return nil
	case KindList:
		return fmt.Errorf("date cell cannot hold a collection")
	}
	if _, ok := v.Data.(time.Time); !ok {
		return fmt.Errorf("expected date, got %T", v.Data)
	}
	return nil
}

func (dateType) Parse(text string, _ Options) Value {
	if text == "" {
		return Null()
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, text); err == nil {
			return Scalar(t)
		}
	}
	return Null()
}

func (dateType) Format(v Value, opts Options) string {
	t, ok := v.Data.(time.Time)
	if !ok {
		return ""
	}
	layout := opts.DateFormat
	if layout == "" {
		layout = "2006-01-02"
	}
	return t.Format(layout)
}

func (dateType) Serialize(v Value) string {
	t, ok := v.Data.(time.Time)
	if !ok {
		return ""
	}
	return t.Format(time.RFC3339)
}

func (dateType) Compare(a, b Value, _ Options) int {
	if c, done := orderMissing(a, b); done {
		return c
	}
	at, aok := a.Data.(time.Time)
	bt, bok := b.Data.(time.Time)
	if !aok || !bok {
		return compareStringsFold(scalarString(a.Data), scalarString(b.Data))
	}
	switch {
	case at.Before(bt):
		return -1
	case at.After(bt):
		return 1
	}
	return 0
}

func (d dateType) Matches(v Value, filter string, opts Options) bool {
	return containsFold(d.Format(v, opts), filter)
}
