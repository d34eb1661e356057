package celltype

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// numberType holds a single float64 scalar, optionally bounded by
// Options.Min/Max.
type numberType struct{}

func (numberType) Name() string { return TypeNumber }

func (numberType) Validate(v Value, opts Options) error {
	return validateNumeric(v, opts, "number")
}

func (numberType) Parse(text string, _ Options) Value {
	return parseNumber(text)
}

func (numberType) Format(v Value, opts Options) string {
	if v.IsNull() {
		return ""
	}
	f, ok := v.AsFloat()
	if !ok {
		return scalarString(v.Data)
	}
	return strconv.FormatFloat(f, 'f', precisionOf(opts), 64)
}

func (numberType) Serialize(v Value) string { return serializeNumber(v) }

func (numberType) Compare(a, b Value, _ Options) int { return compareNumeric(a, b) }

func (n numberType) Matches(v Value, filter string, opts Options) bool {
	return containsFold(n.Format(v, opts), filter)
}

// currencyType is a number formatted with a currency symbol and thousand
// separators. Stored payload and canonical text are plain numbers.
type currencyType struct{}

func (currencyType) Name() string { return TypeCurrency }

func (currencyType) Validate(v Value, opts Options) error {
	return validateNumeric(v, opts, "currency amount")
}

func (currencyType) Parse(text string, opts Options) Value {
	text = strings.TrimPrefix(strings.TrimSpace(text), currencySymbol(opts))
	return parseNumber(text)
}

func (currencyType) Format(v Value, opts Options) string {
	if v.IsNull() {
		return ""
	}
	f, ok := v.AsFloat()
	if !ok {
		return scalarString(v.Data)
	}
	prec := precisionOf(opts)
	if prec < 0 {
		prec = 2
	}
	text := strconv.FormatFloat(f, 'f', prec, 64)
	return currencySymbol(opts) + groupThousands(text)
}

func (currencyType) Serialize(v Value) string { return serializeNumber(v) }

func (currencyType) Compare(a, b Value, _ Options) int { return compareNumeric(a, b) }

func (c currencyType) Matches(v Value, filter string, opts Options) bool {
	return containsFold(c.Format(v, opts), filter)
}

// progressType is a ratio in [0, 1] rendered as a percentage.
type progressType struct{}

func (progressType) Name() string { return TypeProgress }

func (progressType) Validate(v Value, _ Options) error {
	if v.IsNull() {
		return nil
	}
	f, ok := v.AsFloat()
	if !ok {
		return fmt.Errorf("expected progress ratio, got %T", v.Data)
	}
	if math.IsNaN(f) || f < 0 || f > 1 {
		return fmt.Errorf("progress %v outside [0, 1]", f)
	}
	return nil
}

func (progressType) Parse(text string, _ Options) Value {
	text = strings.TrimSpace(text)
	percent := strings.HasSuffix(text, "%")
	v := parseNumber(strings.TrimSuffix(text, "%"))
	if v.IsNull() {
		return v
	}
	f, _ := v.AsFloat()
	if percent {
		f /= 100
	}
	return Scalar(f)
}

func (progressType) Format(v Value, _ Options) string {
	if v.IsNull() {
		return ""
	}
	f, ok := v.AsFloat()
	if !ok {
		return scalarString(v.Data)
	}
	return strconv.FormatFloat(f*100, 'f', 0, 64) + "%"
}

func (progressType) Serialize(v Value) string { return serializeNumber(v) }

func (progressType) Compare(a, b Value, _ Options) int { return compareNumeric(a, b) }

func (p progressType) Matches(v Value, filter string, opts Options) bool {
	return containsFold(p.Format(v, opts), filter)
}

// ratingType is an integral star count from 0 to Options.MaxRating.
type ratingType struct{}

func (ratingType) Name() string { return TypeRating }

func (ratingType) Validate(v Value, opts Options) error {
	if v.IsNull() {
		return nil
	}
	f, ok := v.AsFloat()
	if !ok {
		return fmt.Errorf("expected rating, got %T", v.Data)
	}
	if f != float64(int(f)) {
		return fmt.Errorf("rating %v is not integral", f)
	}
	if max := maxRating(opts); f < 0 || f > float64(max) {
		return fmt.Errorf("rating %v outside [0, %d]", f, max)
	}
	return nil
}

func (ratingType) Parse(text string, opts Options) Value {
	v := parseNumber(strings.TrimSpace(text))
	if v.IsNull() {
		// Accept a run of stars as entered text.
		if n := strings.Count(text, "★"); n > 0 {
			return Scalar(float64(n))
		}
		return v
	}
	return v
}

func (ratingType) Format(v Value, opts Options) string {
	if v.IsNull() {
		return ""
	}
	f, ok := v.AsFloat()
	if !ok {
		return scalarString(v.Data)
	}
	max := maxRating(opts)
	n := int(f)
	if n < 0 {
		n = 0
	}
	if n > max {
		n = max
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", max-n)
}

func (ratingType) Serialize(v Value) string { return serializeNumber(v) }

func (ratingType) Compare(a, b Value, _ Options) int { return compareNumeric(a, b) }

func (r ratingType) Matches(v Value, filter string, opts Options) bool {
	if v.IsNull() {
		return filter == ""
	}
	f, _ := v.AsFloat()
	return containsFold(strconv.FormatFloat(f, 'f', -1, 64), filter)
}

func validateNumeric(v Value, opts Options, what string) error {
	switch v.Kind {
	case KindNull:
		return nil
	case KindList:
		return fmt.Errorf("%s cell cannot hold a collection", what)
	}
	f, ok := v.AsFloat()
	if !ok {
		return fmt.Errorf("expected %s, got %T", what, v.Data)
	}
	// NaN and the infinities have no place in the column's total order.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%s must be finite, got %v", what, f)
	}
	if opts.Min != nil && f < *opts.Min {
		return fmt.Errorf("%v below minimum %v", f, *opts.Min)
	}
	if opts.Max != nil && f > *opts.Max {
		return fmt.Errorf("%v above maximum %v", f, *opts.Max)
	}
	return nil
}

func parseNumber(text string) Value {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if text == "" {
		return Null()
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Null()
	}
	return Scalar(f)
}

func serializeNumber(v Value) string {
	if v.IsNull() {
		return ""
	}
	f, ok := v.AsFloat()
	if !ok {
		return scalarString(v.Data)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func compareNumeric(a, b Value) int {
	if c, done := orderMissing(a, b); done {
		return c
	}
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if !aok || !bok {
		return compareStringsFold(scalarString(a.Data), scalarString(b.Data))
	}
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	return 0
}

func precisionOf(opts Options) int {
	if opts.Precision <= 0 {
		return -1
	}
	return opts.Precision
}

func currencySymbol(opts Options) string {
	if opts.Currency == "" {
		return "$"
	}
	return opts.Currency
}

func maxRating(opts Options) int {
	if opts.MaxRating <= 0 {
		return 5
	}
	return opts.MaxRating
}

// groupThousands inserts comma separators into the integer part of a
// non-negative or negative decimal string.
func groupThousands(text string) string {
	sign := ""
	if strings.HasPrefix(text, "-") {
		sign, text = "-", text[1:]
	}
	intPart, frac := text, ""
	if i := strings.IndexByte(text, '.'); i >= 0 {
		intPart, frac = text[:i], text[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}
