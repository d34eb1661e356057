package celltype

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

// textType is the default descriptor: free text with case-insensitive
// ordering. It also backs resolution of unknown type names.
type textType struct {
	name string
}

func (t textType) Name() string { return t.name }

func (textType) Validate(v Value, _ Options) error {
	switch v.Kind {
	case KindNull:
		return nil
	case KindScalar:
		s, ok := v.AsString()
		if !ok {
			return fmt.Errorf("expected text, got %T", v.Data)
		}
		// Empty text does not survive serialization; the missing value does.
		if s == "" {
			return fmt.Errorf("empty text; use a null value instead")
		}
		return nil
	case KindList:
		return fmt.Errorf("text cell cannot hold a collection")
	}
	return fmt.Errorf("unknown value kind %d", v.Kind)
}

func (textType) Parse(text string, _ Options) Value {
	if text == "" {
		return Null()
	}
	return Scalar(text)
}

func (textType) Format(v Value, _ Options) string {
	if v.IsNull() {
		return ""
	}
	if s, ok := v.AsString(); ok {
		return s
	}
	return scalarString(v.Data)
}

func (textType) Serialize(v Value) string {
	if v.IsNull() {
		return ""
	}
	return scalarString(v.Data)
}

func (t textType) Compare(a, b Value, _ Options) int {
	if c, done := orderMissing(a, b); done {
		return c
	}
	as, bs := scalarString(a.Data), scalarString(b.Data)
	if c := compareStringsFold(as, bs); c != 0 {
		return c
	}
	return strings.Compare(as, bs)
}

func (t textType) Matches(v Value, filter string, opts Options) bool {
	return containsFold(t.Format(v, opts), filter)
}

// emailType is text whose values must be a single address.
type emailType struct{}

func (emailType) Name() string { return TypeEmail }

func (emailType) Validate(v Value, opts Options) error {
	if err := (textType{}).Validate(v, opts); err != nil {
		return err
	}
	if v.IsNull() {
		return nil
	}
	s, _ := v.AsString()
	if _, err := mail.ParseAddress(s); err != nil {
		return fmt.Errorf("invalid email address %q", s)
	}
	return nil
}

func (emailType) Parse(text string, opts Options) Value      { return textType{}.Parse(text, opts) }
func (emailType) Format(v Value, opts Options) string        { return textType{}.Format(v, opts) }
func (emailType) Serialize(v Value) string                   { return textType{}.Serialize(v) }
func (emailType) Compare(a, b Value, opts Options) int       { return textType{}.Compare(a, b, opts) }
func (e emailType) Matches(v Value, f string, o Options) bool {
	return containsFold(e.Format(v, o), f)
}

// urlType is text whose values must parse as an absolute URL.
type urlType struct{}

func (urlType) Name() string { return TypeURL }

func (urlType) Validate(v Value, opts Options) error {
	if err := (textType{}).Validate(v, opts); err != nil {
		return err
	}
	if v.IsNull() {
		return nil
	}
	s, _ := v.AsString()
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid URL %q", s)
	}
	return nil
}

func (urlType) Parse(text string, opts Options) Value  { return textType{}.Parse(text, opts) }
func (urlType) Format(v Value, opts Options) string    { return textType{}.Format(v, opts) }
func (urlType) Serialize(v Value) string               { return textType{}.Serialize(v) }
func (urlType) Compare(a, b Value, opts Options) int   { return textType{}.Compare(a, b, opts) }
func (u urlType) Matches(v Value, f string, o Options) bool {
	return containsFold(u.Format(v, o), f)
}

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\-().\s]{2,}$`)

// phoneType is text restricted to phone-number characters.
type phoneType struct{}

func (phoneType) Name() string { return TypePhone }

func (phoneType) Validate(v Value, opts Options) error {
	if err := (textType{}).Validate(v, opts); err != nil {
		return err
	}
	if v.IsNull() {
		return nil
	}
	s, _ := v.AsString()
	if !phonePattern.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("invalid phone number %q", s)
	}
	return nil
}

func (phoneType) Parse(text string, opts Options) Value { return textType{}.Parse(text, opts) }
func (phoneType) Format(v Value, opts Options) string   { return textType{}.Format(v, opts) }
func (phoneType) Serialize(v Value) string              { return textType{}.Serialize(v) }
func (phoneType) Compare(a, b Value, opts Options) int  { return textType{}.Compare(a, b, opts) }
func (p phoneType) Matches(v Value, f string, o Options) bool {
	return containsFold(p.Format(v, o), f)
}

func containsFold(s, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
