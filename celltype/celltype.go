// Package celltype defines per-column cell semantics: a named descriptor
// bundles validation, parsing, formatting, serialization, comparison and
// filter matching for one kind of cell value. Descriptors are resolved
// through an explicitly constructed Registry; columns refer to descriptors
// by name only.
package celltype

// Built-in type names. A column's declared type is one of these strings
// (or any name registered by the embedding application).
const (
	TypeText        = "text"
	TypeNumber      = "number"
	TypeCurrency    = "currency"
	TypeDate        = "date"
	TypeCheckbox    = "checkbox"
	TypeSelect      = "select"
	TypeMultiSelect = "multiselect"
	TypeEmail       = "email"
	TypeURL         = "url"
	TypePhone       = "phone"
	TypeProgress    = "progress"
	TypeRating      = "rating"
	TypeTags        = "tags"
	TypeReference   = "reference"
	TypeJSON        = "json"
	TypeAction      = "action"
)

// Type is the descriptor contract governing one column's cell semantics.
// Implementations must be stateless and safe for concurrent use; all
// per-column configuration arrives through Options.
//
// Compare must define a total order for the type, placing missing values
// after present ones regardless of sort direction (direction negation is
// applied by the sort engine to present-vs-present results only).
type Type interface {
	// Name returns the registered type name.
	Name() string

	// Validate reports whether v is acceptable for this type. A nil return
	// means valid; otherwise the error carries the rejection reason. The
	// null value is always valid.
	Validate(v Value, opts Options) error

	// Parse converts user-entered text into a value, returning the null
	// value when the text is empty or cannot be interpreted.
	Parse(text string, opts Options) Value

	// Format renders v as display text.
	Format(v Value, opts Options) string

	// Serialize renders v as canonical text such that Parse(Serialize(v))
	// is equivalent to v for every value accepted by Validate.
	Serialize(v Value) string

	// Compare orders a against b: negative if a sorts before b, positive
	// if after, zero if equal.
	Compare(a, b Value, opts Options) int

	// Matches reports whether v satisfies a free-text filter.
	Matches(v Value, filter string, opts Options) bool
}

// Choice is one selectable option of a select or multi-select column.
type Choice struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Ref is a link to another record, carrying the identifier and a display
// name so references render without a lookup.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Options carries per-column configuration consumed by descriptors.
// Fields are interpreted only by the types that document them; unknown
// fields are ignored.
type Options struct {
	// Precision is the number of decimal places Format emits for number
	// and currency values. Negative means shortest representation.
	Precision int `json:"precision,omitempty" yaml:"precision,omitempty"`

	// Min and Max bound number and progress values when non-nil.
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// Currency is the symbol prefixed by the currency formatter.
	Currency string `json:"currency,omitempty" yaml:"currency,omitempty"`

	// DateFormat is the Go layout used to format date values.
	DateFormat string `json:"dateFormat,omitempty" yaml:"date_format,omitempty"`

	// Choices enumerates the options of select and multi-select columns.
	Choices []Choice `json:"choices,omitempty" yaml:"choices,omitempty"`

	// MaxRating is the scale of a rating column (default 5).
	MaxRating int `json:"maxRating,omitempty" yaml:"max_rating,omitempty"`

	// Multiple allows a reference column to hold several links.
	Multiple bool `json:"multiple,omitempty" yaml:"multiple,omitempty"`
}

// DefaultOptions returns Options with the documented defaults filled in.
func DefaultOptions() Options {
	return Options{Precision: -1, Currency: "$", DateFormat: "2006-01-02", MaxRating: 5}
}

// orderMissing resolves the ordering of a pair when at least one side is
// missing. The second return is false when both values are present and the
// type's own comparison must decide.
func orderMissing(a, b Value) (int, bool) {
	switch {
	case a.IsNull() && b.IsNull():
		return 0, true
	case a.IsNull():
		return 1, true
	case b.IsNull():
		return -1, true
	}
	return 0, false
}
