package datagrid

import "github.com/tablekit/go-datagrid/celltype"

// PinSide fixes a column to one edge of the viewport.
type PinSide string

const (
	PinNone  PinSide = ""
	PinLeft  PinSide = "left"
	PinRight PinSide = "right"
)

// Column describes one column of the grid. ID is unique and stable; the
// slice order of columns in the store is the display order.
type Column struct {
	ID      string           `json:"id" yaml:"id"`
	Title   string           `json:"title" yaml:"title"`
	Type    string           `json:"type" yaml:"type"`
	Width   int              `json:"width,omitempty" yaml:"width,omitempty"`
	Hidden  bool             `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Pinned  PinSide          `json:"pinned,omitempty" yaml:"pinned,omitempty"`
	Options celltype.Options `json:"options,omitempty" yaml:"options,omitempty"`
}

// ColumnPatch is a partial column update; nil fields are left untouched.
type ColumnPatch struct {
	Title   *string           `json:"title,omitempty"`
	Type    *string           `json:"type,omitempty"`
	Width   *int              `json:"width,omitempty"`
	Hidden  *bool             `json:"hidden,omitempty"`
	Pinned  *PinSide          `json:"pinned,omitempty"`
	Options *celltype.Options `json:"options,omitempty"`
}

func (c *Column) apply(patch ColumnPatch) {
	if patch.Title != nil {
		c.Title = *patch.Title
	}
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	if patch.Width != nil {
		c.Width = *patch.Width
	}
	if patch.Hidden != nil {
		c.Hidden = *patch.Hidden
	}
	if patch.Pinned != nil {
		c.Pinned = *patch.Pinned
	}
	if patch.Options != nil {
		c.Options = *patch.Options
	}
}

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// String returns the wire spelling of the direction.
func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// SortKey is one entry of a sort state.
type SortKey struct {
	ColumnID  string    `json:"columnId" yaml:"column_id"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// SortState is an ordered multi-column sort: the first key is the primary
// order, later keys break ties.
type SortState []SortKey

// Equal reports whether two sort states are identical.
func (s SortState) Equal(o SortState) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s SortState) clone() SortState {
	if s == nil {
		return nil
	}
	out := make(SortState, len(s))
	copy(out, s)
	return out
}
