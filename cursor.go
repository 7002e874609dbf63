package pagereader

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
)

var _encoder = base64.RawURLEncoding

// Cursor is the last-seen sort key tuple: the stream resumes strictly after
// the row it was taken from. A nil or empty Cursor means "from the start".
//
// Elements always follow the SortKeys order:
//
//	[(C1, V1), (C2, V2)... (Cn, Vn)]
type Cursor struct {
	elements []CursorElement
}

// CursorElement is one (column, last value) pair of a Cursor.
type CursorElement struct {
	Column string `json:"c"`
	Value  any    `json:"v"`
}

const cursorTypeTime = "time"

// cursorElementJSON is the checkpoint form of a CursorElement. Type tags the
// values JSON cannot tell apart from a string.
type cursorElementJSON struct {
	Column string `json:"c"`
	Value  any    `json:"v"`
	Type   string `json:"t,omitempty"`
}

func NewCursor(elements ...CursorElement) *Cursor {
	return &Cursor{
		elements: elements,
	}
}

// cursorFromValues zips sort key columns with one row's values.
func cursorFromValues(keys SortKeys, values []any) (*Cursor, error) {
	if len(values) != len(keys) {
		return nil, fmt.Errorf("expected %d sort key values, got %d", len(keys), len(values))
	}

	return &Cursor{
		elements: lo.Map(keys, func(k SortKey, i int) CursorElement {
			return CursorElement{Column: k.Column, Value: values[i]}
		}),
	}, nil
}

// DecodeCursor parses a string produced by Cursor.String. An empty string
// decodes to a nil cursor.
func DecodeCursor(b64String string) (*Cursor, error) {
	if len(b64String) == 0 {
		return nil, nil
	}

	jsonData, err := _encoder.DecodeString(b64String)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 encoded cursor: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()

	var raw []cursorElementJSON
	if err = dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json encoded cursor: %w", err)
	}

	elems := make([]CursorElement, 0, len(raw))
	for _, e := range raw {
		v, err := parseAnyValue(e.Value, e.Type)
		if err != nil {
			return nil, fmt.Errorf("cursor column '%s': %w", e.Column, err)
		}
		elems = append(elems, CursorElement{Column: e.Column, Value: v})
	}

	return &Cursor{
		elements: elems,
	}, nil
}

// parseAnyValue restores the bind type a value lost in JSON: integral numbers
// become int64, other numbers float64. Strings stay strings unless tagged.
func parseAnyValue(v any, typ string) (any, error) {
	switch vt := v.(type) {
	case json.Number:
		if i, err := vt.Int64(); err == nil {
			return i, nil
		}
		if f, err := vt.Float64(); err == nil {
			return f, nil
		}

		return vt.String(), nil
	case string:
		if typ != cursorTypeTime {
			return vt, nil
		}

		dst := time.Time{}
		if err := dst.UnmarshalText([]byte(vt)); err != nil {
			return nil, fmt.Errorf("invalid time value: %w", err)
		}

		return dst, nil
	default:
		return v, nil
	}
}

// String - implements fmt.Stringer. Returns the checkpoint form of the cursor.
func (c *Cursor) String() string {
	if c.IsEmpty() {
		return ""
	}

	jTok, err := json.Marshal(lo.Map(c.elements, func(e CursorElement, _ int) cursorElementJSON {
		ret := cursorElementJSON{Column: e.Column, Value: e.Value}
		if _, ok := e.Value.(time.Time); ok {
			ret.Type = cursorTypeTime
		}
		return ret
	}))
	if err != nil {
		panic(fmt.Errorf("cannot marshal cursor value: %w", err))
	}

	return _encoder.EncodeToString(jTok)
}

func (c *Cursor) IsEmpty() bool {
	return c == nil || len(c.elements) == 0
}

// Elements returns the cursor elements in sort key order.
func (c *Cursor) Elements() []CursorElement {
	if c == nil {
		return nil
	}

	return c.elements
}

// Values returns the last-seen values in sort key order.
func (c *Cursor) Values() []any {
	if c == nil {
		return nil
	}

	return lo.Map(c.elements, func(e CursorElement, _ int) any { return e.Value })
}

// Value returns the last-seen value of column.
func (c *Cursor) Value(column string) (any, bool) {
	e, ok := lo.Find(c.Elements(), func(e CursorElement) bool { return e.Column == column })

	return e.Value, ok
}

// validate checks that the cursor describes a position in keys' order.
func (c *Cursor) validate(keys SortKeys) error {
	if c.IsEmpty() {
		return nil
	}

	if len(c.elements) != len(keys) {
		return fmt.Errorf("cursor column number mismatch")
	}

	for i := range c.elements {
		if c.elements[i].Column != keys[i].Column {
			return fmt.Errorf("unexpected cursor column '%s'", c.elements[i].Column)
		}
	}

	return nil
}

var _ fmt.Stringer = (*Cursor)(nil)
