package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Patch is a partial form update. Keys absent from the patch keep their
// previous values when applied.
type Patch map[Field]any

// Apply merges p into d. The merge is all-or-nothing: if any key is
// unknown or carries a value of the wrong type, d is left unchanged and
// ErrInvalidPatch is returned.
func (d *FormData) Apply(p Patch) error {
	next := *d
	for f, v := range p {
		if err := next.set(f, v); err != nil {
			return err
		}
	}
	*d = next
	return nil
}

// Merged returns a copy of d with p applied.
func (d FormData) Merged(p Patch) (FormData, error) {
	err := d.Apply(p)
	return d, err
}

// set assigns a single field.
func (d *FormData) set(f Field, v any) error {
	if f == FieldDependents {
		n, err := toInt(v)
		if err != nil {
			return ErrInvalidPatch.WithDetails(fmt.Sprintf("%s: %v", f, err))
		}
		d.Dependents = n
		return nil
	}

	p := d.text(f)
	if p == nil {
		return ErrInvalidPatch.WithDetails(fmt.Sprintf("unknown field %q", f))
	}
	switch s := v.(type) {
	case string:
		*p = s
	case nil:
		*p = ""
	default:
		return ErrInvalidPatch.WithDetails(fmt.Sprintf("%s: expected string, got %T", f, v))
	}
	return nil
}

// toInt converts JSON-ish numeric values to an int.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected whole number, got %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("expected whole number, got %q", n.String())
		}
		return int(i), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("expected whole number, got %q", n)
		}
		return i, nil
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

// ParseAssignment parses a FIELD=VALUE pair into a single-entry patch.
func ParseAssignment(s string) (Patch, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return nil, ErrInvalidPatch.WithDetails(fmt.Sprintf("expected FIELD=VALUE, got %q", s))
	}
	f := Field(strings.TrimSpace(key))
	if !f.Valid() {
		return nil, ErrInvalidPatch.WithDetails(fmt.Sprintf("unknown field %q", key))
	}
	return Patch{f: value}, nil
}
