package domain

import "fmt"

// OptFloat is a real value that may be undefined, e.g. a ratio whose
// denominator is zero. It never carries NaN or Inf.
type OptFloat struct {
	Value float64
	Valid bool
}

// Some returns a defined value.
func Some(v float64) OptFloat {
	return OptFloat{Value: v, Valid: true}
}

// None returns an undefined value.
func None() OptFloat {
	return OptFloat{}
}

// Sprintf renders the value with the given verb, or "undefined".
func (o OptFloat) Sprintf(verb string) string {
	if !o.Valid {
		return "undefined"
	}
	return fmt.Sprintf(verb, o.Value)
}

// Ptr returns a pointer to the value or nil when undefined.
// Used by stores with nullable columns.
func (o OptFloat) Ptr() *float64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// FromPtr converts a nullable column value.
func FromPtr(p *float64) OptFloat {
	if p == nil {
		return None()
	}
	return Some(*p)
}
