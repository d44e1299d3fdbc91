package config

// Bounds constrains a single updatable integer game setting.
// Settings updates arriving over the wire are validated field by field;
// a value outside its bounds is dropped, not clamped.
type Bounds struct {
	Min int
	Max int
}

// OK reports whether v is within the bounds (inclusive).
func (b Bounds) OK(v int) bool {
	return v >= b.Min && v <= b.Max
}
