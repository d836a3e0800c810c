package reactive

// Kind discriminates reactive values without structural introspection.
// Every primitive in this package reports its Kind explicitly, so callers
// classifying a bag of values (state fields, getters, actions) never have to
// guess from method sets.
type Kind uint8

const (
	// KindPlain is any value that is not a reactive primitive.
	KindPlain Kind = iota

	// KindCell is a writable observable cell (Signal).
	KindCell

	// KindComputed is a read-only derived computation (Memo).
	KindComputed

	// KindObject is an observable container (Object).
	KindObject
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindCell:
		return "cell"
	case KindComputed:
		return "computed"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Tagged is implemented by every reactive primitive.
type Tagged interface {
	Kind() Kind
}

// Computed is the type-erased read side of a derived computation.
type Computed interface {
	Tagged
	// GetAny returns the value and subscribes the current listener.
	GetAny() any
	// PeekAny returns the value without subscribing.
	PeekAny() any
}

// Cell is the type-erased view of a writable observable cell.
type Cell interface {
	Computed
	// SetAny writes the value. It panics if v is not assignable to the
	// cell's element type.
	SetAny(v any)
	// Accepts reports whether SetAny(v) would succeed.
	Accepts(v any) bool
}

// KindOf returns the Kind of v, KindPlain for non-reactive values.
func KindOf(v any) Kind {
	if t, ok := v.(Tagged); ok {
		return t.Kind()
	}
	return KindPlain
}
