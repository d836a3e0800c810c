package reactive

import (
	"reflect"
	"sort"
	"sync"
)

// Object is an observable container for nested, map-shaped data.
//
// Each field carries its own subscriber list, so a memo reading "n" is not
// invalidated by a write to "label". Nested map[string]any values are wrapped
// into child Objects when they are written; slices and other values are
// stored as-is and replaced wholesale.
//
// A field may hold a Cell. Reads of such a field unwrap the cell and writes
// of a non-cell value go through to it, which lets several Objects share one
// observable value.
//
// The key set is observable too: Has, Keys, Len and reads of missing keys
// subscribe to additions and deletions.
type Object struct {
	id uint64

	// keysBase notifies when keys are added or removed.
	keysBase signalBase

	mu     sync.RWMutex
	keys   []string
	fields map[string]*field
}

// field is a single observable slot in an Object.
type field struct {
	base  signalBase
	value any
}

// NewObject creates an empty Object.
func NewObject() *Object {
	return &Object{
		id:       nextID(),
		keysBase: newSignalBase(),
		fields:   make(map[string]*field),
	}
}

// ObjectFrom creates an Object from a plain map, wrapping nested maps
// recursively. Keys are inserted in sorted order.
func ObjectFrom(m map[string]any) *Object {
	o := NewObject()
	for _, k := range sortedKeys(m) {
		f := &field{base: newSignalBase(), value: wrapValue(m[k])}
		o.fields[k] = f
		o.keys = append(o.keys, k)
	}
	return o
}

// ID returns the unique identifier for this Object.
func (o *Object) ID() uint64 {
	return o.id
}

// Kind reports KindObject.
func (o *Object) Kind() Kind {
	return KindObject
}

// Get returns the value at key, unwrapping cells, and subscribes the current
// listener to that field. Missing keys return nil.
func (o *Object) Get(key string) any {
	v, _ := o.Lookup(key)
	return v
}

// Lookup is Get with a presence flag. A miss subscribes the current listener
// to the key set so a later Set of key notifies it.
func (o *Object) Lookup(key string) (any, bool) {
	o.mu.RLock()
	f, ok := o.fields[key]
	var value any
	if ok {
		value = f.value
	}
	o.mu.RUnlock()

	if !ok {
		o.keysBase.track()
		return nil, false
	}
	f.base.track()
	if c, isComputed := value.(Computed); isComputed {
		return c.GetAny(), true
	}
	return value, true
}

// Peek returns the value at key without subscribing.
func (o *Object) Peek(key string) any {
	o.mu.RLock()
	f, ok := o.fields[key]
	var value any
	if ok {
		value = f.value
	}
	o.mu.RUnlock()

	if c, isComputed := value.(Computed); isComputed {
		return c.PeekAny()
	}
	return value
}

// Raw returns the stored value at key without unwrapping or subscribing.
func (o *Object) Raw(key string) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	f, ok := o.fields[key]
	if !ok {
		return nil, false
	}
	return f.value, true
}

// Has reports whether key is present and subscribes to the key set.
func (o *Object) Has(key string) bool {
	o.keysBase.track()
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.fields[key]
	return ok
}

// Keys returns the keys in insertion order and subscribes to the key set.
func (o *Object) Keys() []string {
	o.keysBase.track()
	o.mu.RLock()
	defer o.mu.RUnlock()
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Len returns the number of keys and subscribes to the key set.
func (o *Object) Len() int {
	o.keysBase.track()
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.keys)
}

// Set writes value at key.
//
// If the field holds a Cell and value is not itself reactive, the write goes
// through to the cell. Otherwise maps are wrapped into Objects and the field
// is replaced; subscribers are notified unless the value is unchanged.
func (o *Object) Set(key string, value any) {
	o.mu.Lock()
	f, ok := o.fields[key]
	if !ok {
		o.fields[key] = &field{base: newSignalBase(), value: wrapValue(value)}
		o.keys = append(o.keys, key)
		o.mu.Unlock()
		o.keysBase.notifySubscribers()
		return
	}

	if cell, isCell := f.value.(Cell); isCell && KindOf(value) != KindCell && KindOf(value) != KindComputed {
		o.mu.Unlock()
		cell.SetAny(value)
		return
	}

	value = wrapValue(value)
	if sameValue(f.value, value) {
		o.mu.Unlock()
		return
	}
	f.value = value
	o.mu.Unlock()

	f.base.notifySubscribers()
}

// Delete removes key. Subscribers of the field and of the key set are
// notified.
func (o *Object) Delete(key string) {
	o.mu.Lock()
	f, ok := o.fields[key]
	if !ok {
		o.mu.Unlock()
		return
	}
	delete(o.fields, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	o.mu.Unlock()

	f.base.notifySubscribers()
	o.keysBase.notifySubscribers()
}

// Merge recursively merges partial into o. A nested map merges key by key
// into an existing nested Object; every other value (slices, scalars,
// structs, maps over missing or non-object fields) replaces the field.
func (o *Object) Merge(partial map[string]any) {
	for _, k := range sortedKeys(partial) {
		sub := partial[k]
		if subMap, ok := sub.(map[string]any); ok {
			if raw, exists := o.Raw(k); exists {
				if nested, isObject := raw.(*Object); isObject {
					nested.Merge(subMap)
					continue
				}
			}
		}
		o.Set(k, sub)
	}
}

// Assign sets every top-level key of m on o. Keys of o missing from m are
// left untouched.
func (o *Object) Assign(m map[string]any) {
	for _, k := range sortedKeys(m) {
		o.Set(k, m[k])
	}
}

// Snapshot returns a deep plain copy of o without subscribing. Cells and
// computeds are replaced by their current values.
func (o *Object) Snapshot() map[string]any {
	o.mu.RLock()
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	values := make([]any, len(keys))
	for i, k := range keys {
		values[i] = o.fields[k].value
	}
	o.mu.RUnlock()

	out := make(map[string]any, len(keys))
	for i, k := range keys {
		out[k] = snapshotValue(values[i])
	}
	return out
}

// Track reads every field of o and of its nested Objects and cells,
// subscribing the current listener to all of them. Deep watchers call it
// from inside an effect.
func (o *Object) Track() {
	o.keysBase.track()

	o.mu.RLock()
	fields := make([]*field, 0, len(o.keys))
	for _, k := range o.keys {
		fields = append(fields, o.fields[k])
	}
	o.mu.RUnlock()

	for _, f := range fields {
		f.base.track()
		o.mu.RLock()
		value := f.value
		o.mu.RUnlock()
		trackValue(value)
	}
}

func trackValue(v any) {
	switch x := v.(type) {
	case *Object:
		x.Track()
	case Computed:
		trackValue(x.GetAny())
	case []any:
		for _, item := range x {
			trackValue(item)
		}
	}
}

func snapshotValue(v any) any {
	switch x := v.(type) {
	case *Object:
		return x.Snapshot()
	case Computed:
		return snapshotValue(x.PeekAny())
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = snapshotValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = snapshotValue(item)
		}
		return out
	default:
		return v
	}
}

// wrapValue converts plain maps into Objects.
func wrapValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		return ObjectFrom(m)
	}
	return v
}

// sameValue reports whether writing b over a is a no-op. Only scalars and
// identical pointers compare equal; composite values always count as a change.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	switch ta.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.String,
		reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return a == b
	default:
		return false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ Tagged = (*Object)(nil)
