package store

import (
	"reflect"
	"strings"
)

// toStateMap converts the result of a state initializer into a map. plain is
// false when v was not a map[string]any (or nil); structs and pointers to
// structs are converted through their exported fields, honoring json tag
// names, and anything else becomes empty state.
func toStateMap(v any) (m map[string]any, plain bool) {
	switch x := v.(type) {
	case nil:
		return map[string]any{}, true
	case map[string]any:
		return x, true
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]any{}, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return map[string]any{}, false
	}
	return structToMap(rv), false
}

func structToMap(rv reflect.Value) map[string]any {
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}

		fv := rv.Field(i)
		if fv.Kind() == reflect.Struct {
			out[name] = structToMap(fv)
			continue
		}
		out[name] = fv.Interface()
	}
	return out
}
