package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/depot/internal/errors"
)

// LoadSeed reads a hydration seed file: a mapping from store id to that
// store's state. YAML and JSON are both accepted; JSON is parsed as YAML so
// integers stay integers.
func LoadSeed(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E141").
			WithDetail("Cannot read " + path).
			Wrap(err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.New("E141").
			WithDetail("Cannot parse " + path).
			Wrap(err)
	}

	seed := make(map[string]any, len(raw))
	for id, state := range raw {
		m, ok := normalize(state).(map[string]any)
		if !ok {
			return nil, errors.New("E141").
				WithStore(id).
				WithDetail(fmt.Sprintf("state must be a mapping, got %T", state))
		}
		seed[id] = m
	}
	return seed, nil
}

// normalize converts map[any]any values, which yaml produces for
// non-string keys, into map[string]any.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			x[k] = normalize(item)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range x {
			x[i] = normalize(item)
		}
		return x
	default:
		return v
	}
}
