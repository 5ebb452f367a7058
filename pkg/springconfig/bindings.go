// Package springconfig reads the layered YAML configuration convention the
// tracked services deploy with: nested maps merged across sources, values
// referencing other values through ${key} expressions with optional
// ":default" fallbacks, and a running service's /env endpoint exposing the
// flattened result.
package springconfig

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var expressionRe = regexp.MustCompile(`\$\{([._a-zA-Z0-9]+)(:[^}]*)?\}`)

// Bindings is a merged view over configuration sources. Later imports win on
// conflicts, merging map-by-map rather than replacing whole subtrees.
type Bindings struct {
	values map[string]interface{}
}

func NewBindings() *Bindings {
	return &Bindings{values: map[string]interface{}{}}
}

// Map exposes the raw merged values, unresolved.
func (b *Bindings) Map() map[string]interface{} {
	return b.values
}

// ImportMap merges m into the bindings.
func (b *Bindings) ImportMap(m map[string]interface{}) {
	for name, value := range m {
		mergeField(b.values, name, value)
	}
}

// ImportString merges a YAML document into the bindings.
func (b *Bindings) ImportString(doc string) error {
	var m map[string]interface{}
	if err := yaml.Unmarshal([]byte(doc), &m); err != nil {
		return errors.Wrap(err, "could not parse YAML bindings")
	}
	b.ImportMap(m)
	return nil
}

// ImportPath merges a YAML file into the bindings.
func (b *Bindings) ImportPath(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "could not read bindings from %s", path)
	}
	return errors.WithMessagef(b.ImportString(string(raw)), "in %s", path)
}

func mergeField(container map[string]interface{}, name string, value interface{}) {
	next, isMap := value.(map[string]interface{})
	if !isMap {
		container[name] = value
		return
	}
	existing, ok := container[name].(map[string]interface{})
	if !ok {
		container[name] = value
		return
	}
	for childName, childValue := range next {
		mergeField(existing, childName, childValue)
	}
}

// Get looks up a dotted field and resolves any ${key:default} expressions in
// string values. Missing fields and reference cycles are errors; references
// that dangle without a default resolve to their literal expression text.
func (b *Bindings) Get(field string) (interface{}, error) {
	return b.resolve(field, nil, field)
}

// GetString is Get for fields expected to hold text.
func (b *Bindings) GetString(field string) (string, error) {
	value, err := b.Get(field)
	if err != nil {
		return "", err
	}
	if s, ok := value.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", value), nil
}

// node finds a field either as a literal (possibly dotted) key or by
// navigating nested maps. Scraped property sources use flat dotted keys;
// YAML files nest.
func (b *Bindings) node(field string) (interface{}, bool) {
	if value, ok := b.values[field]; ok {
		return value, true
	}
	var value interface{} = b.values
	start := 0
	for i := 0; i <= len(field); i++ {
		if i != len(field) && field[i] != '.' {
			continue
		}
		container, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		value, ok = container[field[start:i]]
		if !ok {
			return nil, false
		}
		start = i + 1
	}
	return value, true
}

func (b *Bindings) resolve(field string, saw []string, original string) (interface{}, error) {
	value, ok := b.node(field)
	if !ok {
		return nil, errors.Errorf("no binding for %q", field)
	}
	text, isString := value.(string)
	if !isString {
		return value, nil
	}

	for _, prior := range saw {
		if prior == field {
			return nil, cycleError(original)
		}
	}
	saw = append(saw, field)

	// A value that is exactly one expression resolves to the referenced
	// value, preserving its type.
	if m := expressionRe.FindStringSubmatch(text); m != nil && m[0] == text {
		got, err := b.resolve(m[1], saw, original)
		if err == nil {
			return got, nil
		}
		if isCycle(err) {
			return nil, err
		}
		if m[2] != "" {
			return m[2][1:], nil
		}
		return text, nil
	}

	var resolveErr error
	out := expressionRe.ReplaceAllFunc([]byte(text), func(match []byte) []byte {
		m := expressionRe.FindStringSubmatch(string(match))
		got, err := b.resolve(m[1], saw, original)
		if err == nil {
			return []byte(fmt.Sprintf("%v", got))
		}
		if isCycle(err) {
			resolveErr = err
		}
		if m[2] != "" {
			return []byte(m[2][1:])
		}
		return match
	})
	if resolveErr != nil {
		return nil, resolveErr
	}
	return string(out), nil
}

type cycleError string

func (e cycleError) Error() string {
	return fmt.Sprintf("cycle resolving %q", string(e))
}

func isCycle(err error) bool {
	_, ok := err.(cycleError)
	return ok
}
