// Package config implements the path-addressable parameter tree described
// in spec.md §6 ("Persisted state"): a dotted-key tree, decodable per path,
// keyed by a (body_id, head_id) identity pair for per-robot specialization.
package config

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// ErrNotFound indicates a dotted path has no value in the tree.
var ErrNotFound = errors.New("config: path not found")

// Identity keys a parameter tree to a specific robot body/head pair, per
// spec.md §6.
type Identity struct {
	BodyID string
	HeadID string
}

// Tree is a path-addressable, dotted-key parameter tree. The zero value is
// an empty, usable tree.
type Tree struct {
	Identity Identity
	root     map[string]interface{}
}

// NewTree constructs a Tree for the given identity from a nested map, as
// would be produced by a YAML/JSON parse (file format parsing itself is out
// of scope, per spec.md §1).
func NewTree(id Identity, root map[string]interface{}) *Tree {
	if root == nil {
		root = map[string]interface{}{}
	}
	return &Tree{Identity: id, root: root}
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Get returns the raw value at a dotted path.
func (t *Tree) Get(path string) (interface{}, bool) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return t.root, true
	}
	cur := interface{}(t.root)
	for _, seg := range segs {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set assigns a raw value at a dotted path, creating intermediate maps as
// needed.
func (t *Tree) Set(path string, value interface{}) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return
	}
	if t.root == nil {
		t.root = map[string]interface{}{}
	}
	m := t.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := m[seg].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			m[seg] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = value
}

// Decode decodes the value at a dotted path into out, using mapstructure's
// weakly-typed decoding so int/float/string parameter values from a parsed
// config file land in the right Go field regardless of source
// representation.
func (t *Tree) Decode(path string, out interface{}) error {
	raw, ok := t.Get(path)
	if !ok {
		return errors.Wrapf(ErrNotFound, "path %q", path)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "config",
	})
	if err != nil {
		return errors.Wrap(err, "building decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return errors.Wrapf(err, "decoding path %q", path)
	}
	return nil
}

// Walk invokes fn for every leaf (non-map) value in the tree, with its full
// dotted path. Used by introspection tooling (out of core scope, §6).
func (t *Tree) Walk(fn func(path string, value interface{})) {
	walk(t.root, nil, fn)
}

func walk(m map[string]interface{}, prefix []string, fn func(string, interface{})) {
	for k, v := range m {
		path := append(append([]string{}, prefix...), k)
		if sub, ok := v.(map[string]interface{}); ok {
			walk(sub, path, fn)
			continue
		}
		fn(strings.Join(path, "."), v)
	}
}
