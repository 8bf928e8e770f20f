package vocab

import (
	"fmt"
	"maps"
	"slices"
)

// FactoryFunc builds a vocabulary from options and a backend.
type FactoryFunc func(opts Options, backend Backend) (*Vocabulary, error)

// Registry maps a vocabulary type name to the factory that creates it.
var Registry = map[string]FactoryFunc{}

// Register adds a factory under name, replacing any previous one.
func Register(name string, factory FactoryFunc) {
	Registry[name] = factory
}

// Build creates a vocabulary with the factory registered as name.
func Build(name string, opts Options, backend Backend) (*Vocabulary, error) {
	factory, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown vocabulary type %q (registered: %v)", ErrConfiguration, name, Names())
	}
	return factory(opts, backend)
}

// Names returns the registered type names, sorted.
func Names() []string {
	return slices.Sorted(maps.Keys(Registry))
}

// DefaultType is the name New is registered under.
const DefaultType = "default_vocab"

func init() {
	Register(DefaultType, New)
}
