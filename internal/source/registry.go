package source

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/civicspend/disclosure-cli/internal/config"
)

// Registry holds the configured source adapters keyed by name.
type Registry struct {
	sources map[string]Source
}

// NewRegistry builds all four adapters from config.
func NewRegistry(cfg *config.Config, deps Deps) *Registry {
	r := &Registry{sources: make(map[string]Source)}
	for _, s := range []Source{
		NewFEC(cfg.FEC, deps),
		NewLobbying(cfg.Lobbying, deps),
		NewGrants(cfg.Grants, deps),
		NewFilings(cfg.Filings, deps),
	} {
		r.sources[s.Name()] = s
	}
	return r
}

// Get returns the named source.
func (r *Registry) Get(name string) (Source, error) {
	s, ok := r.sources[name]
	if !ok {
		return nil, eris.Errorf("source: unknown source %q (valid: %v)", name, r.Names())
	}
	return s, nil
}

// Names returns all registered source names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select resolves a list of requested names, or all sources when the list
// is empty.
func (r *Registry) Select(names []string) ([]Source, error) {
	if len(names) == 0 {
		all := make([]Source, 0, len(r.sources))
		for _, name := range r.Names() {
			all = append(all, r.sources[name])
		}
		return all, nil
	}

	selected := make([]Source, 0, len(names))
	for _, name := range names {
		s, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, s)
	}
	return selected, nil
}
