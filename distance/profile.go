package distance

import (
	"maps"
	"slices"
)

// Profiles maps a context name (for example "visual" or "culinary") to the
// weight snapshot used when similarity is judged in that context.
type Profiles struct {
	m map[string]*Weights
}

// NewProfiles returns an empty profile set.
func NewProfiles() *Profiles {
	return &Profiles{m: make(map[string]*Weights)}
}

// With returns a copy of p with name bound to w.
func (p *Profiles) With(name string, w *Weights) *Profiles {
	out := &Profiles{m: maps.Clone(p.m)}
	if out.m == nil {
		out.m = make(map[string]*Weights)
	}
	out.m[name] = w
	return out
}

// Without returns a copy of p with name removed.
func (p *Profiles) Without(name string) *Profiles {
	out := &Profiles{m: maps.Clone(p.m)}
	delete(out.m, name)
	return out
}

// Get returns the weights bound to name.
func (p *Profiles) Get(name string) (*Weights, bool) {
	w, ok := p.m[name]
	return w, ok
}

// Names returns the profile names in sorted order.
func (p *Profiles) Names() []string {
	return slices.Sorted(maps.Keys(p.m))
}

// Len returns the number of profiles.
func (p *Profiles) Len() int { return len(p.m) }
