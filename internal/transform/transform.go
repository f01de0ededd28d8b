// Package transform holds the per-pixel operations applied between decode and encode.
package transform

import (
	"fmt"
	"sort"
	"strings"

	"snapmeta/internal/model"
)

// Transform maps a grid to a new grid of the same dimensions.
// Implementations must not modify their input.
type Transform interface {
	Name() string
	Apply(g model.PixelGrid) (model.PixelGrid, error)
}

// Grayscale replaces every pixel with the floor of its channel average, keeping alpha.
type Grayscale struct{}

func (Grayscale) Name() string { return "grayscale" }

func (Grayscale) Apply(g model.PixelGrid) (model.PixelGrid, error) {
	if err := g.Validate(); err != nil {
		return model.PixelGrid{}, err
	}
	out := g.Clone()
	if out.Empty() {
		return out, nil
	}
	for i := 0; i < len(out.Pix); i += 4 {
		avg := uint8((int(out.Pix[i]) + int(out.Pix[i+1]) + int(out.Pix[i+2])) / 3)
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = avg, avg, avg
	}
	return out, nil
}

// Identity returns a copy of its input.
type Identity struct{}

func (Identity) Name() string { return "none" }

func (Identity) Apply(g model.PixelGrid) (model.PixelGrid, error) {
	if err := g.Validate(); err != nil {
		return model.PixelGrid{}, err
	}
	return g.Clone(), nil
}

// Chain applies transforms in order.
type Chain []Transform

func (c Chain) Name() string {
	if len(c) == 0 {
		return Identity{}.Name()
	}
	names := make([]string, len(c))
	for i, t := range c {
		names[i] = t.Name()
	}
	return strings.Join(names, ",")
}

func (c Chain) Apply(g model.PixelGrid) (model.PixelGrid, error) {
	out, err := Identity{}.Apply(g)
	if err != nil {
		return model.PixelGrid{}, err
	}
	for _, t := range c {
		if out, err = t.Apply(out); err != nil {
			return model.PixelGrid{}, fmt.Errorf("%s: %w", t.Name(), err)
		}
	}
	return out, nil
}

// Registry resolves transforms by name.
type Registry struct {
	byName map[string]Transform
}

// NewRegistry returns a registry holding the built-in transforms plus extra.
func NewRegistry(extra ...Transform) *Registry {
	r := &Registry{byName: make(map[string]Transform)}
	for _, t := range append([]Transform{Grayscale{}, Identity{}}, extra...) {
		r.byName[t.Name()] = t
	}
	return r
}

// Lookup returns the transform registered under name.
func (r *Registry) Lookup(name string) (Transform, bool) {
	t, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// Names lists registered transform names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse resolves a comma-separated list such as "grayscale" or "none".
// An empty list yields Identity.
func (r *Registry) Parse(list string) (Transform, error) {
	var chain Chain
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, ok := r.Lookup(part)
		if !ok {
			return nil, fmt.Errorf("unknown transform %q (available: %s)", part, strings.Join(r.Names(), ", "))
		}
		if _, isIdentity := t.(Identity); isIdentity {
			continue
		}
		chain = append(chain, t)
	}
	switch len(chain) {
	case 0:
		return Identity{}, nil
	case 1:
		return chain[0], nil
	default:
		return chain, nil
	}
}
