// Package templates is the read-only catalog of metadata presets and the
// selection helpers built on it.
package templates

import (
	"fmt"

	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/randomizer"
)

// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	templates []models.MetadataTemplate
	index     map[string]int
}

// NewRegistry validates ids and categories and keeps insertion order.
func NewRegistry(templates []models.MetadataTemplate) (*Registry, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("registry needs at least one template")
	}

	r := &Registry{
		templates: make([]models.MetadataTemplate, len(templates)),
		index:     make(map[string]int, len(templates)),
	}
	copy(r.templates, templates)

	for i, t := range r.templates {
		if t.ID == "" || t.ID == models.RandomTemplate {
			return nil, fmt.Errorf("template %d: invalid id %q", i, t.ID)
		}
		if !t.Category.Valid() {
			return nil, fmt.Errorf("template %q: unknown category %q", t.ID, t.Category)
		}
		if _, dup := r.index[t.ID]; dup {
			return nil, fmt.Errorf("template %q: duplicate id", t.ID)
		}
		r.index[t.ID] = i
	}
	return r, nil
}

// Default builds the registry from the built-in catalog.
func Default() *Registry {
	r, err := NewRegistry(Catalog())
	if err != nil {
		panic(err)
	}
	return r
}

// ListAll returns every template in registry order.
func (r *Registry) ListAll() []models.MetadataTemplate {
	out := make([]models.MetadataTemplate, len(r.templates))
	copy(out, r.templates)
	return out
}

func (r *Registry) Len() int {
	return len(r.templates)
}

// ByID returns the template with the given id or ErrTemplateNotFound.
func (r *Registry) ByID(id string) (models.MetadataTemplate, error) {
	i, ok := r.index[id]
	if !ok {
		return models.MetadataTemplate{}, fmt.Errorf("%w: %q", models.ErrTemplateNotFound, id)
	}
	return r.templates[i], nil
}

// ByCategory filters the catalog, preserving registry order.
func (r *Registry) ByCategory(c models.Category) []models.MetadataTemplate {
	var out []models.MetadataTemplate
	for _, t := range r.templates {
		if t.Category == c {
			out = append(out, t)
		}
	}
	return out
}

// Random draws one template uniformly over the whole catalog.
func (r *Registry) Random(rng randomizer.Source) models.MetadataTemplate {
	if rng == nil {
		rng = randomizer.Default()
	}
	return r.templates[rng.IntN(len(r.templates))]
}

// Validate checks that a selection can be resolved.
func (r *Registry) Validate(sel models.TemplateSelection) error {
	if sel.IsRandom() {
		return nil
	}
	_, err := r.ByID(sel.TemplateID)
	return err
}

// Resolve returns the fixed template for a selection, or a fresh random
// draw when the selection is the random sentinel.
func (r *Registry) Resolve(sel models.TemplateSelection, rng randomizer.Source) (models.MetadataTemplate, error) {
	if sel.IsRandom() {
		return r.Random(rng), nil
	}
	return r.ByID(sel.TemplateID)
}
