// Package catalog keeps the ordered collection of event types.
package catalog

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"workcal/internal/model"
)

// Patch carries the fields Update may change. Nil fields are left as is.
type Patch struct {
	Name      *string `json:"name,omitempty"`
	Color     *string `json:"color,omitempty"`
	TextColor *string `json:"textColor,omitempty"`
	Icon      *string `json:"icon,omitempty"`
}

// Catalog is an insertion-ordered set of event types with unique ids.
type Catalog struct {
	types []model.EventType
}

// New builds a catalog from types, in order. Duplicate or invalid types are
// rejected.
func New(types ...model.EventType) (*Catalog, error) {
	c := &Catalog{}
	for _, t := range types {
		if err := c.insert(t); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewID mints an identifier for a user-created type.
func NewID() string {
	return uuid.NewString()
}

// Add appends a caller-created type. Such types are always deletable.
func (c *Catalog) Add(t model.EventType) error {
	t.IsDeletable = true
	return c.insert(t)
}

func (c *Catalog) insert(t model.EventType) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("event type %q: %w", t.ID, err)
	}
	if c.Has(t.ID) {
		return fmt.Errorf("%w: event type id %q already exists", model.ErrValidation, t.ID)
	}
	c.types = append(c.types, t)
	return nil
}

// Update merges p into the type with the given id.
func (c *Catalog) Update(id string, p Patch) (model.EventType, error) {
	i := c.index(id)
	if i < 0 {
		return model.EventType{}, fmt.Errorf("event type %q: %w", id, model.ErrNotFound)
	}
	t := c.types[i]
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Color != nil {
		t.Color = *p.Color
	}
	if p.TextColor != nil {
		t.TextColor = *p.TextColor
	}
	if p.Icon != nil {
		t.Icon = *p.Icon
	}
	if err := t.Validate(); err != nil {
		return model.EventType{}, fmt.Errorf("event type %q: %w", id, err)
	}
	c.types[i] = t
	return t, nil
}

// Remove deletes the type with the given id. inUse is the set of type ids
// currently referenced by events (store.UsedTypeIDs).
func (c *Catalog) Remove(id string, inUse map[string]struct{}) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("event type %q: %w", id, model.ErrNotFound)
	}
	if !c.types[i].IsDeletable || model.IsVacation(id) {
		return fmt.Errorf("event type %q: %w", id, model.ErrProtected)
	}
	if _, used := inUse[id]; used {
		return fmt.Errorf("event type %q: %w", id, model.ErrInUse)
	}
	c.types = slices.Delete(c.types, i, i+1)
	return nil
}

// Resolve returns the type with the given id.
func (c *Catalog) Resolve(id string) (model.EventType, bool) {
	i := c.index(id)
	if i < 0 {
		return model.EventType{}, false
	}
	return c.types[i], true
}

// Has reports whether id exists.
func (c *Catalog) Has(id string) bool {
	return c.index(id) >= 0
}

// List returns the types in insertion order.
func (c *Catalog) List() []model.EventType {
	return slices.Clone(c.types)
}

func (c *Catalog) Len() int { return len(c.types) }

// Clone returns an independent copy.
func (c *Catalog) Clone() *Catalog {
	return &Catalog{types: slices.Clone(c.types)}
}

// EnsureBuiltins prepends the built-in vacation type when it is missing and
// forces it to be non-deletable.
func (c *Catalog) EnsureBuiltins() {
	if i := c.index(model.VacationTypeID); i >= 0 {
		c.types[i].IsDeletable = false
		return
	}
	c.types = slices.Insert(c.types, 0, VacationType())
}

func (c *Catalog) index(id string) int {
	return slices.IndexFunc(c.types, func(t model.EventType) bool { return t.ID == id })
}
