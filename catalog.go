package aikit

import (
	"fmt"
	"slices"

	"github.com/go-kratos/aikit/capability"
)

// Catalog is an ordered collection of capability groups with unique identifiers.
type Catalog struct {
	groups []*capability.Group
	index  map[string]*capability.Group
}

// NewCatalog creates a catalog from groups, preserving their order.
func NewCatalog(groups ...*capability.Group) (*Catalog, error) {
	c := &Catalog{index: make(map[string]*capability.Group, len(groups))}
	for _, g := range groups {
		if g == nil {
			continue
		}
		if _, ok := c.index[g.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateGroup, g.ID)
		}
		c.index[g.ID] = g
		c.groups = append(c.groups, g)
	}
	return c, nil
}

// BuildCatalog binds every builder to the runtime context rc and collects
// the resulting groups in registration order.
func BuildCatalog[C any](rc C, builders ...capability.Builder[C]) (*Catalog, error) {
	if len(builders) == 0 {
		return nil, ErrNoGroupBuilders
	}
	groups := make([]*capability.Group, 0, len(builders))
	for _, b := range builders {
		g, err := b.Build(rc)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return NewCatalog(groups...)
}

// Groups returns the groups in registration order.
func (c *Catalog) Groups() []*capability.Group {
	return slices.Clone(c.groups)
}

// Group returns the group registered under id.
func (c *Catalog) Group(id string) (*capability.Group, bool) {
	g, ok := c.index[id]
	return g, ok
}

// IDs returns the group identifiers in registration order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.groups))
	for _, g := range c.groups {
		ids = append(ids, g.ID)
	}
	return ids
}

// Len returns the number of groups.
func (c *Catalog) Len() int {
	return len(c.groups)
}

// Resolve returns the subset of groups whose identifiers appear in ids,
// in catalog order. A nil ids selects every group. Unknown identifiers are
// ignored as long as at least one identifier matches.
func (c *Catalog) Resolve(ids []string) (*Catalog, error) {
	if ids == nil {
		return c, nil
	}
	var selected []*capability.Group
	for _, g := range c.groups {
		if slices.Contains(ids, g.ID) {
			selected = append(selected, g)
		}
	}
	if len(selected) == 0 {
		return nil, &GroupNotFoundError{IDs: ids}
	}
	return NewCatalog(selected...)
}

// Unknown returns the identifiers in ids that match no group.
func (c *Catalog) Unknown(ids []string) []string {
	var unknown []string
	for _, id := range ids {
		if _, ok := c.index[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown
}

// Collision records a capability name defined by more than one group.
type Collision struct {
	Name    string
	Kept    string
	Dropped string
}

// Merge flattens all groups into a single capability list keyed by name.
// When two groups define the same name the later group wins; the entry
// keeps the position of its first occurrence.
func (c *Catalog) Merge() ([]*capability.Capability, []Collision) {
	var (
		caps       []*capability.Capability
		owners     []string
		collisions []Collision
		position   = make(map[string]int)
	)
	for _, g := range c.groups {
		for _, item := range g.Capabilities() {
			if i, ok := position[item.Name]; ok {
				collisions = append(collisions, Collision{Name: item.Name, Kept: g.ID, Dropped: owners[i]})
				caps[i] = item
				owners[i] = g.ID
				continue
			}
			position[item.Name] = len(caps)
			caps = append(caps, item)
			owners = append(owners, g.ID)
		}
	}
	return caps, collisions
}

// Capabilities returns the merged capability list.
func (c *Catalog) Capabilities() []*capability.Capability {
	caps, _ := c.Merge()
	return caps
}

// Manifest renders the catalog as pretty-printed JSON.
func (c *Catalog) Manifest() (string, error) {
	return Manifest(c.groups)
}
