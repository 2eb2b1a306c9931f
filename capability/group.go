package capability

// Descriptor identifies and describes a capability group.
type Descriptor struct {
	ID          string `json:"identifier" yaml:"identifier"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Group is an ordered set of capabilities keyed by name.
type Group struct {
	Descriptor
	names        []string
	capabilities map[string]*Capability
}

// NewGroup creates a group with the given capabilities in registration order.
func NewGroup(desc Descriptor, caps ...*Capability) *Group {
	g := &Group{Descriptor: desc, capabilities: make(map[string]*Capability, len(caps))}
	for _, c := range caps {
		g.Add(c)
	}
	return g
}

// Add registers a capability. A capability with an existing name replaces
// the previous one and keeps its position.
func (g *Group) Add(c *Capability) {
	if g.capabilities == nil {
		g.capabilities = make(map[string]*Capability)
	}
	if _, ok := g.capabilities[c.Name]; !ok {
		g.names = append(g.names, c.Name)
	}
	g.capabilities[c.Name] = c
}

// Get returns the capability registered under name.
func (g *Group) Get(name string) (*Capability, bool) {
	c, ok := g.capabilities[name]
	return c, ok
}

// Capabilities returns the capabilities in registration order.
func (g *Group) Capabilities() []*Capability {
	caps := make([]*Capability, 0, len(g.names))
	for _, name := range g.names {
		caps = append(caps, g.capabilities[name])
	}
	return caps
}

// Len returns the number of capabilities in the group.
func (g *Group) Len() int {
	return len(g.names)
}
