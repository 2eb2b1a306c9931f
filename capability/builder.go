package capability

// Builder produces a capability group bound to a runtime context C,
// such as credentials or the active wallet.
type Builder[C any] interface {
	Build(C) (*Group, error)
}

// BuilderFunc adapts a plain function to a Builder.
type BuilderFunc[C any] func(C) (*Group, error)

// Build calls f(rc).
func (f BuilderFunc[C]) Build(rc C) (*Group, error) {
	return f(rc)
}

// Factory creates a single capability bound to a runtime context.
type Factory[C any] func(C) (*Capability, error)

// NewBuilder returns a Builder that binds every factory to the runtime
// context and collects the results into a group described by desc.
func NewBuilder[C any](desc Descriptor, factories ...Factory[C]) Builder[C] {
	return BuilderFunc[C](func(rc C) (*Group, error) {
		g := NewGroup(desc)
		for _, factory := range factories {
			c, err := factory(rc)
			if err != nil {
				return nil, err
			}
			g.Add(c)
		}
		return g, nil
	})
}
