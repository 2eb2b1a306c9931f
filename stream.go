package aikit

import "iter"

// Generator is a lazily evaluated sequence of values and errors.
type Generator[T, E any] = iter.Seq2[T, E]
