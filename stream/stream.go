package stream

import (
	"iter"
	"strings"
)

// Just returns a iter.Seq2 that emits the provided values in order.
func Just[T any](values ...T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, v := range values {
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Error returns a iter.Seq2 that emits the provided error.
func Error[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		yield(*new(T), err)
	}
}

// Observe returns a iter.Seq2 that calls observer for every value and error
// of the input stream before passing it on.
func Observe[T any](stream iter.Seq2[T, error], observer func(T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		stream(func(v T, err error) bool {
			observer(v, err)
			return yield(v, err)
		})
	}
}

// Collect drains the stream and returns its values. It stops at the first error.
func Collect[T any](stream iter.Seq2[T, error]) ([]T, error) {
	var values []T
	for v, err := range stream {
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Join drains a stream of text chunks and concatenates them.
func Join(stream iter.Seq2[string, error]) (string, error) {
	var buf strings.Builder
	for chunk, err := range stream {
		if err != nil {
			return buf.String(), err
		}
		buf.WriteString(chunk)
	}
	return buf.String(), nil
}
