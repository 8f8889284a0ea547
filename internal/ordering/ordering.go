// Package ordering computes dense order values for positioned sequences.
// Every function is pure: inputs are never modified and results always carry
// the order values 0..len-1 in sequence order.
package ordering

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange indicates a source index outside the sequence
var ErrIndexOutOfRange = errors.New("index out of range")

// Positioned is implemented by values that carry an order field
type Positioned[T any] interface {
	Position() int
	WithOrder(order int) T
}

// Move removes the element at from, reinserts it at to and renumbers the
// result densely from 0. The target index is clamped to the sequence bounds.
// When the clamped target equals from the input is returned unchanged and
// moved is false, so callers can skip the write entirely.
func Move[T Positioned[T]](seq []T, from, to int) (out []T, moved bool, err error) {
	if len(seq) == 0 {
		return seq, false, nil
	}
	if from < 0 || from >= len(seq) {
		return seq, false, fmt.Errorf("move from %d of %d: %w", from, len(seq), ErrIndexOutOfRange)
	}
	to = clamp(to, 0, len(seq)-1)
	if from == to {
		return seq, false, nil
	}

	out = make([]T, 0, len(seq))
	item := seq[from]
	for i, v := range seq {
		if i == from {
			continue
		}
		out = append(out, v)
	}
	out = append(out[:to], append([]T{item}, out[to:]...)...)
	return Renumber(out), true, nil
}

// Insert places item at index at (clamped to [0, len]) and renumbers
func Insert[T Positioned[T]](seq []T, item T, at int) []T {
	at = clamp(at, 0, len(seq))
	out := make([]T, 0, len(seq)+1)
	out = append(out, seq[:at]...)
	out = append(out, item)
	out = append(out, seq[at:]...)
	return Renumber(out)
}

// Remove drops the element at index at and renumbers the rest
func Remove[T Positioned[T]](seq []T, at int) ([]T, error) {
	if at < 0 || at >= len(seq) {
		return seq, fmt.Errorf("remove %d of %d: %w", at, len(seq), ErrIndexOutOfRange)
	}
	out := make([]T, 0, len(seq)-1)
	out = append(out, seq[:at]...)
	out = append(out, seq[at+1:]...)
	return Renumber(out), nil
}

// Renumber returns a copy whose order values are 0..len-1 in sequence order
func Renumber[T Positioned[T]](seq []T) []T {
	out := make([]T, len(seq))
	for i, v := range seq {
		out[i] = v.WithOrder(i)
	}
	return out
}

// NextOrder returns the order value for an appended element: max+1, or 0
// for an empty sequence.
func NextOrder[T Positioned[T]](seq []T) int {
	next := 0
	for _, v := range seq {
		if v.Position() >= next {
			next = v.Position() + 1
		}
	}
	return next
}

// IsDense reports whether the order values are exactly 0..len-1 in sequence order
func IsDense[T Positioned[T]](seq []T) bool {
	for i, v := range seq {
		if v.Position() != i {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
