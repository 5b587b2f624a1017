// Package interval provides the half-open numeric range used as the key of
// the interval index.
package interval

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// ErrInvalidRange is returned when an interval would have zero or negative width.
var ErrInvalidRange = errors.New("an interval must have a range with a positive width")

// Number is the set of types an interval can be built over.
type Number interface {
	constraints.Integer | constraints.Float
}

// Interval is the half-open range [Start, End). End is always greater than Start.
type Interval[T Number] struct {
	Start T
	End   T
}

// New creates an interval, rejecting ranges where end <= start.
func New[T Number](start, end T) (Interval[T], error) {
	// Written as !(end > start) so NaN bounds are rejected too.
	if !(end > start) {
		return Interval[T]{}, fmt.Errorf("%w: [%v, %v)", ErrInvalidRange, start, end)
	}
	return Interval[T]{Start: start, End: end}, nil
}

// MustNew is like New but panics on an invalid range.
func MustNew[T Number](start, end T) Interval[T] {
	iv, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

// Overlaps reports whether the two intervals share at least one point.
// Touching endpoints do not overlap.
func (iv Interval[T]) Overlaps(other Interval[T]) bool {
	return iv.Start < other.End && other.Start < iv.End
}

// Contains reports whether pos lies in [Start, End).
func (iv Interval[T]) Contains(pos T) bool {
	return pos >= iv.Start && pos < iv.End
}

// Len returns End - Start.
func (iv Interval[T]) Len() T {
	return iv.End - iv.Start
}

// Compare orders intervals by Start, then End.
func (iv Interval[T]) Compare(other Interval[T]) int {
	switch {
	case iv.Start < other.Start:
		return -1
	case iv.Start > other.Start:
		return 1
	case iv.End < other.End:
		return -1
	case iv.End > other.End:
		return 1
	}
	return 0
}

func (iv Interval[T]) String() string {
	return fmt.Sprintf("[%v, %v)", iv.Start, iv.End)
}
