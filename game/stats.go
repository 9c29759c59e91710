package game

import (
	"time"

	"github.com/keegancsmith/nth"
	"golang.org/x/exp/constraints"
)

type orderableSlice[T constraints.Ordered] []T

func (s orderableSlice[T]) Len() int {
	return len(s)
}

func (s orderableSlice[T]) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s orderableSlice[T]) Less(i, j int) bool {
	return s[i] < s[j]
}

func median[T constraints.Ordered](xs []T) T {
	var zero T
	if len(xs) == 0 {
		return zero
	}
	i := len(xs) / 2
	nth.Element(orderableSlice[T](xs), i)
	return xs[i]
}

func (s *Session) medianStepTime() time.Duration {
	s.stepTimesMu.RLock()
	defer s.stepTimesMu.RUnlock()

	times := make([]time.Duration, s.stepTimes.Used())
	s.stepTimes.Peek(times, 0)
	return median(times)
}
