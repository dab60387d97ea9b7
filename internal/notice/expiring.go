package notice

import "time"

// Expiring holds a value until a deadline. The zero value is empty.
// It never starts timers; callers decide when to look.
type Expiring[T any] struct {
	value    T
	deadline time.Time
	set      bool
}

// Set stores v until now+ttl, superseding any previous value.
func (e *Expiring[T]) Set(v T, now time.Time, ttl time.Duration) {
	e.value = v
	e.deadline = now.Add(ttl)
	e.set = true
}

// Get returns the value if it is still live at now.
func (e *Expiring[T]) Get(now time.Time) (T, bool) {
	if !e.set || !now.Before(e.deadline) {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (e *Expiring[T]) Deadline() time.Time { return e.deadline }

// Active reports whether a value is stored, regardless of the deadline.
func (e *Expiring[T]) Active() bool { return e.set }

func (e *Expiring[T]) Clear() {
	var zero T
	e.value = zero
	e.deadline = time.Time{}
	e.set = false
}
