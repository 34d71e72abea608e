package job

import (
	"slices"
)

// SortByDateApplied orders apps newest first. Equal dates keep their input
// order, which is the order the store returned them in.
func SortByDateApplied(apps []Application) {
	slices.SortStableFunc(apps, func(a, b Application) int {
		return b.DateApplied.Compare(a.DateApplied)
	})
}

// Timeline returns the events newest first without modifying a.
func (a Application) Timeline() []Event {
	out := slices.Clone(a.Events)
	slices.SortStableFunc(out, func(x, y Event) int {
		return y.Date.Compare(x.Date)
	})
	return out
}
