package tinyhsm

// Layout is the per-level storage plan derived from a registry. For every
// nesting level it records the largest state footprint that can occupy the
// level and the strictest alignment, plus running byte offsets for laying all
// levels out in one contiguous arena.
//
// The plan depends only on the registered descriptors, so it is computed once
// per machine type, when the registry freezes, and shared by every instance.
type Layout struct {
	MaxLevel int
	Capacity []uintptr // max state size per level, indexed by level
	Align    []uintptr // max state alignment per level
	Offsets  []uintptr // arena byte offsets; len MaxLevel+2, last entry is the arena size
}

// PlanLayout computes the storage layout for a registry. Deterministic and
// side-effect free: the same set of descriptors always yields the same plan.
func PlanLayout(r *Registry) Layout {
	l := Layout{
		MaxLevel: r.maxLevel,
		Capacity: make([]uintptr, r.maxLevel+1),
		Align:    make([]uintptr, r.maxLevel+1),
	}
	for _, d := range r.byID {
		if d == nil {
			continue
		}
		if d.Size > l.Capacity[d.Level] {
			l.Capacity[d.Level] = d.Size
		}
		if d.Align > l.Align[d.Level] {
			l.Align[d.Level] = d.Align
		}
	}
	l.Offsets = make([]uintptr, r.maxLevel+2)
	for i := 0; i <= r.maxLevel; i++ {
		l.Offsets[i+1] = l.Offsets[i] + roundUp(l.Capacity[i], l.Align[i])
	}
	return l
}

// ArenaSize returns the total size of a single contiguous arena holding one
// slot per level.
func (l Layout) ArenaSize() uintptr {
	return l.Offsets[len(l.Offsets)-1]
}

// roundUp rounds n up to the next multiple of align. Alignments are powers of
// two (they come from the Go type system); zero means no padding.
func roundUp(n, align uintptr) uintptr {
	if align == 0 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
