package questionset

// Renumber returns a copy of groups in which every question's Number is its
// 1-based position in the group-then-question flattening, and every group's
// OrderIndex is its 1-based position in the slice. Ids are never touched.
func Renumber(groups []Group) []Group {
	out := cloneGroups(groups)
	next := 1
	for i := range out {
		out[i].OrderIndex = i + 1
		for j := range out[i].Questions {
			out[i].Questions[j].Number = next
			next++
		}
	}
	return out
}

// Renumbered returns a renumbered copy of the set.
func (s Set) Renumbered() Set {
	return Set{TestID: s.TestID, Groups: Renumber(s.Groups)}
}

// IsNumbered reports whether the set already satisfies the numbering
// invariant: contiguous order indexes and question numbers 1..N.
func (s Set) IsNumbered() bool {
	next := 1
	for i, g := range s.Groups {
		if g.OrderIndex != i+1 {
			return false
		}
		for _, q := range g.Questions {
			if q.Number != next {
				return false
			}
			next++
		}
	}
	return true
}
