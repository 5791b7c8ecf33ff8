package content

import (
	"sort"

	"portfolio-cms/internal/model"
)

// NormalizeOrder returns sections stable-sorted by Order and renumbered
// 0..N-1 by position. Equal Order values keep their array positions. The input
// slice is not modified.
func NormalizeOrder(sections []model.Section) []model.Section {
	out := make([]model.Section, len(sections))
	copy(out, sections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		out[i].Order = i
	}
	return out
}

// IsDense reports whether the Order values are exactly 0..N-1 in array order.
func IsDense(sections []model.Section) bool {
	for i, s := range sections {
		if s.Order != i {
			return false
		}
	}
	return true
}
