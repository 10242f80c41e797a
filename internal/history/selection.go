package history

import "slices"

// MaxSelected is the size of a comparison selection
const MaxSelected = 2

// Selection tracks the records picked for comparison. Selecting beyond
// MaxSelected evicts the oldest pick.
type Selection struct {
	ids []string
}

// Toggle selects id, or deselects it if already selected
func (s *Selection) Toggle(id string) {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return
	}
	s.ids = append(s.ids, id)
	if len(s.ids) > MaxSelected {
		s.ids = slices.Clone(s.ids[len(s.ids)-MaxSelected:])
	}
}

// IDs returns the selected ids, oldest first
func (s *Selection) IDs() []string {
	return slices.Clone(s.ids)
}

// Ready reports whether a full pair is selected
func (s *Selection) Ready() bool {
	return len(s.ids) == MaxSelected
}

// Pair returns the two selected ids
func (s *Selection) Pair() (string, string, bool) {
	if !s.Ready() {
		return "", "", false
	}
	return s.ids[0], s.ids[1], true
}

// Clear drops the selection
func (s *Selection) Clear() {
	s.ids = nil
}
