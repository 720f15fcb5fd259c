package reconcile

import "sort"

// Vocabulary is the set of category labels the pipeline recognizes.
// An empty Vocabulary recognizes nothing and disables the label check.
type Vocabulary map[string]struct{}

func NewVocabulary(labels ...string) Vocabulary {
	v := make(Vocabulary, len(labels))
	for _, l := range labels {
		v[l] = struct{}{}
	}
	return v
}

func (v Vocabulary) Contains(label string) bool {
	_, ok := v[label]
	return ok
}

// Labels returns the recognized labels in sorted order.
func (v Vocabulary) Labels() []string {
	out := make([]string, 0, len(v))
	for l := range v {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// needsRepair reports whether stored labels are missing or contain an unknown label.
func (v Vocabulary) needsRepair(labels []string) bool {
	if len(labels) == 0 {
		return true
	}
	if len(v) == 0 {
		return false
	}
	for _, l := range labels {
		if !v.Contains(l) {
			return true
		}
	}
	return false
}
