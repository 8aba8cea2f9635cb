package timeline

import "encoding/json"

// LegendEntry pairs a program name with its colour class.
type LegendEntry struct {
	Label    string `json:"label"`
	Category string `json:"category"`
}

// Legend is an ordered label → category map. Labels keep the position of their
// first appearance; a later Set for the same label replaces the category.
type Legend struct {
	index   map[string]int
	entries []LegendEntry
}

// NewLegend creates an empty legend.
func NewLegend() *Legend {
	return &Legend{index: make(map[string]int)}
}

// Set records label with category.
func (l *Legend) Set(label, category string) {
	if i, ok := l.index[label]; ok {
		l.entries[i].Category = category
		return
	}
	l.index[label] = len(l.entries)
	l.entries = append(l.entries, LegendEntry{Label: label, Category: category})
}

// Entries returns a copy of the legend in order.
func (l *Legend) Entries() []LegendEntry {
	out := make([]LegendEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of labels.
func (l *Legend) Len() int {
	return len(l.entries)
}

// MarshalJSON encodes the legend entries in first-seen order.
func (l *Legend) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Entries())
}
