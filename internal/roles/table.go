package roles

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Position pairs a job role label with its flat annual price.
type Position struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// PriceTable holds the role catalogue sorted by label with Danish collation.
// Labels are unique; lookup by label is the only access pattern.
type PriceTable struct {
	positions []Position
	byLabel   map[string]float64
}

// Load reads the role/price resource from disk and builds the table.
func Load(path string) (*PriceTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read positions file: %w", err)
	}
	return Parse(data)
}

// Parse builds a table from the raw JSON resource.
func Parse(data []byte) (*PriceTable, error) {
	var positions []Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	return New(positions)
}

// New validates the catalogue and sorts it by label in Danish order.
func New(positions []Position) (*PriceTable, error) {
	byLabel := make(map[string]float64, len(positions))
	for _, pos := range positions {
		label := strings.TrimSpace(pos.Label)
		if label == "" {
			return nil, fmt.Errorf("position with empty label")
		}
		if _, dup := byLabel[label]; dup {
			return nil, fmt.Errorf("duplicate position label %q", label)
		}
		byLabel[label] = pos.Price
	}

	sorted := make([]Position, len(positions))
	copy(sorted, positions)
	collator := collate.New(language.Danish)
	sort.SliceStable(sorted, func(i, j int) bool {
		return collator.CompareString(sorted[i].Label, sorted[j].Label) < 0
	})

	return &PriceTable{positions: sorted, byLabel: byLabel}, nil
}

// Positions returns the sorted catalogue.
func (t *PriceTable) Positions() []Position {
	out := make([]Position, len(t.positions))
	copy(out, t.positions)
	return out
}

// Labels returns the sorted labels.
func (t *PriceTable) Labels() []string {
	labels := make([]string, 0, len(t.positions))
	for _, pos := range t.positions {
		labels = append(labels, pos.Label)
	}
	return labels
}

// Len reports the number of positions in the catalogue.
func (t *PriceTable) Len() int {
	return len(t.positions)
}

// PriceFor returns the price for a label and whether the label exists.
func (t *PriceTable) PriceFor(label string) (float64, bool) {
	price, ok := t.byLabel[label]
	return price, ok
}

// Has reports whether a label exists in the catalogue.
func (t *PriceTable) Has(label string) bool {
	_, ok := t.byLabel[label]
	return ok
}

// First returns the first label in sorted order, or "" for an empty table.
// Used as the default selection for newly added employee slots.
func (t *PriceTable) First() string {
	if len(t.positions) == 0 {
		return ""
	}
	return t.positions[0].Label
}

// Filter returns the positions whose label contains the query,
// case-insensitively. An empty query returns the full catalogue.
func (t *PriceTable) Filter(query string) []Position {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return t.Positions()
	}
	var matches []Position
	for _, pos := range t.positions {
		if strings.Contains(strings.ToLower(pos.Label), query) {
			matches = append(matches, pos)
		}
	}
	return matches
}
