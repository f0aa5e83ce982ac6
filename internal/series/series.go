// Package series generates yearly growth trajectories per category and
// provides the small calculators that work on them.
package series

// Rate is the annual growth of one category, in percent (20 means 20%/year).
type Rate struct {
	Name    string  `json:"name" msgpack:"name"`
	Percent float64 `json:"percent" msgpack:"percent"`
}

// Series is one named column of a Table.
type Series struct {
	Name   string    `json:"name"`
	Years  []int     `json:"years"`
	Values []float64 `json:"values"`
}

// ValueAt returns the value recorded for year.
func (s Series) ValueAt(year int) (float64, bool) {
	for i, y := range s.Years {
		if y == year && i < len(s.Values) {
			return s.Values[i], true
		}
	}
	return 0, false
}

// Table holds one row per year and one column per category.
// Values[c][i] is column c at Years[i].
type Table struct {
	Years   []int       `json:"years"`
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Years)
}

// Row returns the values of every column for the i-th year.
func (t *Table) Row(i int) []float64 {
	row := make([]float64, len(t.Columns))
	for c := range t.Columns {
		row[c] = t.Values[c][i]
	}
	return row
}

// Column returns the named column as a Series.
func (t *Table) Column(name string) (Series, bool) {
	for c, col := range t.Columns {
		if col == name {
			return Series{
				Name:   col,
				Years:  append([]int(nil), t.Years...),
				Values: append([]float64(nil), t.Values[c]...),
			}, true
		}
	}
	return Series{}, false
}
