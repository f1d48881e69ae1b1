package als

import "sort"

// Entry is one observed (row, col, value) triple.
type Entry struct {
	Row   int
	Col   int
	Value float64
}

// CSR is a compressed sparse row matrix. Row i holds
// Indices[IndPtr[i]:IndPtr[i+1]] with matching Data.
type CSR struct {
	Rows    int
	Cols    int
	IndPtr  []int
	Indices []int
	Data    []float64
}

// NewCSR builds a matrix from entries. Duplicate coordinates are summed and
// the shape grows to fit the largest index when rows/cols are too small.
func NewCSR(rows, cols int, entries []Entry) *CSR {
	for _, e := range entries {
		if e.Row+1 > rows {
			rows = e.Row + 1
		}
		if e.Col+1 > cols {
			cols = e.Col + 1
		}
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})

	m := &CSR{
		Rows:    rows,
		Cols:    cols,
		IndPtr:  make([]int, rows+1),
		Indices: make([]int, 0, len(sorted)),
		Data:    make([]float64, 0, len(sorted)),
	}

	for i, e := range sorted {
		if i > 0 && sorted[i-1].Row == e.Row && sorted[i-1].Col == e.Col {
			m.Data[len(m.Data)-1] += e.Value
			continue
		}
		m.Indices = append(m.Indices, e.Col)
		m.Data = append(m.Data, e.Value)
		m.IndPtr[e.Row+1]++
	}
	for i := 0; i < rows; i++ {
		m.IndPtr[i+1] += m.IndPtr[i]
	}
	return m
}

// Row returns the column indices and values stored in row i.
// Rows outside the matrix are empty.
func (m *CSR) Row(i int) ([]int, []float64) {
	if i < 0 || i >= m.Rows {
		return nil, nil
	}
	start, end := m.IndPtr[i], m.IndPtr[i+1]
	return m.Indices[start:end], m.Data[start:end]
}

// NNZ returns the number of stored values.
func (m *CSR) NNZ() int {
	return len(m.Data)
}

// Transpose returns the cols×rows matrix.
func (m *CSR) Transpose() *CSR {
	entries := make([]Entry, 0, m.NNZ())
	for r := 0; r < m.Rows; r++ {
		cols, vals := m.Row(r)
		for j, c := range cols {
			entries = append(entries, Entry{Row: c, Col: r, Value: vals[j]})
		}
	}
	return NewCSR(m.Cols, m.Rows, entries)
}
