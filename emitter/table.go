package emitter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// displacedTable overlays the sparse rows of a table on one array. owner records the row each cell belongs
// to, so a cell owned by another row reads as empty.
type displacedTable struct {
	entries []int
	owner   []int
	offset  []int
}

const noOwner = -1

func checkShape(entries []int, colCount int) error {
	if colCount <= 0 || len(entries) == 0 || len(entries)%colCount != 0 {
		return fmt.Errorf("a table of %v entries cannot have %v columns", len(entries), colCount)
	}
	return nil
}

// displaceRows places denser rows first, each one at the lowest offset where its non-empty cells are free.
func displaceRows(entries []int, colCount int) (*displacedTable, error) {
	if err := checkShape(entries, colCount); err != nil {
		return nil, err
	}
	rowCount := len(entries) / colCount
	cols := make([][]int, rowCount)
	order := make([]int, rowCount)
	for row := range cols {
		order[row] = row
		for col, v := range entries[row*colCount : (row+1)*colCount] {
			if v != 0 {
				cols[row] = append(cols[row], col)
			}
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return len(cols[order[i]]) > len(cols[order[j]])
	})

	tab := &displacedTable{
		offset: make([]int, rowCount),
	}
	grow := func(size int) {
		for len(tab.owner) < size {
			tab.entries = append(tab.entries, 0)
			tab.owner = append(tab.owner, noOwner)
		}
	}
	grow(colCount)
	for _, row := range order {
		if len(cols[row]) == 0 {
			continue
		}
		d := 0
	SEARCH:
		for ; ; d++ {
			grow(d + colCount)
			for _, col := range cols[row] {
				if tab.owner[d+col] != noOwner {
					continue SEARCH
				}
			}
			break
		}
		tab.offset[row] = d
		for _, col := range cols[row] {
			tab.entries[d+col] = entries[row*colCount+col]
			tab.owner[d+col] = row
		}
	}
	return tab, nil
}

func (t *displacedTable) lookup(row, col int) int {
	d := t.offset[row]
	if t.owner[d+col] != row {
		return 0
	}
	return t.entries[d+col]
}

func (t *displacedTable) size() int {
	return len(t.entries) + len(t.owner) + len(t.offset)
}

// sharedRows keeps one copy of each distinct row.
type sharedRows struct {
	rows  []int
	rowOf []int
}

func shareRows(entries []int, colCount int) (*sharedRows, error) {
	if err := checkShape(entries, colCount); err != nil {
		return nil, err
	}
	rowCount := len(entries) / colCount
	tab := &sharedRows{
		rowOf: make([]int, rowCount),
	}
	seen := map[string]int{}
	for row := 0; row < rowCount; row++ {
		cells := entries[row*colCount : (row+1)*colCount]
		var key strings.Builder
		for _, v := range cells {
			key.WriteString(strconv.Itoa(v))
			key.WriteByte(',')
		}
		num, ok := seen[key.String()]
		if !ok {
			num = len(seen)
			seen[key.String()] = num
			tab.rows = append(tab.rows, cells...)
		}
		tab.rowOf[row] = num
	}
	return tab, nil
}

func (t *sharedRows) lookup(row, col, colCount int) int {
	return t.rows[t.rowOf[row]*colCount+col]
}

func (t *sharedRows) size() int {
	return len(t.rows) + len(t.rowOf)
}
