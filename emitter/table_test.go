package emitter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisplaceRows(t *testing.T) {
	tests := []struct {
		caption  string
		entries  []int
		colCount int
	}{
		{
			caption:  "rows without overlapping cells share one span",
			entries:  []int{1, 0, 0, 0, 0, 2, 0, 0, 0, 0, 3, 0},
			colCount: 4,
		},
		{
			caption: "negative entries survive packing",
			entries: []int{
				-1, 0, 2, 0,
				0, -3, 0, 4,
				0, 0, 0, 0,
				-5, -5, 0, 6,
			},
			colCount: 4,
		},
		{
			caption:  "a table without entries",
			entries:  []int{0, 0, 0, 0, 0, 0},
			colCount: 3,
		},
		{
			caption:  "a single column",
			entries:  []int{0, 7, 0, 8},
			colCount: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			tab, err := displaceRows(tt.entries, tt.colCount)
			require.NoError(t, err)
			require.Equal(t, len(tab.entries), len(tab.owner))
			require.LessOrEqual(t, len(tab.entries), len(tt.entries)+tt.colCount)
			for row := 0; row < len(tt.entries)/tt.colCount; row++ {
				for col := 0; col < tt.colCount; col++ {
					require.Equal(t, tt.entries[row*tt.colCount+col], tab.lookup(row, col), "row %v, col %v", row, col)
				}
			}
		})
	}
}

func TestDisplaceRows_Overlay(t *testing.T) {
	tab, err := displaceRows([]int{1, 0, 0, 0, 0, 2, 0, 0, 0, 0, 3, 0}, 4)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 0}, tab.entries)
	require.Equal(t, []int{0, 0, 0}, tab.offset)
}

func TestShareRows(t *testing.T) {
	entries := []int{
		0, 0, 0,
		1, 0, 2,
		0, 0, 0,
		1, 0, 2,
		0, 3, 0,
	}
	tab, err := shareRows(entries, 3)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 0, 1, 2}, tab.rowOf)
	require.Equal(t, []int{0, 0, 0, 1, 0, 2, 0, 3, 0}, tab.rows)
	for row := 0; row < 5; row++ {
		for col := 0; col < 3; col++ {
			require.Equal(t, entries[row*3+col], tab.lookup(row, col, 3))
		}
	}
}

func TestPackingError(t *testing.T) {
	tests := []struct {
		caption  string
		entries  []int
		colCount int
	}{
		{caption: "no entries", entries: nil, colCount: 2},
		{caption: "no columns", entries: []int{1}, colCount: 0},
		{caption: "a partial row", entries: []int{1, 2, 3}, colCount: 2},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			_, err := displaceRows(tt.entries, tt.colCount)
			require.Error(t, err)
			_, err = shareRows(tt.entries, tt.colCount)
			require.Error(t, err)
		})
	}
}
