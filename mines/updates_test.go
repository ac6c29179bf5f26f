package mines_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasstrnad1997/minesweeper/mines"
)

func TestCellUpdateValues(t *testing.T) {
	cells := []mines.Cell{
		{Row: 0, Col: 0, Revealed: true, Adjacent: 3},
		{Row: 0, Col: 1, Revealed: true, Mine: true},
		{Row: 1, Col: 0, Flagged: true, Mine: true},
		{Row: 1, Col: 1},
	}
	updates := mines.CellUpdates(cells)
	require.Equal(t, []mines.UpdatedCell{
		{Row: 0, Col: 0, Value: 3},
		{Row: 0, Col: 1, Value: mines.ShowMine},
		{Row: 1, Col: 0, Value: mines.ShowFlag},
		{Row: 1, Col: 1, Value: mines.Unflag},
	}, updates)
}

func TestVisibleUpdatesRebuildView(t *testing.T) {
	board := boardWithMines(t, 3, 5, [2]int{1, 4})
	_, err := board.ToggleFlag(1, 4)
	require.NoError(t, err)
	_, err = board.Reveal(0, 0)
	require.NoError(t, err)

	view, err := mines.NewBoard(3, 5)
	require.NoError(t, err)
	for _, update := range board.VisibleUpdates() {
		require.NoError(t, view.ApplyUpdate(update))
	}
	for r := range 3 {
		for c := range 5 {
			want := board.Cells[r][c]
			got := view.Cells[r][c]
			assert.Equal(t, want.Revealed, got.Revealed, "(%d, %d)", r, c)
			assert.Equal(t, want.Flagged, got.Flagged, "(%d, %d)", r, c)
			if want.Revealed {
				assert.Equal(t, want.Adjacent, got.Adjacent, "(%d, %d)", r, c)
			}
			// The hidden mine must not leak into the view.
			assert.False(t, got.Mine)
		}
	}
}

func TestApplyUpdateErrors(t *testing.T) {
	view, _ := mines.NewBoard(2, 2)
	var moveErr *mines.InvalidMoveError
	require.ErrorAs(t, view.ApplyUpdate(mines.UpdatedCell{Row: 2, Col: 0}), &moveErr)
	require.Error(t, view.ApplyUpdate(mines.UpdatedCell{Row: 0, Col: 0, Value: 0x40}))
}

func TestRender(t *testing.T) {
	board := boardWithMines(t, 2, 3, [2]int{0, 2})
	_, err := board.Reveal(1, 0)
	require.NoError(t, err)
	_, err = board.ToggleFlag(0, 2)
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, board.Render(&sb, false))
	require.Equal(t, "   012\n 0 .1F\n 1 .1#\n", sb.String())
}

func TestParseMove(t *testing.T) {
	cases := map[string]mines.Move{
		"3 4":     {Row: 3, Col: 4, Type: mines.Reveal},
		" 0 15 f": {Row: 0, Col: 15, Type: mines.Flag},
		"2 2 C":   {Row: 2, Col: 2, Type: mines.Chord},
		"1 1 r":   {Row: 1, Col: 1, Type: mines.Reveal},
	}
	for text, expected := range cases {
		move, err := mines.ParseMove(text)
		require.NoError(t, err, text)
		require.Equal(t, expected, move, text)
	}
	for _, text := range []string{"", "3", "a b", "1 2 x", "1 2 f extra"} {
		_, err := mines.ParseMove(text)
		require.Error(t, err, text)
	}
}
