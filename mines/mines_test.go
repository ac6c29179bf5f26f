package mines_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasstrnad1997/minesweeper/mines"
)

// firstPick always takes the first remaining candidate, so placement fills
// eligible cells in row-major order.
type firstPick struct{}

func (firstPick) IntN(int) int { return 0 }

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func boardWithMines(t *testing.T, rows, cols int, positions ...[2]int) *mines.Board {
	t.Helper()
	board, err := mines.NewBoard(rows, cols)
	require.NoError(t, err)
	require.NoError(t, board.SetMines(positions))
	return board
}

func countMines(board *mines.Board) int {
	n := 0
	for _, row := range board.Cells {
		for _, cell := range row {
			if cell.Mine {
				n++
			}
		}
	}
	return n
}

func revealedSet(board *mines.Board) map[[2]int]bool {
	set := make(map[[2]int]bool)
	for _, row := range board.Cells {
		for _, cell := range row {
			if cell.Revealed {
				set[[2]int{cell.Row, cell.Col}] = true
			}
		}
	}
	return set
}

func TestNewBoardIsBlank(t *testing.T) {
	board, err := mines.NewBoard(4, 7)
	require.NoError(t, err)
	require.Equal(t, 4, board.Rows)
	require.Equal(t, 7, board.Cols)
	require.False(t, board.MinesPlaced())
	for r, row := range board.Cells {
		require.Len(t, row, 7)
		for c, cell := range row {
			assert.Equal(t, mines.Cell{Row: r, Col: c}, cell)
		}
	}
}

func TestNewBoardRejectsBadDimensions(t *testing.T) {
	for _, dims := range [][2]int{{0, 5}, {5, 0}, {-1, 3}, {mines.MaxRows + 1, 1}, {1, mines.MaxCols + 1}} {
		_, err := mines.NewBoard(dims[0], dims[1])
		var paramsErr *mines.InvalidBoardParamsError
		require.ErrorAs(t, err, &paramsErr, "dims %v", dims)
	}
}

func TestPlaceMinesKeepsSafeZoneClear(t *testing.T) {
	cases := []struct {
		rows, cols, mines, row, col int
	}{
		{10, 10, 10, 5, 5},
		{16, 16, 40, 0, 0},
		{16, 30, 99, 15, 29},
		{16, 30, 99, 7, 0},
		{4, 4, 12, 0, 0},
	}
	for _, tc := range cases {
		for seed := range uint64(20) {
			board, err := mines.NewBoard(tc.rows, tc.cols)
			require.NoError(t, err)
			require.NoError(t, board.PlaceMines(tc.mines, tc.row, tc.col, seeded(seed)))
			require.Equal(t, tc.mines, countMines(board))
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					r, c := tc.row+dr, tc.col+dc
					if board.ValidCellIndex(r, c) {
						require.False(t, board.Cells[r][c].Mine, "mine in safe zone at (%d, %d)", r, c)
					}
				}
			}
		}
	}
}

func TestPlaceMinesIsDeterministicForSeed(t *testing.T) {
	a, _ := mines.NewBoard(16, 30)
	b, _ := mines.NewBoard(16, 30)
	require.NoError(t, a.PlaceMines(99, 3, 3, seeded(42)))
	require.NoError(t, b.PlaceMines(99, 3, 3, seeded(42)))
	require.Equal(t, a.Cells, b.Cells)
}

func TestPlaceMinesRejectsTooManyMines(t *testing.T) {
	board, _ := mines.NewBoard(3, 3)
	// A corner click protects 4 cells, leaving 5.
	err := board.PlaceMines(6, 0, 0, firstPick{})
	var paramsErr *mines.InvalidBoardParamsError
	require.ErrorAs(t, err, &paramsErr)
	require.Equal(t, 5, paramsErr.Capacity)
	require.False(t, board.MinesPlaced())

	require.NoError(t, board.PlaceMines(5, 0, 0, firstPick{}))
	require.Equal(t, 5, countMines(board))
}

func TestPlaceMinesTwice(t *testing.T) {
	board, _ := mines.NewBoard(5, 5)
	require.NoError(t, board.PlaceMines(3, 0, 0, seeded(1)))
	require.ErrorIs(t, board.PlaceMines(3, 0, 0, seeded(1)), mines.ErrMinesPlaced)
}

func TestSetMinesRejectsDuplicates(t *testing.T) {
	board, _ := mines.NewBoard(3, 3)
	require.ErrorIs(t, board.SetMines([][2]int{{0, 1}, {2, 2}, {0, 1}}), mines.ErrDuplicateMine)
	require.False(t, board.MinesPlaced())
	require.Zero(t, countMines(board))

	var moveErr *mines.InvalidMoveError
	require.ErrorAs(t, board.SetMines([][2]int{{3, 0}}), &moveErr)

	require.NoError(t, board.SetMines([][2]int{{0, 1}, {2, 2}}))
	require.Equal(t, 2, countMines(board))
}

func TestPlaceMinesInvalidSafeCell(t *testing.T) {
	board, _ := mines.NewBoard(5, 5)
	var moveErr *mines.InvalidMoveError
	require.ErrorAs(t, board.PlaceMines(3, 5, 0, seeded(1)), &moveErr)
}

func TestComputeAdjacencyMatchesNeighbourCount(t *testing.T) {
	for seed := range uint64(10) {
		board, _ := mines.NewBoard(16, 30)
		require.NoError(t, board.PlaceMines(99, 8, 15, seeded(seed)))
		for r := range board.Rows {
			for c := range board.Cols {
				if board.Cells[r][c].Mine {
					continue
				}
				expected := 0
				for dr := -1; dr <= 1; dr++ {
					for dc := -1; dc <= 1; dc++ {
						nr, nc := r+dr, c+dc
						if (dr != 0 || dc != 0) && board.ValidCellIndex(nr, nc) && board.Cells[nr][nc].Mine {
							expected++
						}
					}
				}
				require.Equal(t, expected, board.Cells[r][c].Adjacent, "cell (%d, %d)", r, c)
			}
		}
	}
}

func TestCornerAndEdgeAdjacency(t *testing.T) {
	board := boardWithMines(t, 3, 3, [2]int{0, 1}, [2]int{1, 0}, [2]int{1, 1})
	assert.Equal(t, 3, board.Cells[0][0].Adjacent)
	assert.Equal(t, 2, board.Cells[0][2].Adjacent)
	assert.Equal(t, 2, board.Cells[2][0].Adjacent)
	assert.Equal(t, 1, board.Cells[2][2].Adjacent)
	assert.Equal(t, 2, board.Cells[1][2].Adjacent)
}

func TestThreeByThreeSingleMine(t *testing.T) {
	board, _ := mines.NewBoard(3, 3)
	require.NoError(t, board.PlaceMines(1, 2, 2, firstPick{}))
	require.True(t, board.Cells[0][0].Mine)

	expected := [3][3]int{
		{0, 1, 0},
		{1, 1, 0},
		{0, 0, 0},
	}
	for r := range 3 {
		for c := range 3 {
			if r == 0 && c == 0 {
				continue
			}
			assert.Equal(t, expected[r][c], board.Cells[r][c].Adjacent, "cell (%d, %d)", r, c)
		}
	}

	result, err := board.Reveal(2, 2)
	require.NoError(t, err)
	require.Equal(t, mines.CellRevealed, result.Result)
	require.Len(t, result.UpdatedCells, 8)
	require.False(t, board.Cells[0][0].Revealed)
	require.Equal(t, mines.Won, board.State())
}

func TestRevealIsIdempotent(t *testing.T) {
	board := boardWithMines(t, 4, 4, [2]int{0, 0})
	_, err := board.Reveal(0, 1)
	require.NoError(t, err)
	before := board.Clone()

	result, err := board.Reveal(0, 1)
	require.NoError(t, err)
	require.Equal(t, mines.NoChange, result.Result)
	require.Empty(t, result.UpdatedCells)
	require.Equal(t, before.Cells, board.Cells)
}

func TestRevealFlaggedCellIsNoop(t *testing.T) {
	board := boardWithMines(t, 4, 4, [2]int{3, 3})
	_, err := board.ToggleFlag(0, 0)
	require.NoError(t, err)
	result, err := board.Reveal(0, 0)
	require.NoError(t, err)
	require.Equal(t, mines.NoChange, result.Result)
	require.False(t, board.Cells[0][0].Revealed)
}

func TestFloodFillStopsAtBorder(t *testing.T) {
	// Single mine on the right edge: columns 0-2 are empty, column 3 and
	// the cells above and below the mine are numbered.
	board := boardWithMines(t, 3, 5, [2]int{1, 4})
	result, err := board.Reveal(0, 0)
	require.NoError(t, err)
	require.Equal(t, mines.CellRevealed, result.Result)

	revealed := revealedSet(board)
	require.Len(t, revealed, 12)
	require.Len(t, result.UpdatedCells, 12)
	for r := range 3 {
		for c := range 4 {
			require.True(t, revealed[[2]int{r, c}], "cell (%d, %d) should be revealed", r, c)
		}
	}
	require.False(t, board.Cells[0][4].Revealed)
	require.False(t, board.Cells[2][4].Revealed)
	require.False(t, board.Cells[1][4].Revealed)
}

func TestFloodFillSkipsFlags(t *testing.T) {
	board := boardWithMines(t, 3, 5, [2]int{1, 4})
	_, err := board.ToggleFlag(2, 1)
	require.NoError(t, err)
	_, err = board.Reveal(0, 0)
	require.NoError(t, err)
	require.False(t, board.Cells[2][1].Revealed)
	require.True(t, board.Cells[2][1].Flagged)
	// Reachable around the flag.
	require.True(t, board.Cells[2][2].Revealed)
}

// floodReference is an independent recursive definition of the expected
// flood: the connected zero region containing the start plus its border.
func floodReference(board *mines.Board, row, col int) map[[2]int]bool {
	out := make(map[[2]int]bool)
	var visit func(r, c int)
	visit = func(r, c int) {
		if !board.ValidCellIndex(r, c) || out[[2]int{r, c}] {
			return
		}
		out[[2]int{r, c}] = true
		if board.Cells[r][c].Adjacent != 0 {
			return
		}
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				visit(r+dr, c+dc)
			}
		}
	}
	visit(row, col)
	return out
}

func TestFloodFillCompleteness(t *testing.T) {
	for seed := range uint64(25) {
		board, _ := mines.NewBoard(16, 30)
		require.NoError(t, board.PlaceMines(60, 8, 8, seeded(seed)))
		expected := floodReference(board, 8, 8)
		_, err := board.Reveal(8, 8)
		require.NoError(t, err)
		require.Equal(t, expected, revealedSet(board), "seed %d", seed)
	}
}

func TestFloodFillWholeEmptyBoard(t *testing.T) {
	board, _ := mines.NewBoard(16, 30)
	result, err := board.Reveal(0, 0)
	require.NoError(t, err)
	require.Len(t, result.UpdatedCells, 16*30)
	require.Equal(t, mines.Won, board.State())
}

func TestRevealMineDisclosesAllMines(t *testing.T) {
	board := boardWithMines(t, 5, 5, [2]int{0, 0}, [2]int{2, 2}, [2]int{4, 4}, [2]int{4, 0})
	_, err := board.ToggleFlag(4, 4)
	require.NoError(t, err)

	result, err := board.Reveal(2, 2)
	require.NoError(t, err)
	require.Equal(t, mines.MineBlown, result.Result)
	require.Len(t, result.UpdatedCells, 4)
	for _, p := range [][2]int{{0, 0}, {2, 2}, {4, 4}, {4, 0}} {
		cell := board.Cells[p[0]][p[1]]
		require.True(t, cell.Revealed, "mine %v", p)
		require.False(t, cell.Flagged, "mine %v", p)
	}
	require.False(t, board.Cells[1][1].Revealed)
	require.Equal(t, mines.Lost, board.State())
}

func TestToggleFlag(t *testing.T) {
	board := boardWithMines(t, 3, 3, [2]int{0, 0})
	result, err := board.ToggleFlag(0, 0)
	require.NoError(t, err)
	require.Equal(t, mines.Flagged, result.Result)
	require.Equal(t, 1, board.FlagCount())

	result, err = board.ToggleFlag(0, 0)
	require.NoError(t, err)
	require.Equal(t, mines.Unflagged, result.Result)
	require.Equal(t, 0, board.FlagCount())

	_, err = board.Reveal(2, 2)
	require.NoError(t, err)
	result, err = board.ToggleFlag(2, 2)
	require.NoError(t, err)
	require.Equal(t, mines.NoChange, result.Result)
	require.False(t, board.Cells[2][2].Flagged)
}

func TestChordWithMatchingFlags(t *testing.T) {
	// Mine at (0,0); revealing (1,1) shows a 1.
	board := boardWithMines(t, 4, 4, [2]int{0, 0})
	_, err := board.Reveal(1, 1)
	require.NoError(t, err)
	require.Equal(t, 1, board.Cells[1][1].Adjacent)
	_, err = board.ToggleFlag(0, 0)
	require.NoError(t, err)

	result, err := board.Chord(1, 1)
	require.NoError(t, err)
	require.Equal(t, mines.CellRevealed, result.Result)
	// (2,2) is empty so the chord cascades over the rest of the board.
	require.Equal(t, mines.Won, board.State())
	require.False(t, board.Cells[0][0].Revealed)
}

func TestChordMismatchIsNoop(t *testing.T) {
	board := boardWithMines(t, 4, 4, [2]int{0, 0}, [2]int{0, 2})
	_, err := board.Reveal(1, 1)
	require.NoError(t, err)
	require.Equal(t, 2, board.Cells[1][1].Adjacent)
	_, err = board.ToggleFlag(0, 0)
	require.NoError(t, err)
	before := board.Clone()

	result, err := board.Chord(1, 1)
	require.NoError(t, err)
	require.Equal(t, mines.NoChange, result.Result)
	require.Equal(t, before.Cells, board.Cells)
}

func TestChordWrongFlagBlowsUp(t *testing.T) {
	board := boardWithMines(t, 4, 4, [2]int{0, 0})
	_, err := board.Reveal(1, 1)
	require.NoError(t, err)
	_, err = board.ToggleFlag(0, 1)
	require.NoError(t, err)

	result, err := board.Chord(1, 1)
	require.NoError(t, err)
	require.Equal(t, mines.MineBlown, result.Result)
	require.True(t, board.Cells[0][0].Revealed)
	require.Equal(t, mines.Lost, board.State())
}

func TestChordPreconditions(t *testing.T) {
	board := boardWithMines(t, 4, 4, [2]int{0, 0})
	// Unrevealed.
	result, err := board.Chord(1, 1)
	require.NoError(t, err)
	require.Equal(t, mines.NoChange, result.Result)

	// Revealed empty cell.
	_, err = board.Reveal(3, 3)
	require.NoError(t, err)
	result, err = board.Chord(3, 3)
	require.NoError(t, err)
	require.Equal(t, mines.NoChange, result.Result)
}

func TestInvalidCoordinates(t *testing.T) {
	board, _ := mines.NewBoard(10, 10)
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {10, 0}, {0, 10}} {
		_, err := board.Reveal(p[0], p[1])
		var moveErr *mines.InvalidMoveError
		require.True(t, errors.As(err, &moveErr), "reveal %v", p)
		_, err = board.ToggleFlag(p[0], p[1])
		require.ErrorAs(t, err, &moveErr)
		_, err = board.Chord(p[0], p[1])
		require.ErrorAs(t, err, &moveErr)
	}
}

func TestStateWonAndLossPriority(t *testing.T) {
	positions := [][2]int{{0, 0}, {0, 9}, {9, 0}, {9, 9}, {5, 5}, {2, 3}, {3, 7}, {7, 2}, {8, 6}, {4, 1}}
	board := boardWithMines(t, 10, 10, positions...)
	require.Equal(t, 10, countMines(board))
	require.Equal(t, mines.Playing, board.State())

	for r := range 10 {
		for c := range 10 {
			if !board.Cells[r][c].Mine {
				board.Cells[r][c].Revealed = true
			}
		}
	}
	require.Equal(t, mines.Won, board.State())

	board.Cells[5][5].Revealed = true
	require.Equal(t, mines.Lost, board.State())
}

func TestCloneDoesNotAlias(t *testing.T) {
	board := boardWithMines(t, 3, 3, [2]int{0, 0})
	snapshot := board.Clone()
	_, err := board.Reveal(2, 2)
	require.NoError(t, err)
	require.False(t, snapshot.Cells[2][2].Revealed)
	require.True(t, snapshot.MinesPlaced())
}
