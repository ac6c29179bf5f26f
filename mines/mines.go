package mines

import (
	"errors"
	"fmt"
)

type Cell struct {
	Mine     bool
	Revealed bool
	Flagged  bool
	// Adjacent is only meaningful for non-mine cells.
	Adjacent int
	Row      int
	Col      int
}

// Board is the grid of a single round. Cells are indexed [row][col].
type Board struct {
	Rows        int
	Cols        int
	Cells       [][]Cell
	minesPlaced bool
}

// Rand is the random source used for mine placement.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type MoveResultType int

const (
	NoChange MoveResultType = iota
	MineBlown
	CellRevealed
	Flagged
	Unflagged
	GameWon
)

func (t MoveResultType) String() string {
	switch t {
	case NoChange:
		return "NoChange"
	case MineBlown:
		return "MineBlown"
	case CellRevealed:
		return "CellRevealed"
	case Flagged:
		return "Flagged"
	case Unflagged:
		return "Unflagged"
	case GameWon:
		return "GameWon"
	default:
		return fmt.Sprintf("MoveResultType(%d)", int(t))
	}
}

// MoveResult holds copies of every cell whose visible state changed.
type MoveResult struct {
	Result       MoveResultType
	UpdatedCells []Cell
}

var (
	ErrMinesPlaced   = errors.New("mines already placed")
	ErrDuplicateMine = errors.New("duplicate mine position")
)

type InvalidMoveError struct {
	Row  int
	Col  int
	Rows int
	Cols int
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("move out of range - (%d, %d) - board (%d, %d)", e.Row, e.Col, e.Rows, e.Cols)
}

type InvalidBoardParamsError struct {
	Rows  int
	Cols  int
	Mines int
	// Capacity is the number of cells mines may occupy, if known.
	Capacity int
}

func (e *InvalidBoardParamsError) Error() string {
	switch {
	case e.Rows <= 0:
		return fmt.Sprintf("cannot create a board with %d rows", e.Rows)
	case e.Cols <= 0:
		return fmt.Sprintf("cannot create a board with %d columns", e.Cols)
	case e.Rows > MaxRows || e.Cols > MaxCols:
		return fmt.Sprintf("board %dx%d is larger than %dx%d", e.Rows, e.Cols, MaxRows, MaxCols)
	case e.Mines < 0:
		return fmt.Sprintf("cannot create a board with negative amount of mines: %d", e.Mines)
	case e.Mines > e.Capacity:
		return fmt.Sprintf("not enough space for %d mines on %dx%d board (at most %d outside the safe zone)", e.Mines, e.Rows, e.Cols, e.Capacity)
	default:
		return "cannot construct board: unknown error"
	}
}

// NewBoard returns a blank board without mines.
func NewBoard(rows, cols int) (*Board, error) {
	if rows <= 0 || cols <= 0 || rows > MaxRows || cols > MaxCols {
		return nil, &InvalidBoardParamsError{Rows: rows, Cols: cols}
	}
	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
		for c := range cells[r] {
			cells[r][c] = Cell{Row: r, Col: c}
		}
	}
	return &Board{Rows: rows, Cols: cols, Cells: cells}, nil
}

func (board *Board) ValidCellIndex(row, col int) bool {
	return !(row < 0 || row >= board.Rows || col < 0 || col >= board.Cols)
}

func (board *Board) checkIndex(row, col int) error {
	if !board.ValidCellIndex(row, col) {
		return &InvalidMoveError{Row: row, Col: col, Rows: board.Rows, Cols: board.Cols}
	}
	return nil
}

func (board *Board) MinesPlaced() bool {
	return board.minesPlaced
}

func inSafeZone(row, col, safeRow, safeCol int) bool {
	return abs(row-safeRow) <= 1 && abs(col-safeCol) <= 1
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PlaceMines marks count distinct cells outside the 3x3 safe zone around
// (safeRow, safeCol) as mines and computes adjacency counts.
func (board *Board) PlaceMines(count, safeRow, safeCol int, rng Rand) error {
	if board.minesPlaced {
		return ErrMinesPlaced
	}
	if err := board.checkIndex(safeRow, safeCol); err != nil {
		return err
	}
	candidates := make([]int, 0, board.Rows*board.Cols)
	for r := range board.Rows {
		for c := range board.Cols {
			if !inSafeZone(r, c, safeRow, safeCol) {
				candidates = append(candidates, r*board.Cols+c)
			}
		}
	}
	if count < 0 || count > len(candidates) {
		return &InvalidBoardParamsError{Rows: board.Rows, Cols: board.Cols, Mines: count, Capacity: len(candidates)}
	}
	// Partial Fisher-Yates: the first count entries end up a uniform sample.
	for i := range count {
		j := i + rng.IntN(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}
	for _, position := range candidates[:count] {
		board.Cells[position/board.Cols][position%board.Cols].Mine = true
	}
	board.minesPlaced = true
	board.ComputeAdjacency()
	return nil
}

// SetMines places mines at fixed positions. It is meant for replaying a
// known layout; ordinary rounds use PlaceMines.
func (board *Board) SetMines(positions [][2]int) error {
	if board.minesPlaced {
		return ErrMinesPlaced
	}
	seen := make(map[[2]int]bool, len(positions))
	for _, p := range positions {
		if err := board.checkIndex(p[0], p[1]); err != nil {
			return err
		}
		if seen[p] {
			return fmt.Errorf("%w: (%d, %d)", ErrDuplicateMine, p[0], p[1])
		}
		seen[p] = true
	}
	for _, p := range positions {
		board.Cells[p[0]][p[1]].Mine = true
	}
	board.minesPlaced = true
	board.ComputeAdjacency()
	return nil
}

func (board *Board) ComputeAdjacency() {
	for r := range board.Rows {
		for c := range board.Cols {
			cell := &board.Cells[r][c]
			if cell.Mine {
				cell.Adjacent = 0
				continue
			}
			count := 0
			board.forEachNeighbour(r, c, func(n *Cell) {
				if n.Mine {
					count++
				}
			})
			cell.Adjacent = count
		}
	}
}

func (board *Board) forEachNeighbour(row, col int, fn func(*Cell)) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if board.ValidCellIndex(r, c) {
				fn(&board.Cells[r][c])
			}
		}
	}
}

// Reveal opens a cell. Opening a mine discloses every mine on the board;
// opening an empty cell flood fills its region. Reveal does not decide
// whether the round is over, see State.
func (board *Board) Reveal(row, col int) (*MoveResult, error) {
	if err := board.checkIndex(row, col); err != nil {
		return nil, err
	}
	cell := &board.Cells[row][col]
	if cell.Revealed || cell.Flagged {
		return &MoveResult{NoChange, nil}, nil
	}
	cell.Revealed = true
	updated := []Cell{*cell}
	if cell.Mine {
		updated = append(updated, board.discloseMines()...)
		return &MoveResult{MineBlown, updated}, nil
	}
	if cell.Adjacent == 0 {
		updated = board.cascade(cell, updated)
	}
	return &MoveResult{CellRevealed, updated}, nil
}

func (board *Board) cascade(start *Cell, updated []Cell) []Cell {
	queue := []*Cell{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		board.forEachNeighbour(current.Row, current.Col, func(n *Cell) {
			if n.Revealed || n.Flagged {
				return
			}
			n.Revealed = true
			updated = append(updated, *n)
			if n.Adjacent == 0 && !n.Mine {
				queue = append(queue, n)
			}
		})
	}
	return updated
}

func (board *Board) discloseMines() []Cell {
	var updated []Cell
	for r := range board.Rows {
		for c := range board.Cols {
			cell := &board.Cells[r][c]
			if cell.Mine && !cell.Revealed {
				cell.Flagged = false
				cell.Revealed = true
				updated = append(updated, *cell)
			}
		}
	}
	return updated
}

func (board *Board) ToggleFlag(row, col int) (*MoveResult, error) {
	if err := board.checkIndex(row, col); err != nil {
		return nil, err
	}
	cell := &board.Cells[row][col]
	if cell.Revealed {
		return &MoveResult{NoChange, nil}, nil
	}
	cell.Flagged = !cell.Flagged
	result := Flagged
	if !cell.Flagged {
		result = Unflagged
	}
	return &MoveResult{result, []Cell{*cell}}, nil
}

// Chord reveals all unflagged neighbours of a numbered cell once the number
// of flagged neighbours matches its count.
func (board *Board) Chord(row, col int) (*MoveResult, error) {
	if err := board.checkIndex(row, col); err != nil {
		return nil, err
	}
	cell := &board.Cells[row][col]
	if !cell.Revealed || cell.Flagged || cell.Mine || cell.Adjacent == 0 {
		return &MoveResult{NoChange, nil}, nil
	}
	flags := 0
	board.forEachNeighbour(row, col, func(n *Cell) {
		if n.Flagged {
			flags++
		}
	})
	if flags != cell.Adjacent {
		return &MoveResult{NoChange, nil}, nil
	}
	var targets [][2]int
	board.forEachNeighbour(row, col, func(n *Cell) {
		if !n.Revealed && !n.Flagged {
			targets = append(targets, [2]int{n.Row, n.Col})
		}
	})
	result := &MoveResult{Result: NoChange}
	for _, t := range targets {
		res, err := board.Reveal(t[0], t[1])
		if err != nil {
			return nil, err
		}
		switch res.Result {
		case MineBlown:
			result.Result = MineBlown
		case CellRevealed:
			if result.Result == NoChange {
				result.Result = CellRevealed
			}
		}
		result.UpdatedCells = append(result.UpdatedCells, res.UpdatedCells...)
	}
	return result, nil
}

// State reports Lost if any mine is revealed, Won if every other cell is
// revealed and Playing otherwise.
func (board *Board) State() GameState {
	hidden := 0
	for r := range board.Rows {
		for c := range board.Cols {
			cell := &board.Cells[r][c]
			if cell.Mine && cell.Revealed {
				return Lost
			}
			if !cell.Mine && !cell.Revealed {
				hidden++
			}
		}
	}
	if hidden == 0 {
		return Won
	}
	return Playing
}

func (board *Board) FlagCount() int {
	flags := 0
	for r := range board.Rows {
		for c := range board.Cols {
			if board.Cells[r][c].Flagged {
				flags++
			}
		}
	}
	return flags
}

func (board *Board) Clone() *Board {
	cells := make([][]Cell, board.Rows)
	for r := range cells {
		cells[r] = make([]Cell, board.Cols)
		copy(cells[r], board.Cells[r])
	}
	return &Board{Rows: board.Rows, Cols: board.Cols, Cells: cells, minesPlaced: board.minesPlaced}
}
