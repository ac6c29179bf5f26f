package mines

import (
	"fmt"
	"io"
	"strings"
)

// Values of an UpdatedCell. A value below 0x10 is the adjacency count of a
// revealed cell.
const (
	ShowCount byte = 0x00
	ShowMine  byte = 0x10
	ShowFlag  byte = 0x20
	Unflag    byte = 0x30
)

// UpdatedCell is the client-visible form of a cell.
type UpdatedCell struct {
	Row   int
	Col   int
	Value byte
}

func CellUpdates(cells []Cell) []UpdatedCell {
	updates := make([]UpdatedCell, len(cells))
	for i, cell := range cells {
		var value byte
		switch {
		case cell.Revealed && cell.Mine:
			value = ShowMine
		case cell.Revealed:
			value = ShowCount | byte(cell.Adjacent)
		case cell.Flagged:
			value = ShowFlag
		default:
			// Neither flagged nor revealed so it must be an unflag
			value = Unflag
		}
		updates[i] = UpdatedCell{Row: cell.Row, Col: cell.Col, Value: value}
	}
	return updates
}

// VisibleUpdates lists every revealed or flagged cell, enough to rebuild
// the player's view of the board.
func (board *Board) VisibleUpdates() []UpdatedCell {
	var cells []Cell
	for r := range board.Rows {
		for c := range board.Cols {
			cell := board.Cells[r][c]
			if cell.Revealed || cell.Flagged {
				cells = append(cells, cell)
			}
		}
	}
	return CellUpdates(cells)
}

// ApplyUpdate writes an update into a view board, the inverse of
// CellUpdates.
func (board *Board) ApplyUpdate(update UpdatedCell) error {
	if err := board.checkIndex(update.Row, update.Col); err != nil {
		return err
	}
	cell := &board.Cells[update.Row][update.Col]
	if update.Value&0xF0 == 0 {
		cell.Revealed = true
		cell.Flagged = false
		cell.Adjacent = int(update.Value)
		return nil
	}
	switch update.Value {
	case ShowMine:
		cell.Mine = true
		cell.Revealed = true
		cell.Flagged = false
	case ShowFlag:
		cell.Flagged = true
	case Unflag:
		cell.Flagged = false
	default:
		return fmt.Errorf("unknown cell update value %#x", update.Value)
	}
	return nil
}

// Render writes the board as text, one row per line. Hidden mines are only
// drawn when showMines is set.
func (board *Board) Render(w io.Writer, showMines bool) error {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := range board.Cols {
		fmt.Fprintf(&sb, "%d", c%10)
	}
	sb.WriteByte('\n')
	for r := range board.Rows {
		fmt.Fprintf(&sb, "%2d ", r)
		for c := range board.Cols {
			cell := board.Cells[r][c]
			switch {
			case cell.Revealed && cell.Mine:
				sb.WriteByte('*')
			case cell.Revealed && cell.Adjacent == 0:
				sb.WriteByte('.')
			case cell.Revealed:
				fmt.Fprintf(&sb, "%d", cell.Adjacent)
			case cell.Flagged:
				sb.WriteByte('F')
			case showMines && cell.Mine:
				sb.WriteByte('o')
			default:
				sb.WriteByte('#')
			}
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// ParseMove reads a move in the form "<row> <col> [f|c]". A missing suffix
// means reveal.
func ParseMove(text string) (Move, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 || len(fields) > 3 {
		return Move{}, fmt.Errorf("incorrect input %q, expected \"<row> <col> [f|c]\"", text)
	}
	var move Move
	if _, err := fmt.Sscanf(fields[0]+" "+fields[1], "%d %d", &move.Row, &move.Col); err != nil {
		return Move{}, fmt.Errorf("incorrect coordinates %q: %w", text, err)
	}
	move.Type = Reveal
	if len(fields) == 3 {
		switch strings.ToLower(fields[2]) {
		case "f":
			move.Type = Flag
		case "c":
			move.Type = Chord
		case "r":
			move.Type = Reveal
		default:
			return Move{}, fmt.Errorf("%w: %q", ErrInvalidMoveType, fields[2])
		}
	}
	return move, nil
}
