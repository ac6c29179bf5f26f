package mines

import (
	"errors"
	"fmt"
	"strings"
)

type Difficulty byte

const (
	Custom Difficulty = iota
	Easy
	Medium
	Hard
)

// SafeZoneSize is the number of cells kept free of mines around the first
// revealed cell when it is not on an edge.
const SafeZoneSize = 9

var ErrUnknownDifficulty = errors.New("unknown difficulty")

var DifficultyNames = map[Difficulty]string{
	Custom: "custom",
	Easy:   "easy",
	Medium: "medium",
	Hard:   "hard",
}

func (d Difficulty) String() string {
	if name, ok := DifficultyNames[d]; ok {
		return name
	}
	return fmt.Sprintf("difficulty(%d)", byte(d))
}

func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, name := range DifficultyNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
}

// Settings configure a single round.
type Settings struct {
	Difficulty Difficulty
	Rows       int
	Cols       int
	Mines      int
}

var presets = map[Difficulty]Settings{
	Easy:   {Difficulty: Easy, Rows: 10, Cols: 10, Mines: 10},
	Medium: {Difficulty: Medium, Rows: 16, Cols: 16, Mines: 40},
	Hard:   {Difficulty: Hard, Rows: 16, Cols: 30, Mines: 99},
}

// Preset returns the fixed settings of a difficulty. Custom has no preset.
func Preset(d Difficulty) (Settings, error) {
	s, ok := presets[d]
	if !ok {
		return Settings{}, fmt.Errorf("%w: no preset for %s", ErrUnknownDifficulty, d)
	}
	return s, nil
}

func CustomSettings(rows, cols, mines int) (Settings, error) {
	s := Settings{Difficulty: Custom, Rows: rows, Cols: cols, Mines: mines}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Largest board a round may use.
const (
	MaxRows = 100
	MaxCols = 100
)

// MaxMines is the largest mine count that can always be placed outside the
// safe zone, wherever the first reveal lands.
func MaxMines(rows, cols int) int {
	return max(rows*cols-SafeZoneSize, 0)
}

func (s Settings) Validate() error {
	if s.Rows <= 0 || s.Cols <= 0 || s.Rows > MaxRows || s.Cols > MaxCols {
		return &InvalidBoardParamsError{Rows: s.Rows, Cols: s.Cols, Mines: s.Mines}
	}
	if s.Mines < 0 || s.Mines > MaxMines(s.Rows, s.Cols) {
		return &InvalidBoardParamsError{Rows: s.Rows, Cols: s.Cols, Mines: s.Mines, Capacity: MaxMines(s.Rows, s.Cols)}
	}
	if s.Difficulty != Custom {
		preset, err := Preset(s.Difficulty)
		if err != nil {
			return err
		}
		if preset != s {
			return fmt.Errorf("%s must be %s with %d mines, got %s with %d", s.Difficulty, preset.GridSize(), preset.Mines, s.GridSize(), s.Mines)
		}
	}
	return nil
}

// GridSize renders the dimensions as "<rows>x<cols>".
func (s Settings) GridSize() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}

func (s Settings) String() string {
	return fmt.Sprintf("%s %s, %d mines", s.Difficulty, s.GridSize(), s.Mines)
}
