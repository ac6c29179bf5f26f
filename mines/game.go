package mines

import (
	"errors"
	"fmt"
	"time"
)

type GameState int

const (
	Playing GameState = iota
	Won
	Lost
)

func (s GameState) String() string {
	switch s {
	case Playing:
		return "Playing"
	case Won:
		return "Won"
	case Lost:
		return "Lost"
	default:
		return fmt.Sprintf("GameState(%d)", int(s))
	}
}

type MoveType byte

const (
	Reveal MoveType = 0x01
	Flag   MoveType = 0x02
	Chord  MoveType = 0x03
)

type Move struct {
	Row  int
	Col  int
	Type MoveType
}

func (move Move) String() string {
	msg := fmt.Sprintf("(%d, %d) ", move.Row, move.Col)
	switch move.Type {
	case Reveal:
		return msg + "Reveal"
	case Flag:
		return msg + "Flag"
	case Chord:
		return msg + "Chord"
	default:
		return msg + "UNKNOWN"
	}
}

var ErrInvalidMoveType = errors.New("invalid move type")

// Outcome describes a finished round in the terms the score keeping needs.
type Outcome struct {
	Difficulty Difficulty
	Won        bool
	Elapsed    time.Duration
	Rows       int
	Cols       int
	Mines      int
}

// Seconds is the elapsed time in whole seconds, as shown by the round clock.
func (o Outcome) Seconds() int {
	return int(o.Elapsed / time.Second)
}

func (o Outcome) GridSize() string {
	return fmt.Sprintf("%dx%d", o.Rows, o.Cols)
}

// Game owns the board, state and settings of the current round.
type Game struct {
	Settings Settings
	board    *Board
	state    GameState
	rng      Rand
	timer    *Timer
	outcome  *Outcome
}

type GameOption func(*Game)

// WithClock replaces the wall clock used by the round timer.
func WithClock(now func() time.Time) GameOption {
	return func(g *Game) {
		g.timer = NewTimer(now)
	}
}

func NewGame(settings Settings, rng Rand, opts ...GameOption) (*Game, error) {
	if rng == nil {
		return nil, fmt.Errorf("game requires a random source")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	board, err := NewBoard(settings.Rows, settings.Cols)
	if err != nil {
		return nil, err
	}
	game := &Game{Settings: settings, board: board, rng: rng, timer: NewTimer(nil)}
	for _, opt := range opts {
		opt(game)
	}
	return game, nil
}

func (g *Game) State() GameState {
	return g.state
}

// Snapshot returns a copy of the board that does not alias round state.
func (g *Game) Snapshot() *Board {
	return g.board.Clone()
}

func (g *Game) VisibleUpdates() []UpdatedCell {
	return g.board.VisibleUpdates()
}

// RemainingFlags is the mine count minus placed flags. It goes negative
// when the player flags more cells than there are mines.
func (g *Game) RemainingFlags() int {
	return g.Settings.Mines - g.board.FlagCount()
}

func (g *Game) Elapsed() time.Duration {
	return g.timer.Elapsed()
}

func (g *Game) Started() bool {
	return g.board.MinesPlaced()
}

// Outcome reports how the round ended. ok is false while it is running.
func (g *Game) Outcome() (outcome Outcome, ok bool) {
	if g.outcome == nil {
		return Outcome{}, false
	}
	return *g.outcome, true
}

func noChange() *MoveResult {
	return &MoveResult{NoChange, nil}
}

func (g *Game) Reveal(row, col int) (*MoveResult, error) {
	if err := g.board.checkIndex(row, col); err != nil {
		return nil, err
	}
	if g.state != Playing {
		return noChange(), nil
	}
	if !g.board.MinesPlaced() {
		if g.board.Cells[row][col].Flagged {
			return noChange(), nil
		}
		if err := g.board.PlaceMines(g.Settings.Mines, row, col, g.rng); err != nil {
			return nil, err
		}
		g.timer.Start()
	}
	result, err := g.board.Reveal(row, col)
	if err != nil {
		return nil, err
	}
	g.settle(result)
	return result, nil
}

func (g *Game) Flag(row, col int) (*MoveResult, error) {
	if err := g.board.checkIndex(row, col); err != nil {
		return nil, err
	}
	if g.state != Playing {
		return noChange(), nil
	}
	return g.board.ToggleFlag(row, col)
}

func (g *Game) Chord(row, col int) (*MoveResult, error) {
	if err := g.board.checkIndex(row, col); err != nil {
		return nil, err
	}
	if g.state != Playing {
		return noChange(), nil
	}
	result, err := g.board.Chord(row, col)
	if err != nil {
		return nil, err
	}
	g.settle(result)
	return result, nil
}

func (g *Game) MakeMove(move Move) (*MoveResult, error) {
	switch move.Type {
	case Reveal:
		return g.Reveal(move.Row, move.Col)
	case Flag:
		return g.Flag(move.Row, move.Col)
	case Chord:
		return g.Chord(move.Row, move.Col)
	default:
		return nil, fmt.Errorf("%w: %#x", ErrInvalidMoveType, byte(move.Type))
	}
}

func (g *Game) settle(result *MoveResult) {
	if result.Result == NoChange {
		return
	}
	state := g.board.State()
	if state == Playing {
		return
	}
	g.state = state
	g.timer.Stop()
	g.outcome = &Outcome{
		Difficulty: g.Settings.Difficulty,
		Won:        state == Won,
		Elapsed:    g.timer.Elapsed(),
		Rows:       g.Settings.Rows,
		Cols:       g.Settings.Cols,
		Mines:      g.Settings.Mines,
	}
	if state == Won {
		result.Result = GameWon
	} else {
		result.Result = MineBlown
	}
}

// Reset starts a new round with the current settings. The running round
// is left untouched when the settings cannot make a board.
func (g *Game) Reset() error {
	board, err := NewBoard(g.Settings.Rows, g.Settings.Cols)
	if err != nil {
		return err
	}
	g.board = board
	g.state = Playing
	g.outcome = nil
	g.timer.Reset()
	return nil
}

func (g *Game) ChangeSettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	g.Settings = settings
	return g.Reset()
}
