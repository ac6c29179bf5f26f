package scores

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tomasstrnad1997/minesweeper/mines"
)

type Score struct {
	ID         int64
	PlayerID   uint32
	PlayerName string
	Seconds    int
	Difficulty mines.Difficulty
	GridSize   string
	Mines      int
	Completed  bool
	CreatedAt  time.Time
}

// Stats are the per difficulty totals of one player.
type Stats struct {
	PlayerID   uint32
	PlayerName string
	Difficulty mines.Difficulty
	TotalGames int
	TotalWins  int
	LastPlayed time.Time
}

func (s Stats) WinRate() float64 {
	if s.TotalGames == 0 {
		return 0
	}
	return float64(s.TotalWins) / float64(s.TotalGames)
}

// Submission is a finished round offered to the leaderboard.
type Submission struct {
	Seconds    int
	Difficulty mines.Difficulty
	GridSize   string
	Mines      int
	Completed  bool
}

func SubmissionFromOutcome(outcome mines.Outcome) Submission {
	return Submission{
		Seconds:    outcome.Seconds(),
		Difficulty: outcome.Difficulty,
		GridSize:   outcome.GridSize(),
		Mines:      outcome.Mines,
		Completed:  outcome.Won,
	}
}

var (
	ErrInvalidSubmission = errors.New("invalid score submission")
	// ErrUnranked is returned for rounds played on custom settings.
	ErrUnranked = errors.New("custom rounds are not ranked")
	ErrNoScore  = errors.New("no score recorded")
)

func rankedPreset(d mines.Difficulty) (mines.Settings, error) {
	if d == mines.Custom {
		return mines.Settings{}, ErrUnranked
	}
	preset, err := mines.Preset(d)
	if err != nil {
		return mines.Settings{}, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}
	return preset, nil
}

func (s Submission) Validate() error {
	if s.Seconds < 0 || s.Mines < 0 {
		return fmt.Errorf("%w: time and mines must be non-negative", ErrInvalidSubmission)
	}
	preset, err := rankedPreset(s.Difficulty)
	if err != nil {
		return err
	}
	if s.GridSize != preset.GridSize() || s.Mines != preset.Mines {
		return fmt.Errorf("%w: for %s difficulty, grid size must be %s and mines must be %d",
			ErrInvalidSubmission, s.Difficulty, preset.GridSize(), preset.Mines)
	}
	return nil
}

type Store interface {
	// BestScore returns ErrNoScore when the player has no score on the difficulty.
	BestScore(playerID uint32, difficulty mines.Difficulty) (*Score, error)
	InsertScore(playerID uint32, sub Submission, at time.Time) (*Score, error)
	// ScoresByDifficulty lists scores by ascending time.
	ScoresByDifficulty(difficulty mines.Difficulty, limit int) ([]Score, error)
	UpsertStats(playerID uint32, difficulty mines.Difficulty, completed bool, at time.Time) (*Stats, error)
	StatsForPlayer(playerID uint32) ([]Stats, error)
	// AllStats is ordered by difficulty, then by wins descending.
	AllStats() ([]Stats, error)
}

type Service struct {
	Store  Store
	Now    func() time.Time
	Logger log.FieldLogger
}

type Result struct {
	NewBest bool
	Best    *Score
}

// Report is what RecordOutcome stored for a finished round. Score is nil
// for lost rounds.
type Report struct {
	Score *Result
	Stats *Stats
}

func (s *Service) logger() log.FieldLogger {
	if s.Logger == nil {
		return log.StandardLogger()
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// SubmitScore keeps the submission only when it beats the player's best
// time on the difficulty.
func (s *Service) SubmitScore(playerID uint32, sub Submission) (*Result, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	best, err := s.Store.BestScore(playerID, sub.Difficulty)
	switch {
	case errors.Is(err, ErrNoScore):
		best = nil
	case err != nil:
		return nil, err
	}
	if best != nil && sub.Seconds >= best.Seconds {
		return &Result{NewBest: false, Best: best}, nil
	}
	score, err := s.Store.InsertScore(playerID, sub, s.now())
	if err != nil {
		return nil, err
	}
	s.logger().WithFields(log.Fields{
		"player":     playerID,
		"difficulty": sub.Difficulty,
		"seconds":    sub.Seconds,
	}).Debug("New best score")
	return &Result{NewBest: true, Best: score}, nil
}

func (s *Service) RecordResult(playerID uint32, difficulty mines.Difficulty, completed bool) (*Stats, error) {
	if _, err := rankedPreset(difficulty); err != nil {
		return nil, err
	}
	return s.Store.UpsertStats(playerID, difficulty, completed, s.now())
}

// RecordOutcome updates the player's stats and, for a won round, submits
// the time. Stats are written first; when the score cannot be saved the
// report still carries them alongside the error.
func (s *Service) RecordOutcome(playerID uint32, outcome mines.Outcome) (*Report, error) {
	stats, err := s.RecordResult(playerID, outcome.Difficulty, outcome.Won)
	if err != nil {
		return nil, err
	}
	report := &Report{Stats: stats}
	if !outcome.Won {
		return report, nil
	}
	if report.Score, err = s.SubmitScore(playerID, SubmissionFromOutcome(outcome)); err != nil {
		s.logger().WithError(err).WithField("player", playerID).Warn("Stats recorded but score was not saved")
		return report, fmt.Errorf("failed to save score: %w", err)
	}
	return report, nil
}

// Leaderboard lists the scores of a difficulty, fastest first. A limit of
// zero returns every score.
func (s *Service) Leaderboard(difficulty mines.Difficulty, limit int) ([]Score, error) {
	if _, err := rankedPreset(difficulty); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("negative leaderboard limit %d", limit)
	}
	return s.Store.ScoresByDifficulty(difficulty, limit)
}

func (s *Service) PlayerStats(playerID uint32) ([]Stats, error) {
	return s.Store.StatsForPlayer(playerID)
}

func (s *Service) AllStats() ([]Stats, error) {
	return s.Store.AllStats()
}
