package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/tomasstrnad1997/minesweeper/db/store"
	"github.com/tomasstrnad1997/minesweeper/mines"
	"github.com/tomasstrnad1997/minesweeper/players"
	"github.com/tomasstrnad1997/minesweeper/scores"
)

//go:embed sqlc/schema.sql
var ddl string

type SQLStore struct {
	Q   store.Queries
	DB  *sql.DB
	ctx context.Context
}

var (
	_ players.PlayerStore = (*SQLStore)(nil)
	_ scores.Store        = (*SQLStore)(nil)
)

func InitializeTables(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}

func (store *SQLStore) InitializeTables() error {
	err := InitializeTables(store.DB)
	if err != nil {
		return err
	}
	return store.InsertDifficulties()
}

// InitStore opens the sqlite database at path with foreign keys enforced.
func InitStore(path string) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path not set")
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", path))
	if err != nil {
		return nil, err
	}
	// Need to ping the database to check if the file could be opened
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	ctx := context.Background()

	store := &SQLStore{Q: *store.New(db), ctx: ctx, DB: db}
	return store, nil
}

func (s *SQLStore) Close() error {
	return s.DB.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func toPlayer(p store.Player) *players.Player {
	return &players.Player{
		ID:           uint32(p.ID),
		Name:         p.Username,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		CreatedAt:    time.Unix(p.CreatedAt, 0),
	}
}

func playerResult(p store.Player, err error) (*players.Player, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, players.ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return toPlayer(p), nil
}

func (s *SQLStore) CreatePlayer(name, email, hash string) (*players.Player, error) {
	params := store.CreatePlayerParams{Username: name, Email: email, PasswordHash: hash, CreatedAt: time.Now().Unix()}
	p, err := s.Q.CreatePlayer(s.ctx, params)
	if isUniqueViolation(err) {
		return nil, players.ErrPlayerExists
	}
	if err != nil {
		return nil, err
	}
	return toPlayer(p), nil
}

func (s *SQLStore) FindPlayerByName(name string) (*players.Player, error) {
	return playerResult(s.Q.GetPlayerByUsername(s.ctx, name))
}

func (s *SQLStore) FindPlayerByEmail(email string) (*players.Player, error) {
	return playerResult(s.Q.GetPlayerByEmail(s.ctx, email))
}

func (s *SQLStore) FindPlayerByID(id uint32) (*players.Player, error) {
	return playerResult(s.Q.GetPlayerByID(s.ctx, int64(id)))
}

// InsertDifficulties seeds the ranked difficulties the score tables
// reference.
func (s *SQLStore) InsertDifficulties() error {
	for _, d := range []mines.Difficulty{mines.Easy, mines.Medium, mines.Hard} {
		preset, err := mines.Preset(d)
		if err != nil {
			return err
		}
		params := store.InsertDifficultyParams{ID: int64(d), Name: d.String(), GridSize: preset.GridSize(), Mines: int64(preset.Mines)}
		if err := s.Q.InsertDifficulty(s.ctx, params); err != nil {
			return err
		}
	}
	return nil
}

func toScore(sc store.Score) *scores.Score {
	return &scores.Score{
		ID:         sc.ID,
		PlayerID:   uint32(sc.PlayerID),
		Seconds:    int(sc.Seconds),
		Difficulty: mines.Difficulty(sc.DifficultyID),
		GridSize:   sc.GridSize,
		Mines:      int(sc.Mines),
		Completed:  sc.Completed,
		CreatedAt:  time.Unix(sc.CreatedAt, 0),
	}
}

func (s *SQLStore) BestScore(playerID uint32, difficulty mines.Difficulty) (*scores.Score, error) {
	params := store.GetBestScoreParams{PlayerID: int64(playerID), DifficultyID: int64(difficulty)}
	sc, err := s.Q.GetBestScore(s.ctx, params)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, scores.ErrNoScore
	}
	if err != nil {
		return nil, err
	}
	return toScore(sc), nil
}

func (s *SQLStore) InsertScore(playerID uint32, sub scores.Submission, at time.Time) (*scores.Score, error) {
	params := store.InsertScoreParams{
		PlayerID:     int64(playerID),
		DifficultyID: int64(sub.Difficulty),
		Seconds:      int64(sub.Seconds),
		GridSize:     sub.GridSize,
		Mines:        int64(sub.Mines),
		Completed:    sub.Completed,
		CreatedAt:    at.Unix(),
	}
	sc, err := s.Q.InsertScore(s.ctx, params)
	if err != nil {
		return nil, err
	}
	return toScore(sc), nil
}

func (s *SQLStore) ScoresByDifficulty(difficulty mines.Difficulty, limit int) ([]scores.Score, error) {
	// sqlite treats a negative limit as no limit
	params := store.ListScoresByDifficultyParams{DifficultyID: int64(difficulty), Limit: -1}
	if limit > 0 {
		params.Limit = int64(limit)
	}
	rows, err := s.Q.ListScoresByDifficulty(s.ctx, params)
	if err != nil {
		return nil, err
	}
	result := make([]scores.Score, len(rows))
	for i, row := range rows {
		result[i] = scores.Score{
			ID:         row.ID,
			PlayerID:   uint32(row.PlayerID),
			PlayerName: row.Username,
			Seconds:    int(row.Seconds),
			Difficulty: mines.Difficulty(row.DifficultyID),
			GridSize:   row.GridSize,
			Mines:      int(row.Mines),
			Completed:  row.Completed,
			CreatedAt:  time.Unix(row.CreatedAt, 0),
		}
	}
	return result, nil
}

func (s *SQLStore) UpsertStats(playerID uint32, difficulty mines.Difficulty, completed bool, at time.Time) (*scores.Stats, error) {
	params := store.UpsertPlayerStatsParams{
		PlayerID:     int64(playerID),
		DifficultyID: int64(difficulty),
		LastPlayed:   at.Unix(),
	}
	if completed {
		params.TotalWins = 1
	}
	st, err := s.Q.UpsertPlayerStats(s.ctx, params)
	if err != nil {
		return nil, err
	}
	return &scores.Stats{
		PlayerID:   uint32(st.PlayerID),
		Difficulty: mines.Difficulty(st.DifficultyID),
		TotalGames: int(st.TotalGames),
		TotalWins:  int(st.TotalWins),
		LastPlayed: time.Unix(st.LastPlayed, 0),
	}, nil
}

func toStats(playerID int64, name string, difficulty, games, wins, lastPlayed int64) scores.Stats {
	return scores.Stats{
		PlayerID:   uint32(playerID),
		PlayerName: name,
		Difficulty: mines.Difficulty(difficulty),
		TotalGames: int(games),
		TotalWins:  int(wins),
		LastPlayed: time.Unix(lastPlayed, 0),
	}
}

func (s *SQLStore) StatsForPlayer(playerID uint32) ([]scores.Stats, error) {
	rows, err := s.Q.ListStatsForPlayer(s.ctx, int64(playerID))
	if err != nil {
		return nil, err
	}
	result := make([]scores.Stats, len(rows))
	for i, r := range rows {
		result[i] = toStats(r.PlayerID, r.Username, r.DifficultyID, r.TotalGames, r.TotalWins, r.LastPlayed)
	}
	return result, nil
}

func (s *SQLStore) AllStats() ([]scores.Stats, error) {
	rows, err := s.Q.ListAllStats(s.ctx)
	if err != nil {
		return nil, err
	}
	result := make([]scores.Stats, len(rows))
	for i, r := range rows {
		result[i] = toStats(r.PlayerID, r.Username, r.DifficultyID, r.TotalGames, r.TotalWins, r.LastPlayed)
	}
	return result, nil
}
