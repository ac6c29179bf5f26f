package main

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasstrnad1997/minesweeper/config"
	"github.com/tomasstrnad1997/minesweeper/db"
	"github.com/tomasstrnad1997/minesweeper/gamelauncher"
	"github.com/tomasstrnad1997/minesweeper/mines"
	"github.com/tomasstrnad1997/minesweeper/players"
	"github.com/tomasstrnad1997/minesweeper/scores"
	"github.com/tomasstrnad1997/minesweeper/server"
)

// wallRand puts the Easy mines down column 5 when the first reveal is (0,0).
type wallRand struct {
	i int
}

func (r *wallRand) IntN(int) int {
	picks := []int{3, 10, 19, 28, 37, 46, 55, 64, 73, 82}
	v := picks[r.i%len(picks)]
	r.i++
	return v
}

func easyGame(t *testing.T) *mines.Game {
	t.Helper()
	settings, _ := mines.Preset(mines.Easy)
	game, err := mines.NewGame(settings, &wallRand{})
	require.NoError(t, err)
	return game
}

func TestPlayLocalWin(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("0 0\nnonsense\n20 20\n0 9\n")
	require.NoError(t, playLocal(in, &out, easyGame(t)))
	assert.Contains(t, out.String(), "incorrect input")
	assert.Contains(t, out.String(), "(20, 20)")
	assert.Contains(t, out.String(), "You won in")
}

func TestPlayLocalLoss(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("0 0\n4 5\n")
	game := easyGame(t)
	require.NoError(t, playLocal(in, &out, game))
	assert.Equal(t, mines.Lost, game.State())
	assert.Contains(t, out.String(), "You hit a mine")
	// The final picture shows every mine.
	assert.Contains(t, out.String(), " 9 ....2*####\n")
}

func TestPlayLocalQuit(t *testing.T) {
	var out bytes.Buffer
	game := easyGame(t)
	require.NoError(t, playLocal(strings.NewReader("5 5 f\nquit\n0 0\n"), &out, game))
	assert.Equal(t, mines.Playing, game.State())
	assert.Equal(t, 9, game.RemainingFlags())
}

func TestLeaderboardCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mines.db")
	cfg = config.Default()
	cfg.DBPath = path

	root := newRootCmd()
	root.SetArgs([]string{"initdb", "--db", path})
	require.NoError(t, root.Execute())

	store, err := db.InitStore(path)
	require.NoError(t, err)
	player, err := (&players.Service{Store: store}).Register("alice", "alice@example.com", "password")
	require.NoError(t, err)
	service := &scores.Service{Store: store, Now: func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }}
	_, err = service.RecordOutcome(player.ID, mines.Outcome{Difficulty: mines.Easy, Won: true, Elapsed: 17 * time.Second, Rows: 10, Cols: 10, Mines: 10})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	var out bytes.Buffer
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"leaderboard", "easy", "--db", path})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "alice")
	assert.Contains(t, out.String(), "17s")
	assert.Contains(t, out.String(), "10x10")

	root = newRootCmd()
	root.SetArgs([]string{"leaderboard", "custom", "--db", path})
	require.ErrorIs(t, root.Execute(), scores.ErrUnranked)
}

func TestCommandsNeedDatabase(t *testing.T) {
	cfg = config.Default()
	root := newRootCmd()
	root.SetArgs([]string{"initdb"})
	require.ErrorIs(t, root.Execute(), errNoDatabase)
}

func TestServersCommand(t *testing.T) {
	quiet := log.New()
	quiet.SetOutput(io.Discard)
	launcher, err := gamelauncher.CreateGameLauncher(gamelauncher.Options{
		Server: server.Options{Host: "127.0.0.1"},
		Logger: quiet,
	})
	require.NoError(t, err)
	go launcher.Loop()
	defer launcher.Close()

	cfg = config.Default()
	port := fmt.Sprint(launcher.Port)
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"servers", "--host", "127.0.0.1", "--port", port, "--spawn", "weekend"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "weekend")

	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"servers", "--host", "127.0.0.1", "--port", port})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "weekend")
	assert.Contains(t, out.String(), "Players")
}
