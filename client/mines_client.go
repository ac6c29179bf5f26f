package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"

	"github.com/tomasstrnad1997/minesweeper/mines"
	"github.com/tomasstrnad1997/minesweeper/players"
	"github.com/tomasstrnad1997/minesweeper/protocol"
)

var ErrQuit = errors.New("quit")

const usage = `Commands:
  <row> <col> [f|c]              reveal, flag or chord a cell
  new <difficulty>               start easy, medium or hard
  new <rows> <cols> <mines>      start a custom round
  restart                        start again with the same settings
  reload                         fetch the board from the server
  register <name> <email> <pw>   create an account
  login <name|email> <pw>        log in
  scores <difficulty> [limit]    show the leaderboard
  stats [all|<player id>]        show your, everybody's or a player's stats
  info                           show server info
  quit
`

// Client is a text front end for a game server. Server messages update a
// view board that is printed after every change.
type Client struct {
	controller *protocol.ConnectionController
	logger     log.FieldLogger

	outMux sync.Mutex
	out    io.Writer

	mu       sync.Mutex
	board    *mines.Board
	settings mines.Settings
	player   *players.PlayerInfo
	token    *players.AuthToken
}

func New(out io.Writer, logger log.FieldLogger) *Client {
	if logger == nil {
		logger = log.StandardLogger()
	}
	controller := protocol.CreateConnectionController()
	controller.Logger = logger
	client := &Client{controller: controller, logger: logger, out: out}
	client.registerHandlers()
	return client
}

func (client *Client) Connect(host string, port uint16) error {
	client.controller.AttemptReconnect = true
	client.controller.OnReconnect = client.resume
	if err := client.controller.Connect(host, port); err != nil {
		return err
	}
	client.logger.WithField("address", client.controller.GetServerAddress()).Info("Connected to server")
	return nil
}

// resume logs back in with the last token and asks for the board again.
func (client *Client) resume() {
	client.logger.WithField("address", client.controller.GetServerAddress()).Info("Reconnected, resuming session")
	client.mu.Lock()
	token := client.token
	client.mu.Unlock()
	if token != nil {
		if err := client.send(protocol.EncodeAuthWithToken(*token)); err != nil {
			client.logger.WithError(err).Warn("Failed to log in again")
		}
	}
	if err := client.send(protocol.EncodeRequestReload()); err != nil {
		client.logger.WithError(err).Warn("Failed to request reload")
	}
}

// SetConnection uses an established connection, mostly for tests.
func (client *Client) SetConnection(conn net.Conn) error {
	return client.controller.SetConnection(conn)
}

// Listen handles server messages until the connection is gone.
func (client *Client) Listen() error {
	return client.controller.ReadServerResponse()
}

func (client *Client) Close() error {
	return client.controller.Close()
}

// Board returns a copy of the current view, nil before the first round.
func (client *Client) Board() *mines.Board {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.board == nil {
		return nil
	}
	return client.board.Clone()
}

func (client *Client) Player() *players.PlayerInfo {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.player
}

func (client *Client) printf(format string, args ...any) {
	client.outMux.Lock()
	defer client.outMux.Unlock()
	fmt.Fprintf(client.out, format, args...)
}

func (client *Client) printBoard() {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.board == nil {
		return
	}
	client.outMux.Lock()
	defer client.outMux.Unlock()
	if err := client.board.Render(client.out, false); err != nil {
		client.logger.WithError(err).Error("Failed to draw board")
	}
}

func (client *Client) send(message []byte, err error) error {
	if err != nil {
		return err
	}
	return client.controller.SendMessage(message)
}

// Execute runs one line of user input.
func (client *Client) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch strings.ToLower(fields[0]) {
	case "quit", "exit":
		return ErrQuit
	case "help":
		client.printf("%s", usage)
		return nil
	case "new":
		settings, err := parseSettings(fields[1:])
		if err != nil {
			return err
		}
		return client.send(protocol.EncodeGameStart(settings))
	case "restart":
		client.mu.Lock()
		settings := client.settings
		client.mu.Unlock()
		if settings == (mines.Settings{}) {
			return errors.New("no round to restart")
		}
		return client.send(protocol.EncodeGameStart(settings))
	case "reload":
		return client.send(protocol.EncodeRequestReload())
	case "register":
		if len(fields) != 4 {
			return errors.New("usage: register <name> <email> <password>")
		}
		return client.send(protocol.EncodeRegisterPlayerRequest(protocol.RegisterPlayerParams{Name: fields[1], Email: fields[2], Password: fields[3]}))
	case "login":
		if len(fields) != 3 {
			return errors.New("usage: login <name|email> <password>")
		}
		return client.send(protocol.EncodeAuthRequest(protocol.AuthPlayerParams{Name: fields[1], Password: fields[2]}))
	case "scores":
		request, err := parseScoresRequest(fields[1:])
		if err != nil {
			return err
		}
		return client.send(protocol.EncodeGetScores(request))
	case "stats":
		switch {
		case len(fields) == 1:
			return client.send(protocol.EncodeGetStats(protocol.OwnStats))
		case len(fields) == 2 && fields[1] == "all":
			return client.send(protocol.EncodeGetStats(protocol.AllStats))
		case len(fields) == 2:
			id, err := strconv.ParseUint(fields[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid player id %q", fields[1])
			}
			return client.send(protocol.EncodeGetPlayerStats(uint32(id)))
		}
		return errors.New("usage: stats [all|<player id>]")
	case "info":
		return client.send(protocol.EncodeGetServerInfo())
	}
	move, err := mines.ParseMove(line)
	if err != nil {
		return err
	}
	return client.send(protocol.EncodeMove(move))
}

func parseSettings(args []string) (mines.Settings, error) {
	switch len(args) {
	case 1:
		difficulty, err := mines.ParseDifficulty(args[0])
		if err != nil {
			return mines.Settings{}, err
		}
		return mines.Preset(difficulty)
	case 3:
		values := make([]int, 3)
		for i, arg := range args {
			v, err := strconv.Atoi(arg)
			if err != nil {
				return mines.Settings{}, fmt.Errorf("invalid number %q", arg)
			}
			values[i] = v
		}
		return mines.CustomSettings(values[0], values[1], values[2])
	}
	return mines.Settings{}, errors.New("usage: new <difficulty> | new <rows> <cols> <mines>")
}

func parseScoresRequest(args []string) (protocol.ScoresRequest, error) {
	if len(args) == 0 || len(args) > 2 {
		return protocol.ScoresRequest{}, errors.New("usage: scores <difficulty> [limit]")
	}
	difficulty, err := mines.ParseDifficulty(args[0])
	if err != nil {
		return protocol.ScoresRequest{}, err
	}
	request := protocol.ScoresRequest{Difficulty: difficulty}
	if len(args) == 2 {
		limit, err := strconv.Atoi(args[1])
		if err != nil || limit < 0 {
			return protocol.ScoresRequest{}, fmt.Errorf("invalid limit %q", args[1])
		}
		request.Limit = limit
	}
	return request, nil
}

// Run reads commands from in until it is exhausted or the user quits.
func (client *Client) Run(in io.Reader) error {
	client.printf("%s", usage)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		err := client.Execute(scanner.Text())
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			client.printf("%v\n", err)
		}
	}
	return scanner.Err()
}

func (client *Client) registerHandlers() {
	controller := client.controller
	controller.RegisterHandler(protocol.StartGame, client.handleGameStart)
	controller.RegisterHandler(protocol.CellUpdate, client.handleCellUpdates)
	controller.RegisterHandler(protocol.GameEnd, client.handleGameEnd)
	controller.RegisterHandler(protocol.TextMessage, func(data []byte) error {
		msg, err := protocol.DecodeTextMessage(data)
		if err != nil {
			return err
		}
		client.printf("%s\n", msg)
		return nil
	})
	controller.RegisterHandler(protocol.SendServerInfo, func(data []byte) error {
		info, err := protocol.DecodeSendServerInfo(data)
		if err != nil {
			return err
		}
		client.printf("%s at %s:%d, %d players\n", info.Name, info.Host, info.Port, info.PlayerCount)
		return nil
	})
	controller.RegisterHandler(protocol.RegisterPlayerResponse, func(data []byte) error {
		response, err := protocol.DecodeRegisterPlayerResponse(data)
		if err != nil {
			return err
		}
		client.printf("%s\n", response.Message)
		return nil
	})
	controller.RegisterHandler(protocol.AuthResponseMessage, client.handleAuthResponse)
	controller.RegisterHandler(protocol.SendScores, client.handleScores)
	controller.RegisterHandler(protocol.SendStats, client.handleStats)
}

func (client *Client) handleGameStart(data []byte) error {
	settings, err := protocol.DecodeGameStart(data)
	if err != nil {
		return err
	}
	board, err := mines.NewBoard(settings.Rows, settings.Cols)
	if err != nil {
		return err
	}
	client.mu.Lock()
	client.board = board
	client.settings = *settings
	client.mu.Unlock()
	client.printf("New %s round, %d mines\n", settings.GridSize(), settings.Mines)
	client.printBoard()
	return nil
}

func (client *Client) handleCellUpdates(data []byte) error {
	updates, err := protocol.DecodeCellUpdates(data)
	if err != nil {
		return err
	}
	client.mu.Lock()
	if client.board == nil {
		client.mu.Unlock()
		return errors.New("cell updates before a round started")
	}
	for _, update := range updates {
		if err := client.board.ApplyUpdate(update); err != nil {
			client.mu.Unlock()
			return err
		}
	}
	remaining := client.settings.Mines - client.board.FlagCount()
	client.mu.Unlock()
	client.printBoard()
	client.printf("Mines left: %d\n", remaining)
	return nil
}

func (client *Client) handleGameEnd(data []byte) error {
	info, err := protocol.DecodeGameEnd(data)
	if err != nil {
		return err
	}
	switch info.Type {
	case protocol.Win:
		client.printf("You won in %ds\n", info.Seconds)
		if info.NewBest {
			client.printf("New personal best!\n")
		}
	case protocol.Loss:
		client.printf("You hit a mine after %ds\n", info.Seconds)
	case protocol.Aborted:
		client.printf("Round abandoned\n")
	}
	return nil
}

func (client *Client) handleAuthResponse(data []byte) error {
	response, err := protocol.DecodeAuthResponse(data)
	if err != nil {
		return err
	}
	if !response.Success {
		client.printf("Login failed\n")
		return nil
	}
	client.mu.Lock()
	client.player = response.Player
	client.token = response.Token
	client.mu.Unlock()
	client.logger.WithField("player", response.Player.ID).Debug("Logged in")
	client.printf("Logged in as %s (id %d)\n", response.Player.Name, response.Player.ID)
	return nil
}

func (client *Client) handleScores(data []byte) error {
	difficulty, list, err := protocol.DecodeSendScores(data)
	if err != nil {
		return err
	}
	client.outMux.Lock()
	defer client.outMux.Unlock()
	fmt.Fprintf(client.out, "Best times on %s\n", difficulty)
	w := tabwriter.NewWriter(client.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPlayer\tTime\tDate")
	for i, score := range list {
		fmt.Fprintf(w, "%d\t%s\t%ds\t%s\n", i+1, score.PlayerName, score.Seconds, score.CreatedAt.Format("2006-01-02"))
	}
	return w.Flush()
}

func (client *Client) handleStats(data []byte) error {
	list, err := protocol.DecodeSendStats(data)
	if err != nil {
		return err
	}
	client.outMux.Lock()
	defer client.outMux.Unlock()
	w := tabwriter.NewWriter(client.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Id\tPlayer\tDifficulty\tGames\tWins\tWin rate")
	for _, stats := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%.0f%%\n", stats.PlayerID, stats.PlayerName, stats.Difficulty, stats.TotalGames, stats.TotalWins, stats.WinRate()*100)
	}
	return w.Flush()
}
