package server

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tomasstrnad1997/minesweeper/mines"
	"github.com/tomasstrnad1997/minesweeper/players"
	"github.com/tomasstrnad1997/minesweeper/protocol"
	"github.com/tomasstrnad1997/minesweeper/scores"
)

// Session is one connected client. Its round is only touched by the
// command loop.
type Session struct {
	id         int
	client     net.Conn
	writeMutex sync.Mutex
	game       *mines.Game
	player     *players.Player
	logger     *log.Entry
}

type MessageHandler func(data []byte, session *Session) error

type command struct {
	message []byte
	session *Session
}

type Options struct {
	Name string
	Host string
	// Port 0 picks a free port.
	Port uint16
	// Players enables accounts. Without it auth requests are refused.
	Players *players.Service
	// Scores records finished rounds of authenticated sessions.
	Scores      *scores.Service
	TokenSecret []byte
	TokenTTL    time.Duration
	// Settings of the round every new session starts with.
	Settings mines.Settings
	NewRand  func() mines.Rand
	Clock    func() time.Time
	Logger   *log.Logger
}

type Server struct {
	Name           string
	Port           uint16
	listener       net.Listener
	handlers       map[protocol.MessageType]MessageHandler
	messageChannel chan command
	sessions       map[int]*Session
	sessionsMux    sync.Mutex
	nextID         int
	opts           Options
	logger         *log.Logger
	done           chan struct{}
	closeOnce      sync.Once
	wg             sync.WaitGroup
}

const defaultTokenTTL = 7 * 24 * time.Hour

func defaultRand() mines.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (server *Server) SessionCount() int {
	server.sessionsMux.Lock()
	defer server.sessionsMux.Unlock()
	return len(server.sessions)
}

func (server *Server) GetServerInfo() *protocol.GameServerInfo {
	return &protocol.GameServerInfo{Name: server.Name, Host: server.opts.Host, Port: server.Port, PlayerCount: server.SessionCount()}
}

func (server *Server) sendMessage(data []byte, session *Session) {
	session.writeMutex.Lock()
	defer session.writeMutex.Unlock()
	if _, err := session.client.Write(data); err != nil {
		session.logger.WithError(err).Debug("Failed to write to client")
	}
}

func (server *Server) sendTextMessage(msg string, session *Session) {
	encoded, err := protocol.EncodeTextMessage(msg)
	if err != nil {
		session.logger.WithError(err).Error("Failed to create a message")
		return
	}
	server.sendMessage(encoded, session)
}

func (server *Server) newGame(settings mines.Settings) (*mines.Game, error) {
	var opts []mines.GameOption
	if server.opts.Clock != nil {
		opts = append(opts, mines.WithClock(server.opts.Clock))
	}
	return mines.NewGame(settings, server.opts.NewRand(), opts...)
}

func (server *Server) sendGameStart(session *Session) error {
	startMsg, err := protocol.EncodeGameStart(session.game.Settings)
	if err != nil {
		return err
	}
	server.sendMessage(startMsg, session)
	return nil
}

func (server *Server) handleConnection(session *Session) {
	defer server.wg.Done()
	session.logger.WithField("remote", session.client.RemoteAddr()).Info("Player connected")
	reader := bufio.NewReader(session.client)
	for {
		message, err := protocol.ReadMessage(reader)
		if err != nil {
			session.logger.WithError(err).Info("Player disconnected")
			server.removeSession(session)
			return
		}
		select {
		case server.messageChannel <- command{message, session}:
		case <-server.done:
			return
		}
	}
}

func (server *Server) removeSession(session *Session) {
	server.sessionsMux.Lock()
	delete(server.sessions, session.id)
	server.sessionsMux.Unlock()
	session.client.Close()
}

func (server *Server) HandleMessage(data []byte, session *Session) error {
	if len(data) == 0 {
		return fmt.Errorf("cannot handle empty message")
	}
	msgType := protocol.MessageType(data[0])
	handler, exists := server.handlers[msgType]
	if !exists {
		return fmt.Errorf("no handler registered for message type: %s", msgType)
	}
	return handler(data, session)
}

func (server *Server) registerHandler(msgType protocol.MessageType, handler MessageHandler) {
	server.handlers[msgType] = handler
}

func (server *Server) manageCommands() {
	defer server.wg.Done()
	for {
		select {
		case <-server.done:
			return
		case command := <-server.messageChannel:
			err := server.HandleMessage(command.message, command.session)
			if err != nil {
				command.session.logger.WithError(err).WithField("type", protocol.MessageType(command.message[0])).Warn("Failed to handle message")
				server.sendTextMessage(fmt.Sprintf("Error: %v", err), command.session)
			}
		}
	}
}

func createServer(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	if opts.NewRand == nil {
		opts.NewRand = defaultRand
	}
	if opts.Settings == (mines.Settings{}) {
		opts.Settings, _ = mines.Preset(mines.Easy)
	}
	if err := opts.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default settings: %w", err)
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.Players != nil && len(opts.TokenSecret) == 0 {
		return nil, errors.New("accounts need a token secret")
	}
	listener, err := net.Listen("tcp", net.JoinHostPort(opts.Host, fmt.Sprint(opts.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to start server: %w", err)
	}
	serverPort := listener.Addr().(*net.TCPAddr).Port
	server := &Server{
		Name:           opts.Name,
		Port:           uint16(serverPort),
		listener:       listener,
		handlers:       make(map[protocol.MessageType]MessageHandler),
		messageChannel: make(chan command),
		sessions:       make(map[int]*Session),
		nextID:         1,
		opts:           opts,
		logger:         opts.Logger,
		done:           make(chan struct{}),
	}
	return server, nil
}

func (server *Server) serverLoop() {
	defer server.wg.Done()
	for {
		conn, err := server.listener.Accept()
		if err != nil {
			select {
			case <-server.done:
			default:
				server.logger.WithError(err).Error("Failed to accept connection")
			}
			return
		}
		game, err := server.newGame(server.opts.Settings)
		if err != nil {
			server.logger.WithError(err).Error("Failed to create game")
			conn.Close()
			continue
		}
		server.sessionsMux.Lock()
		select {
		case <-server.done:
			server.sessionsMux.Unlock()
			conn.Close()
			return
		default:
		}
		session := &Session{
			id:     server.nextID,
			client: conn,
			game:   game,
			logger: server.logger.WithFields(log.Fields{"server": server.Name, "session": server.nextID}),
		}
		server.sessions[session.id] = session
		server.nextID++
		server.sessionsMux.Unlock()

		if err := server.sendGameStart(session); err != nil {
			session.logger.WithError(err).Error("Failed to send game start")
		}
		server.wg.Add(1)
		go server.handleConnection(session)
	}
}

// SpawnServer starts listening and serving in the background.
func SpawnServer(opts Options) (*Server, error) {
	server, err := createServer(opts)
	if err != nil {
		return nil, err
	}
	server.RegisterHandlers()
	server.wg.Add(2)
	go server.manageCommands()
	go server.serverLoop()
	server.logger.WithFields(log.Fields{"server": server.Name, "port": server.Port}).Info("Server started")
	return server, nil
}

// Close stops accepting, disconnects every session and waits for the
// server goroutines to finish.
func (server *Server) Close() error {
	var err error
	server.closeOnce.Do(func() {
		close(server.done)
		err = server.listener.Close()
		server.sessionsMux.Lock()
		for _, session := range server.sessions {
			session.client.Close()
		}
		server.sessionsMux.Unlock()
		server.wg.Wait()
	})
	return err
}
