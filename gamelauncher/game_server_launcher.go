package gamelauncher

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/tomasstrnad1997/minesweeper/protocol"
	"github.com/tomasstrnad1997/minesweeper/server"
)

var ErrTooManyServers = errors.New("server limit reached")

type Options struct {
	// Host is advertised to clients in server listings.
	Host string
	// Port of the launcher itself, 0 picks a free port.
	Port uint16
	// MaxServers caps the number of game servers, 0 means no limit.
	MaxServers int
	// Server is the template for spawned game servers. Name and Port are
	// set per server.
	Server server.Options
	Logger *log.Logger
}

// GameLauncher runs several game servers in one process and answers
// listing and spawn requests for them.
type GameLauncher struct {
	Port         uint16
	opts         Options
	listener     net.Listener
	mu           sync.Mutex
	nextServerId int
	gameServers  map[int]*server.Server
	connections  map[*protocol.ConnectionController]struct{}
	logger       *log.Logger
	done         chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
}

func CreateGameLauncher(opts Options) (*GameLauncher, error) {
	if opts.Logger == nil {
		opts.Logger = log.StandardLogger()
	}
	if opts.Server.Logger == nil {
		opts.Server.Logger = opts.Logger
	}
	listener, err := net.Listen("tcp", net.JoinHostPort(opts.Server.Host, fmt.Sprint(opts.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to start launcher: %w", err)
	}
	launcher := &GameLauncher{
		Port:         uint16(listener.Addr().(*net.TCPAddr).Port),
		opts:         opts,
		listener:     listener,
		nextServerId: 1,
		gameServers:  make(map[int]*server.Server),
		connections:  make(map[*protocol.ConnectionController]struct{}),
		logger:       opts.Logger,
		done:         make(chan struct{}),
	}
	return launcher, nil
}

func (launcher *GameLauncher) SpawnNewGameServer(name string) (*server.Server, error) {
	launcher.mu.Lock()
	defer launcher.mu.Unlock()
	select {
	case <-launcher.done:
		return nil, net.ErrClosed
	default:
	}
	if launcher.opts.MaxServers > 0 && len(launcher.gameServers) >= launcher.opts.MaxServers {
		return nil, fmt.Errorf("%w (%d)", ErrTooManyServers, launcher.opts.MaxServers)
	}
	if name == "" {
		name = fmt.Sprintf("Server %d", launcher.nextServerId)
	}
	opts := launcher.opts.Server
	opts.Name = name
	opts.Port = 0
	gameServer, err := server.SpawnServer(opts)
	if err != nil {
		return nil, err
	}
	launcher.gameServers[launcher.nextServerId] = gameServer
	launcher.nextServerId++
	launcher.logger.WithFields(log.Fields{"server": name, "port": gameServer.Port}).Info("Spawned game server")
	return gameServer, nil
}

// ServerInfos lists the running servers in spawn order.
func (launcher *GameLauncher) ServerInfos() []*protocol.GameServerInfo {
	launcher.mu.Lock()
	ids := make([]int, 0, len(launcher.gameServers))
	for id := range launcher.gameServers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	servers := make([]*server.Server, len(ids))
	for i, id := range ids {
		servers[i] = launcher.gameServers[id]
	}
	launcher.mu.Unlock()

	infos := make([]*protocol.GameServerInfo, len(servers))
	for i, gameServer := range servers {
		infos[i] = launcher.advertise(gameServer.GetServerInfo())
	}
	return infos
}

func (launcher *GameLauncher) advertise(info *protocol.GameServerInfo) *protocol.GameServerInfo {
	if launcher.opts.Host != "" {
		info.Host = launcher.opts.Host
	}
	return info
}

func (launcher *GameLauncher) RegisterHandlers(controller *protocol.ConnectionController) {
	controller.RegisterHandler(protocol.SpawnServerRequest, func(bytes []byte) error {
		name, requestId, err := protocol.DecodeSpawnServerRequest(bytes)
		if err != nil {
			return err
		}
		gameServer, err := launcher.SpawnNewGameServer(name)
		if err != nil {
			text, encodeErr := protocol.EncodeTextMessage(fmt.Sprintf("Error: %v", err))
			if encodeErr != nil {
				return encodeErr
			}
			return controller.SendMessage(text)
		}
		message, err := protocol.EncodeServerSpawned(launcher.advertise(gameServer.GetServerInfo()), requestId)
		if err != nil {
			return err
		}
		return controller.SendMessage(message)
	})
	controller.RegisterHandler(protocol.GetGameServers, func(bytes []byte) error {
		requestId, err := protocol.DecodeGetGameServers(bytes)
		if err != nil {
			return err
		}
		message, err := protocol.EncodeSendGameServers(launcher.ServerInfos(), requestId)
		if err != nil {
			return err
		}
		return controller.SendMessage(message)
	})
}

func (launcher *GameLauncher) handleConnection(controller *protocol.ConnectionController, remote net.Addr) {
	defer launcher.wg.Done()
	logger := launcher.logger.WithField("remote", remote)
	logger.Debug("Launcher client connected")
	if err := controller.ReadServerResponse(); err != nil {
		logger.WithError(err).Debug("Launcher client disconnected")
	}
	controller.Close()
	launcher.mu.Lock()
	delete(launcher.connections, controller)
	launcher.mu.Unlock()
}

// Loop accepts launcher clients until Close is called.
func (launcher *GameLauncher) Loop() {
	for {
		conn, err := launcher.listener.Accept()
		if err != nil {
			select {
			case <-launcher.done:
			default:
				launcher.logger.WithError(err).Error("Failed to accept connection")
			}
			return
		}
		controller := protocol.CreateConnectionController()
		controller.Logger = launcher.logger
		if err := controller.SetConnection(conn); err != nil {
			conn.Close()
			continue
		}
		launcher.RegisterHandlers(controller)

		launcher.mu.Lock()
		select {
		case <-launcher.done:
			launcher.mu.Unlock()
			controller.Close()
			return
		default:
		}
		launcher.connections[controller] = struct{}{}
		launcher.wg.Add(1)
		launcher.mu.Unlock()
		go launcher.handleConnection(controller, conn.RemoteAddr())
	}
}

// Close stops the launcher and every game server it spawned.
func (launcher *GameLauncher) Close() error {
	var err error
	launcher.closeOnce.Do(func() {
		launcher.mu.Lock()
		close(launcher.done)
		launcher.mu.Unlock()
		err = launcher.listener.Close()

		launcher.mu.Lock()
		for controller := range launcher.connections {
			controller.Close()
		}
		servers := launcher.gameServers
		launcher.gameServers = make(map[int]*server.Server)
		launcher.mu.Unlock()
		launcher.wg.Wait()

		for _, gameServer := range servers {
			if closeErr := gameServer.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}
	})
	return err
}
