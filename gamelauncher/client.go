package gamelauncher

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tomasstrnad1997/minesweeper/protocol"
)

const defaultRequestTimeout = 5 * time.Second

var ErrRequestTimeout = errors.New("launcher did not answer in time")

type reply struct {
	servers []*protocol.GameServerInfo
	err     error
}

type pendingRequest struct {
	id      uint32
	replies chan reply
}

// Client asks a launcher for its servers. Requests are sent one at a time
// and matched to replies by request id, so a late reply to a request that
// timed out is dropped.
type Client struct {
	controller    *protocol.ConnectionController
	requestMu     sync.Mutex
	mu            sync.Mutex
	nextRequestId uint32
	waiting       *pendingRequest
	closed        chan struct{}
	Timeout       time.Duration
}

func Dial(host string, port uint16, logger *log.Logger) (*Client, error) {
	controller := protocol.CreateConnectionController()
	if logger != nil {
		controller.Logger = logger
	}
	if err := controller.Connect(host, port); err != nil {
		return nil, err
	}
	return newClient(controller), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) (*Client, error) {
	controller := protocol.CreateConnectionController()
	if err := controller.SetConnection(conn); err != nil {
		return nil, err
	}
	return newClient(controller), nil
}

func newClient(controller *protocol.ConnectionController) *Client {
	client := &Client{
		controller:    controller,
		nextRequestId: 1,
		closed:        make(chan struct{}),
		Timeout:       defaultRequestTimeout,
	}
	controller.RegisterHandler(protocol.SendGameServers, func(data []byte) error {
		servers, requestId, err := protocol.DecodeSendGameServers(data)
		if err != nil {
			return err
		}
		client.deliver(requestId, reply{servers: servers})
		return nil
	})
	controller.RegisterHandler(protocol.ServerSpawned, func(data []byte) error {
		info, requestId, err := protocol.DecodeServerSpawned(data)
		if err != nil {
			return err
		}
		client.deliver(requestId, reply{servers: []*protocol.GameServerInfo{info}})
		return nil
	})
	controller.RegisterHandler(protocol.TextMessage, func(data []byte) error {
		text, err := protocol.DecodeTextMessage(data)
		if err != nil {
			return err
		}
		client.deliver(nil, reply{err: errors.New(text)})
		return nil
	})
	go func() {
		defer close(client.closed)
		if err := controller.ReadServerResponse(); err != nil {
			controller.Logger.WithError(err).Debug("Launcher connection closed")
		}
	}()
	return client
}

// deliver hands a reply to the waiting request. Replies without an id go
// to whichever request is waiting.
func (client *Client) deliver(requestId *uint32, r reply) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.waiting == nil {
		return
	}
	if requestId != nil && *requestId != client.waiting.id {
		return
	}
	client.waiting.replies <- r
	client.waiting = nil
}

func (client *Client) request(build func(requestId *uint32) ([]byte, error)) ([]*protocol.GameServerInfo, error) {
	client.requestMu.Lock()
	defer client.requestMu.Unlock()

	client.mu.Lock()
	pending := &pendingRequest{id: client.nextRequestId, replies: make(chan reply, 1)}
	client.nextRequestId++
	client.waiting = pending
	client.mu.Unlock()
	defer func() {
		client.mu.Lock()
		if client.waiting == pending {
			client.waiting = nil
		}
		client.mu.Unlock()
	}()

	message, err := build(&pending.id)
	if err != nil {
		return nil, err
	}
	if err := client.controller.SendMessage(message); err != nil {
		return nil, err
	}
	select {
	case r := <-pending.replies:
		return r.servers, r.err
	case <-client.closed:
		return nil, protocol.ErrNotConnected
	case <-time.After(client.Timeout):
		return nil, ErrRequestTimeout
	}
}

func (client *Client) ListServers() ([]*protocol.GameServerInfo, error) {
	return client.request(protocol.EncodeGetGameServers)
}

func (client *Client) SpawnServer(name string) (*protocol.GameServerInfo, error) {
	servers, err := client.request(func(requestId *uint32) ([]byte, error) {
		return protocol.EncodeSpawnServerRequest(name, requestId)
	})
	if err != nil {
		return nil, err
	}
	if len(servers) != 1 {
		return nil, fmt.Errorf("unexpected spawn reply with %d servers", len(servers))
	}
	return servers[0], nil
}

func (client *Client) Close() error {
	return client.controller.Close()
}
