package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	maxReconnectAttempts  = 100
	defaultReconnectDelay = 2 * time.Second
)

var (
	ErrNotConnected     = errors.New("not connected to server")
	ErrAlreadyConnected = errors.New("connector already connected")
	ErrNoHandler        = errors.New("no handler registered")
)

type MessageHandler func([]byte) error

type Handler interface {
	HandleMessage(bytes []byte) error
}

// ConnectionController is the client end of a connection. Outgoing
// messages are queued and written by one goroutine, incoming ones are
// dispatched to handlers by message type.
type ConnectionController struct {
	mu               sync.Mutex
	server           net.Conn
	messageHandlers  map[MessageType]MessageHandler
	messageChannel   chan []byte
	connected        atomic.Bool
	closed           chan struct{}
	closeOnce        sync.Once
	address          string
	AttemptReconnect bool
	ReconnectDelay   time.Duration
	// OnReconnect runs after a lost connection was re-established.
	OnReconnect func()
	Logger      log.FieldLogger
}

func CreateConnectionController() *ConnectionController {
	controller := &ConnectionController{
		messageHandlers: make(map[MessageType]MessageHandler),
		messageChannel:  make(chan []byte, 64),
		closed:          make(chan struct{}),
		ReconnectDelay:  defaultReconnectDelay,
		Logger:          log.StandardLogger(),
	}
	controller.startWriter()
	return controller
}

func (controller *ConnectionController) Connected() bool {
	return controller.connected.Load()
}

func (controller *ConnectionController) conn() net.Conn {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.server
}

func (controller *ConnectionController) GetServerAddress() string {
	if !controller.Connected() {
		return ""
	}
	return controller.conn().RemoteAddr().String()
}

func (controller *ConnectionController) startWriter() {
	go func() {
		for {
			select {
			case <-controller.closed:
				return
			case message := <-controller.messageChannel:
				if !controller.Connected() {
					controller.Logger.WithField("type", MessageType(message[0])).Warn("Attempted to write to not connected server")
					continue
				}
				if _, err := controller.conn().Write(message); err != nil {
					controller.Logger.WithError(err).Error("Error writing to server")
				}
			}
		}
	}()
}

func (controller *ConnectionController) TryReconnect() bool {
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		logger := controller.Logger.WithFields(log.Fields{"attempt": attempt, "max": maxReconnectAttempts})
		logger.Info("Attempting to reconnect")
		select {
		case <-controller.closed:
			return false
		case <-time.After(controller.ReconnectDelay):
		}
		if err := controller.dial(controller.address); err == nil {
			logger.Info("Reconnected successfully")
			return true
		}
	}
	controller.Logger.Error("Failed to reconnect after max attempts")
	return false
}

func (controller *ConnectionController) SendMessage(message []byte) error {
	if len(message) < HeaderLength {
		return fmt.Errorf("message too short (%d bytes)", len(message))
	}
	select {
	case controller.messageChannel <- message:
	default:
		return fmt.Errorf("failed to write to message channel")
	}
	return nil
}

// SetConnection uses an established connection, mostly for tests.
func (controller *ConnectionController) SetConnection(conn net.Conn) error {
	if controller.Connected() {
		return ErrAlreadyConnected
	}
	controller.mu.Lock()
	controller.server = conn
	controller.mu.Unlock()
	controller.connected.Store(true)
	return nil
}

func (controller *ConnectionController) HandleMessage(bytes []byte) error {
	msgType := MessageType(bytes[0])
	handlerFunc, exists := controller.messageHandlers[msgType]
	if !exists {
		return fmt.Errorf("%w for message type: %s", ErrNoHandler, msgType)
	}
	return handlerFunc(bytes)
}

func (controller *ConnectionController) Connect(host string, port uint16) error {
	if controller.Connected() {
		return ErrAlreadyConnected
	}
	controller.address = net.JoinHostPort(host, fmt.Sprint(port))
	return controller.dial(controller.address)
}

func (controller *ConnectionController) dial(address string) error {
	conn, err := net.DialTimeout("tcp", address, 5*time.Second)
	if err != nil {
		controller.Logger.WithError(err).WithField("address", address).Debug("Dial failed")
		return err
	}
	controller.mu.Lock()
	controller.server = conn
	controller.mu.Unlock()
	controller.connected.Store(true)
	return nil
}

// RegisterHandler must be called before ReadServerResponse starts.
func (controller *ConnectionController) RegisterHandler(msgType MessageType, handlerFunc MessageHandler) {
	controller.messageHandlers[msgType] = handlerFunc
}

// ReadServerResponse dispatches incoming messages until the connection is
// lost and cannot be re-established, or the controller is closed.
func (controller *ConnectionController) ReadServerResponse() error {
	conn := controller.conn()
	if conn == nil {
		return ErrNotConnected
	}
	reader := bufio.NewReader(conn)
	for {
		message, err := ReadMessage(reader)
		if err != nil {
			controller.connected.Store(false)
			select {
			case <-controller.closed:
				return nil
			default:
			}
			if !controller.AttemptReconnect || !controller.TryReconnect() {
				return fmt.Errorf("lost connection to server: %w", err)
			}
			reader = bufio.NewReader(controller.conn())
			if controller.OnReconnect != nil {
				controller.OnReconnect()
			}
			continue
		}
		if err = controller.HandleMessage(message); err != nil {
			controller.Logger.WithError(err).WithField("type", MessageType(message[0])).Warn("Failed to handle message")
		}
	}
}

func (controller *ConnectionController) Close() error {
	var err error
	controller.closeOnce.Do(func() {
		close(controller.closed)
		controller.connected.Store(false)
		if conn := controller.conn(); conn != nil {
			err = conn.Close()
		}
	})
	return err
}
