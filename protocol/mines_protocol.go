package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tomasstrnad1997/minesweeper/mines"
)

type MessageType byte

const (
	MoveCommand   MessageType = 0x01
	TextMessage   MessageType = 0x02
	StartGame     MessageType = 0x04
	CellUpdate    MessageType = 0x05
	RequestReload MessageType = 0x06
	GameEnd       MessageType = 0x07

	SpawnServerRequest MessageType = 0xA0
	SendGameServers    MessageType = 0xA1
	GetGameServers     MessageType = 0xA2
	ServerSpawned      MessageType = 0xA3
	GetServerInfo      MessageType = 0xA4
	SendServerInfo     MessageType = 0xA5

	RegisterPlayerRequest  MessageType = 0xC0
	RegisterPlayerResponse MessageType = 0xC1
	AuthRequest            MessageType = 0xC2
	AuthResponseMessage    MessageType = 0xC3
	AuthWithToken          MessageType = 0xC6

	GetScores  MessageType = 0xD0
	SendScores MessageType = 0xD1
	GetStats   MessageType = 0xD2
	SendStats  MessageType = 0xD3
)

var messageTypeNames = map[MessageType]string{
	MoveCommand:            "MoveCommand",
	TextMessage:            "TextMessage",
	StartGame:              "StartGame",
	CellUpdate:             "CellUpdate",
	RequestReload:          "RequestReload",
	GameEnd:                "GameEnd",
	SpawnServerRequest:     "SpawnServerRequest",
	SendGameServers:        "SendGameServers",
	GetGameServers:         "GetGameServers",
	ServerSpawned:          "ServerSpawned",
	GetServerInfo:          "GetServerInfo",
	SendServerInfo:         "SendServerInfo",
	RegisterPlayerRequest:  "RegisterPlayerRequest",
	RegisterPlayerResponse: "RegisterPlayerResponse",
	AuthRequest:            "AuthRequest",
	AuthResponseMessage:    "AuthResponse",
	AuthWithToken:          "AuthWithToken",
	GetScores:              "GetScores",
	SendScores:             "SendScores",
	GetStats:               "GetStats",
	SendStats:              "SendStats",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MessageType(%#x)", byte(t))
}

type GameEndType byte

const (
	Win     GameEndType = 0x01
	Loss    GameEndType = 0x02
	Aborted GameEndType = 0x03
)

func (t GameEndType) String() string {
	switch t {
	case Win:
		return "Win"
	case Loss:
		return "Loss"
	case Aborted:
		return "Aborted"
	default:
		return fmt.Sprintf("GameEndType(%d)", byte(t))
	}
}

const (
	HeaderLength         = 6
	MoveByteLength       = 9
	UpdateCellByteLength = 9
	StartGameByteLength  = 1 + 3*4
	GameEndByteLength    = 1 + 4 + 1

	// MaxPayloadLength bounds a single frame so a corrupt length cannot
	// make a reader allocate without limit.
	MaxPayloadLength = 1 << 20
)

var (
	ErrInvalidPayloadSize = errors.New("invalid payload size")
	ErrPayloadTooLarge    = errors.New("payload too large")
)

// GameEndInfo is sent when a round stops.
type GameEndInfo struct {
	Type    GameEndType
	Seconds int
	// NewBest is set when the round produced a new personal best.
	NewBest bool
}

type GameServerInfo struct {
	Name        string
	Host        string
	Port        uint16
	PlayerCount int
}

func checkAndDecodeLength(data []byte, message MessageType) (int, error) {
	if len(data) < HeaderLength {
		return 0, fmt.Errorf("data too short to decode %s", message)
	}
	if MessageType(data[0]) != message {
		return 0, fmt.Errorf("invalid message type for command E:%s R:%s", message, MessageType(data[0]))
	}
	payloadLength := int(binary.BigEndian.Uint32(data[2:6]))
	if payloadLength != len(data)-HeaderLength {
		return payloadLength, fmt.Errorf("%w: header says %d, got %d", ErrInvalidPayloadSize, payloadLength, len(data)-HeaderLength)
	}
	return payloadLength, nil
}

func intToBytes(i int) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(i))
	return buf
}

func bytesToInt(bytes []byte) int {
	return int(int32(binary.BigEndian.Uint32(bytes)))
}

// Flags of the second header byte.
const (
	HasIdFlag byte = 0x01
)

func writeHeader(buf *bytes.Buffer, tp MessageType, length int) error {
	return writeHeaderWithFlags(buf, tp, 0x00, length)
}

func writeHeaderWithFlags(buf *bytes.Buffer, tp MessageType, flags byte, length int) error {
	buf.WriteByte(byte(tp))
	buf.WriteByte(flags)
	return writePayloadLength(buf, length)
}

func writePayloadLength(buf *bytes.Buffer, length int) error {
	if length < 0 || length > MaxPayloadLength {
		return fmt.Errorf("%w: %d", ErrPayloadTooLarge, length)
	}
	err := binary.Write(buf, binary.BigEndian, uint32(length))
	if err != nil {
		return fmt.Errorf("failed to write length (%d)", length)
	}
	return nil
}

// encodeMessage frames a payload.
func encodeMessage(tp MessageType, payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeHeader(&buf, tp, len(payload)); err != nil {
		return nil, err
	}
	buf.Write(payload)
	return buf.Bytes(), nil
}

func writeStringWithLength(buf *bytes.Buffer, str string) error {
	err := writePayloadLength(buf, len(str))
	if err != nil {
		return err
	}
	_, err = buf.WriteString(str)
	return err
}

func readStringWithLength(r io.Reader) (string, error) {
	var length int32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	if length < 0 || length > MaxPayloadLength {
		return "", fmt.Errorf("%w: string of length %d", ErrInvalidPayloadSize, length)
	}

	strBytes := make([]byte, length)
	if _, err := io.ReadFull(r, strBytes); err != nil {
		return "", err
	}

	return string(strBytes), nil
}

// ReadMessage reads one framed message, header included.
func ReadMessage(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderLength)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	messageLength := int(binary.BigEndian.Uint32(header[2:HeaderLength]))
	if messageLength > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %s with %d bytes", ErrPayloadTooLarge, MessageType(header[0]), messageLength)
	}
	message := make([]byte, messageLength+HeaderLength)
	copy(message[0:HeaderLength], header)
	if _, err := io.ReadFull(r, message[HeaderLength:]); err != nil {
		return nil, err
	}
	return message, nil
}

func EncodeGameEnd(info GameEndInfo) ([]byte, error) {
	payload := make([]byte, GameEndByteLength)
	payload[0] = byte(info.Type)
	copy(payload[1:5], intToBytes(info.Seconds))
	if info.NewBest {
		payload[5] = 1
	}
	return encodeMessage(GameEnd, payload)
}

func DecodeGameEnd(data []byte) (*GameEndInfo, error) {
	length, err := checkAndDecodeLength(data, GameEnd)
	if err != nil {
		return nil, err
	}
	if length != GameEndByteLength {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	return &GameEndInfo{
		Type:    GameEndType(payload[0]),
		Seconds: bytesToInt(payload[1:5]),
		NewBest: payload[5] == 1,
	}, nil
}

func EncodeTextMessage(message string) ([]byte, error) {
	return encodeMessage(TextMessage, []byte(message))
}

func DecodeTextMessage(data []byte) (string, error) {
	_, err := checkAndDecodeLength(data, TextMessage)
	if err != nil {
		return "", err
	}
	payload := data[HeaderLength:]
	return string(payload), nil
}

func EncodeRequestReload() ([]byte, error) {
	return encodeMessage(RequestReload, nil)
}

func DecodeRequestReload(data []byte) error {
	_, err := checkAndDecodeLength(data, RequestReload)
	return err
}

func EncodeMove(move mines.Move) ([]byte, error) {
	payload := make([]byte, MoveByteLength)
	payload[0] = byte(move.Type)
	copy(payload[1:5], intToBytes(move.Row))
	copy(payload[5:9], intToBytes(move.Col))
	return encodeMessage(MoveCommand, payload)
}

func DecodeMove(data []byte) (move *mines.Move, err error) {
	length, err := checkAndDecodeLength(data, MoveCommand)
	if err != nil {
		return nil, err
	}
	if length != MoveByteLength {
		return nil, ErrInvalidPayloadSize
	}
	move = &mines.Move{}
	payload := data[HeaderLength:]
	move.Type = mines.MoveType(payload[0])
	move.Row = bytesToInt(payload[1:5])
	move.Col = bytesToInt(payload[5:9])
	return move, nil
}

func encodeCellUpdate(cell mines.UpdatedCell) []byte {
	data := make([]byte, UpdateCellByteLength)
	copy(data[0:4], intToBytes(cell.Row))
	copy(data[4:8], intToBytes(cell.Col))
	data[8] = cell.Value
	return data
}

func EncodeCellUpdates(cells []mines.UpdatedCell) ([]byte, error) {
	var buf bytes.Buffer
	payloadLength := len(cells) * UpdateCellByteLength
	if err := writeHeader(&buf, CellUpdate, payloadLength); err != nil {
		return nil, err
	}
	for _, cell := range cells {
		buf.Write(encodeCellUpdate(cell))
	}
	if payloadLength+HeaderLength != buf.Len() {
		return nil, fmt.Errorf("incorrect payload length while encoding cell updates")
	}
	return buf.Bytes(), nil
}

func decodeCellUpdate(data []byte) mines.UpdatedCell {
	return mines.UpdatedCell{
		Row:   bytesToInt(data[0:4]),
		Col:   bytesToInt(data[4:8]),
		Value: data[8],
	}
}

func DecodeCellUpdates(data []byte) ([]mines.UpdatedCell, error) {
	payloadLength, err := checkAndDecodeLength(data, CellUpdate)
	if err != nil {
		return nil, err
	}
	payload := data[HeaderLength:]
	if payloadLength%UpdateCellByteLength != 0 {
		return nil, fmt.Errorf("update cells payload length mismatch %d", payloadLength)
	}
	cells := make([]mines.UpdatedCell, payloadLength/UpdateCellByteLength)
	for i := range cells {
		cells[i] = decodeCellUpdate(payload[i*UpdateCellByteLength : (i+1)*UpdateCellByteLength])
	}
	return cells, nil
}

func EncodeGameStart(settings mines.Settings) ([]byte, error) {
	payload := make([]byte, StartGameByteLength)
	payload[0] = byte(settings.Difficulty)
	copy(payload[1:5], intToBytes(settings.Rows))
	copy(payload[5:9], intToBytes(settings.Cols))
	copy(payload[9:13], intToBytes(settings.Mines))
	return encodeMessage(StartGame, payload)
}

func DecodeGameStart(data []byte) (*mines.Settings, error) {
	payloadLength, err := checkAndDecodeLength(data, StartGame)
	if err != nil {
		return nil, err
	}
	if payloadLength != StartGameByteLength {
		return nil, fmt.Errorf("decode game start payload incorrect length (%d)", payloadLength)
	}
	payload := data[HeaderLength:]
	settings := &mines.Settings{
		Difficulty: mines.Difficulty(payload[0]),
		Rows:       bytesToInt(payload[1:5]),
		Cols:       bytesToInt(payload[5:9]),
		Mines:      bytesToInt(payload[9:13]),
	}
	return settings, nil
}

func EncodeGameServer(server *GameServerInfo) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeStringWithLength(&buf, server.Name); err != nil {
		return nil, err
	}
	if err := writeStringWithLength(&buf, server.Host); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, server.Port); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, int32(server.PlayerCount)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeGameServer(buf io.Reader) (*GameServerInfo, error) {
	name, err := readStringWithLength(buf)
	if err != nil {
		return nil, err
	}
	host, err := readStringWithLength(buf)
	if err != nil {
		return nil, err
	}
	var port uint16
	if err := binary.Read(buf, binary.BigEndian, &port); err != nil {
		return nil, err
	}
	var playerCount int32
	if err := binary.Read(buf, binary.BigEndian, &playerCount); err != nil {
		return nil, err
	}

	return &GameServerInfo{
		Name:        name,
		Host:        host,
		Port:        port,
		PlayerCount: int(playerCount),
	}, nil
}

func EncodeGetServerInfo() ([]byte, error) {
	return encodeMessage(GetServerInfo, nil)
}

func EncodeSendServerInfo(info *GameServerInfo) ([]byte, error) {
	payload, err := EncodeGameServer(info)
	if err != nil {
		return nil, err
	}
	return encodeMessage(SendServerInfo, payload)
}

func DecodeSendServerInfo(data []byte) (*GameServerInfo, error) {
	if _, err := checkAndDecodeLength(data, SendServerInfo); err != nil {
		return nil, err
	}
	return DecodeGameServer(bytes.NewReader(data[HeaderLength:]))
}
