package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Lobby messages may carry a request id right after the header, marked by
// HasIdFlag. Responses echo the id of the request they answer.

func encodeWithRequestId(tp MessageType, requestId *uint32, payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	var flags byte
	length := len(payload)
	if requestId != nil {
		flags |= HasIdFlag
		length += 4
	}
	if err := writeHeaderWithFlags(&buf, tp, flags, length); err != nil {
		return nil, err
	}
	if requestId != nil {
		if err := binary.Write(&buf, binary.BigEndian, *requestId); err != nil {
			return nil, err
		}
	}
	buf.Write(payload)
	return buf.Bytes(), nil
}

// GetRequestId returns the request id of a message, nil if it has none.
func GetRequestId(data []byte) (*uint32, error) {
	if len(data) < HeaderLength {
		return nil, fmt.Errorf("data too short to retrieve request id")
	}
	if data[1]&HasIdFlag == 0 {
		return nil, nil
	}
	if len(data) < HeaderLength+4 {
		return nil, fmt.Errorf("%w: flag set but no request id", ErrInvalidPayloadSize)
	}
	id := binary.BigEndian.Uint32(data[HeaderLength : HeaderLength+4])
	return &id, nil
}

// lobbyPayload checks the frame and splits off the optional request id.
func lobbyPayload(data []byte, tp MessageType) ([]byte, *uint32, error) {
	if _, err := checkAndDecodeLength(data, tp); err != nil {
		return nil, nil, err
	}
	requestId, err := GetRequestId(data)
	if err != nil {
		return nil, nil, err
	}
	offset := HeaderLength
	if requestId != nil {
		offset += 4
	}
	return data[offset:], requestId, nil
}

func EncodeSpawnServerRequest(name string, requestId *uint32) ([]byte, error) {
	return encodeWithRequestId(SpawnServerRequest, requestId, []byte(name))
}

func DecodeSpawnServerRequest(data []byte) (string, *uint32, error) {
	payload, requestId, err := lobbyPayload(data, SpawnServerRequest)
	if err != nil {
		return "", nil, err
	}
	return string(payload), requestId, nil
}

func EncodeServerSpawned(info *GameServerInfo, requestId *uint32) ([]byte, error) {
	encoded, err := EncodeGameServer(info)
	if err != nil {
		return nil, err
	}
	return encodeWithRequestId(ServerSpawned, requestId, encoded)
}

func DecodeServerSpawned(data []byte) (*GameServerInfo, *uint32, error) {
	payload, requestId, err := lobbyPayload(data, ServerSpawned)
	if err != nil {
		return nil, nil, err
	}
	reader := bytes.NewReader(payload)
	info, err := DecodeGameServer(reader)
	if err != nil {
		return nil, nil, err
	}
	if err := expectDrained(reader); err != nil {
		return nil, nil, err
	}
	return info, requestId, nil
}

func EncodeGetGameServers(requestId *uint32) ([]byte, error) {
	return encodeWithRequestId(GetGameServers, requestId, nil)
}

func DecodeGetGameServers(data []byte) (*uint32, error) {
	payload, requestId, err := lobbyPayload(data, GetGameServers)
	if err != nil {
		return nil, err
	}
	if len(payload) != 0 {
		return nil, ErrInvalidPayloadSize
	}
	return requestId, nil
}

func EncodeSendGameServers(servers []*GameServerInfo, requestId *uint32) ([]byte, error) {
	var buf bytes.Buffer
	for _, server := range servers {
		encoded, err := EncodeGameServer(server)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
	}
	return encodeWithRequestId(SendGameServers, requestId, buf.Bytes())
}

func DecodeSendGameServers(data []byte) ([]*GameServerInfo, *uint32, error) {
	payload, requestId, err := lobbyPayload(data, SendGameServers)
	if err != nil {
		return nil, nil, err
	}
	reader := bytes.NewReader(payload)
	servers := make([]*GameServerInfo, 0)
	for reader.Len() > 0 {
		server, err := DecodeGameServer(reader)
		if err != nil {
			return nil, nil, err
		}
		servers = append(servers, server)
	}
	return servers, requestId, nil
}
