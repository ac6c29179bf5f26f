package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tomasstrnad1997/minesweeper/players"
)

// AuthPlayerParams log a player in. Name may hold the player's email.
type AuthPlayerParams struct {
	Name     string
	Password string
}

type RegisterPlayerParams struct {
	Name     string
	Email    string
	Password string
}

type RegisterResponse struct {
	Success bool
	Message string
}

type AuthResponse struct {
	Success bool
	Player  *players.PlayerInfo
	// Token lets the client authenticate again without a password.
	Token *players.AuthToken
}

func EncodeAuthWithToken(token players.AuthToken) ([]byte, error) {
	encoded, err := token.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return encodeMessage(AuthWithToken, encoded)
}

func DecodeAuthWithToken(data []byte) (players.AuthToken, error) {
	if _, err := checkAndDecodeLength(data, AuthWithToken); err != nil {
		return players.AuthToken{}, err
	}
	return decodeAuthToken(data[HeaderLength:])
}

func decodeAuthToken(data []byte) (players.AuthToken, error) {
	var token players.AuthToken
	err := token.UnmarshalBinary(data)
	return token, err
}

func EncodeAuthRequest(params AuthPlayerParams) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeStringWithLength(&buf, params.Name); err != nil {
		return nil, err
	}
	buf.WriteString(params.Password)
	return encodeMessage(AuthRequest, buf.Bytes())
}

func DecodeAuthRequest(data []byte) (*AuthPlayerParams, error) {
	if _, err := checkAndDecodeLength(data, AuthRequest); err != nil {
		return nil, err
	}
	r := bytes.NewReader(data[HeaderLength:])
	name, err := readStringWithLength(r)
	if err != nil {
		return nil, err
	}
	password, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &AuthPlayerParams{Name: name, Password: string(password)}, nil
}

func EncodeRegisterPlayerRequest(params RegisterPlayerParams) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeStringWithLength(&buf, params.Name); err != nil {
		return nil, err
	}
	if err := writeStringWithLength(&buf, params.Email); err != nil {
		return nil, err
	}
	buf.WriteString(params.Password)
	return encodeMessage(RegisterPlayerRequest, buf.Bytes())
}

func DecodeRegisterPlayerRequest(data []byte) (*RegisterPlayerParams, error) {
	if _, err := checkAndDecodeLength(data, RegisterPlayerRequest); err != nil {
		return nil, err
	}
	r := bytes.NewReader(data[HeaderLength:])
	name, err := readStringWithLength(r)
	if err != nil {
		return nil, err
	}
	email, err := readStringWithLength(r)
	if err != nil {
		return nil, err
	}
	password, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &RegisterPlayerParams{Name: name, Email: email, Password: string(password)}, nil
}

func EncodeRegisterPlayerResponse(response RegisterResponse) ([]byte, error) {
	var buf bytes.Buffer
	var b byte = 0
	if response.Success {
		b = 1
	}
	buf.WriteByte(b)
	buf.WriteString(response.Message)
	return encodeMessage(RegisterPlayerResponse, buf.Bytes())
}

func DecodeRegisterPlayerResponse(data []byte) (*RegisterResponse, error) {
	length, err := checkAndDecodeLength(data, RegisterPlayerResponse)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	return &RegisterResponse{Success: payload[0] == 1, Message: string(payload[1:])}, nil
}

func EncodeAuthResponse(response AuthResponse) ([]byte, error) {
	if !response.Success {
		return encodeMessage(AuthResponseMessage, []byte{0})
	}
	if response.Player == nil || response.Token == nil {
		return nil, fmt.Errorf("player and token cannot be nil when success is true")
	}
	var buf bytes.Buffer
	buf.WriteByte(1)
	if err := binary.Write(&buf, binary.BigEndian, response.Player.ID); err != nil {
		return nil, err
	}
	if err := writeStringWithLength(&buf, response.Player.Name); err != nil {
		return nil, err
	}
	token, err := response.Token.MarshalBinary()
	if err != nil {
		return nil, err
	}
	buf.Write(token)
	return encodeMessage(AuthResponseMessage, buf.Bytes())
}

func DecodeAuthResponse(data []byte) (*AuthResponse, error) {
	pLen, err := checkAndDecodeLength(data, AuthResponseMessage)
	if err != nil {
		return nil, err
	}
	if pLen == 0 {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]

	// Auth failed
	if payload[0] != 1 {
		if pLen != 1 {
			return nil, ErrInvalidPayloadSize
		}
		return &AuthResponse{Success: false}, nil
	}

	// Success + id + nameLen + name + token
	if pLen < 1+4+4+players.AuthTokenLength {
		return nil, ErrInvalidPayloadSize
	}
	r := bytes.NewReader(payload[1:])
	var id uint32
	if err := binary.Read(r, binary.BigEndian, &id); err != nil {
		return nil, err
	}
	name, err := readStringWithLength(r)
	if err != nil {
		return nil, err
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	token, err := decodeAuthToken(rest)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		Success: true,
		Player: &players.PlayerInfo{
			ID:   id,
			Name: name,
		},
		Token: &token,
	}, nil
}
