package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/tomasstrnad1997/minesweeper/mines"
	"github.com/tomasstrnad1997/minesweeper/scores"
)

type ScoresRequest struct {
	Difficulty mines.Difficulty
	// Limit of zero asks for every score.
	Limit int
}

type StatsScope byte

const (
	OwnStats    StatsScope = 0x00
	AllStats    StatsScope = 0x01
	PlayerStats StatsScope = 0x02
)

type StatsRequest struct {
	Scope StatsScope
	// PlayerID is only sent with the PlayerStats scope.
	PlayerID uint32
}

func EncodeGetScores(request ScoresRequest) ([]byte, error) {
	payload := make([]byte, 5)
	payload[0] = byte(request.Difficulty)
	copy(payload[1:5], intToBytes(request.Limit))
	return encodeMessage(GetScores, payload)
}

func DecodeGetScores(data []byte) (*ScoresRequest, error) {
	length, err := checkAndDecodeLength(data, GetScores)
	if err != nil {
		return nil, err
	}
	if length != 5 {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	return &ScoresRequest{Difficulty: mines.Difficulty(payload[0]), Limit: bytesToInt(payload[1:5])}, nil
}

func writeCount(buf *bytes.Buffer, n int) error {
	return binary.Write(buf, binary.BigEndian, uint32(n))
}

func readCount(r *bytes.Reader, entrySize int) (int, error) {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return 0, err
	}
	// Every entry needs at least entrySize bytes.
	if int64(count)*int64(entrySize) > int64(r.Len()) {
		return 0, fmt.Errorf("%w: %d entries in %d bytes", ErrInvalidPayloadSize, count, r.Len())
	}
	return int(count), nil
}

func EncodeSendScores(difficulty mines.Difficulty, list []scores.Score) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(difficulty))
	if err := writeCount(&buf, len(list)); err != nil {
		return nil, err
	}
	for _, score := range list {
		if err := binary.Write(&buf, binary.BigEndian, score.PlayerID); err != nil {
			return nil, err
		}
		if err := writeStringWithLength(&buf, score.PlayerName); err != nil {
			return nil, err
		}
		buf.Write(intToBytes(score.Seconds))
		if err := binary.Write(&buf, binary.BigEndian, score.CreatedAt.Unix()); err != nil {
			return nil, err
		}
	}
	return encodeMessage(SendScores, buf.Bytes())
}

// DecodeSendScores fills grid size and mines from the difficulty preset.
func DecodeSendScores(data []byte) (mines.Difficulty, []scores.Score, error) {
	if _, err := checkAndDecodeLength(data, SendScores); err != nil {
		return 0, nil, err
	}
	r := bytes.NewReader(data[HeaderLength:])
	d, err := r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	difficulty := mines.Difficulty(d)
	preset, _ := mines.Preset(difficulty)
	count, err := readCount(r, 4+4+4+8)
	if err != nil {
		return 0, nil, err
	}
	list := make([]scores.Score, count)
	for i := range list {
		var playerID uint32
		if err := binary.Read(r, binary.BigEndian, &playerID); err != nil {
			return 0, nil, err
		}
		name, err := readStringWithLength(r)
		if err != nil {
			return 0, nil, err
		}
		var fixed struct {
			Seconds   int32
			CreatedAt int64
		}
		if err := binary.Read(r, binary.BigEndian, &fixed); err != nil {
			return 0, nil, err
		}
		list[i] = scores.Score{
			PlayerID:   playerID,
			PlayerName: name,
			Seconds:    int(fixed.Seconds),
			Difficulty: difficulty,
			GridSize:   preset.GridSize(),
			Mines:      preset.Mines,
			Completed:  true,
			CreatedAt:  time.Unix(fixed.CreatedAt, 0),
		}
	}
	return difficulty, list, expectDrained(r)
}

func expectDrained(r io.Reader) error {
	if n, _ := io.Copy(io.Discard, r); n != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrInvalidPayloadSize, n)
	}
	return nil
}

func EncodeGetStats(scope StatsScope) ([]byte, error) {
	if scope == PlayerStats {
		return nil, fmt.Errorf("player stats need a player id")
	}
	return encodeMessage(GetStats, []byte{byte(scope)})
}

func EncodeGetPlayerStats(playerID uint32) ([]byte, error) {
	payload := make([]byte, 5)
	payload[0] = byte(PlayerStats)
	binary.BigEndian.PutUint32(payload[1:5], playerID)
	return encodeMessage(GetStats, payload)
}

func DecodeGetStats(data []byte) (*StatsRequest, error) {
	length, err := checkAndDecodeLength(data, GetStats)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, ErrInvalidPayloadSize
	}
	payload := data[HeaderLength:]
	request := &StatsRequest{Scope: StatsScope(payload[0])}
	switch request.Scope {
	case OwnStats, AllStats:
		if length != 1 {
			return nil, ErrInvalidPayloadSize
		}
	case PlayerStats:
		if length != 5 {
			return nil, ErrInvalidPayloadSize
		}
		request.PlayerID = binary.BigEndian.Uint32(payload[1:5])
	default:
		return nil, fmt.Errorf("unknown stats scope %d", request.Scope)
	}
	return request, nil
}

func EncodeSendStats(list []scores.Stats) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCount(&buf, len(list)); err != nil {
		return nil, err
	}
	for _, stats := range list {
		if err := binary.Write(&buf, binary.BigEndian, stats.PlayerID); err != nil {
			return nil, err
		}
		if err := writeStringWithLength(&buf, stats.PlayerName); err != nil {
			return nil, err
		}
		buf.WriteByte(byte(stats.Difficulty))
		buf.Write(intToBytes(stats.TotalGames))
		buf.Write(intToBytes(stats.TotalWins))
		if err := binary.Write(&buf, binary.BigEndian, stats.LastPlayed.Unix()); err != nil {
			return nil, err
		}
	}
	return encodeMessage(SendStats, buf.Bytes())
}

func DecodeSendStats(data []byte) ([]scores.Stats, error) {
	if _, err := checkAndDecodeLength(data, SendStats); err != nil {
		return nil, err
	}
	r := bytes.NewReader(data[HeaderLength:])
	count, err := readCount(r, 4+4+1+4+4+8)
	if err != nil {
		return nil, err
	}
	list := make([]scores.Stats, count)
	for i := range list {
		var playerID uint32
		if err := binary.Read(r, binary.BigEndian, &playerID); err != nil {
			return nil, err
		}
		name, err := readStringWithLength(r)
		if err != nil {
			return nil, err
		}
		var fixed struct {
			Difficulty byte
			TotalGames int32
			TotalWins  int32
			LastPlayed int64
		}
		if err := binary.Read(r, binary.BigEndian, &fixed); err != nil {
			return nil, err
		}
		list[i] = scores.Stats{
			PlayerID:   playerID,
			PlayerName: name,
			Difficulty: mines.Difficulty(fixed.Difficulty),
			TotalGames: int(fixed.TotalGames),
			TotalWins:  int(fixed.TotalWins),
			LastPlayed: time.Unix(fixed.LastPlayed, 0),
		}
	}
	return list, expectDrained(r)
}
