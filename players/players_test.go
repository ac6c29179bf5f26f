package players_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomasstrnad1997/minesweeper/players"
)

func TestTokenValidation(t *testing.T) {
	secret := []byte("SECRET TOKEN")
	player := players.Player{
		ID: 1235,
	}
	token, err := players.GenerateAuthToken(&player, secret, time.Minute*10)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	playerID, err := players.ValidateAuthToken(token, secret)
	if err != nil {
		t.Fatalf("Verification failed: %v", err)
	}
	if playerID != player.ID {
		t.Fatalf("Token validated for player %d, expected %d", playerID, player.ID)
	}
}

func TestTokenBinaryEncoding(t *testing.T) {
	secret := []byte("SECRET TOKEN")
	token, err := players.GenerateAuthToken(&players.Player{ID: 42}, secret, time.Minute)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	data, err := token.MarshalBinary()
	if err != nil {
		t.Fatalf("Failed to encode token: %v", err)
	}
	if len(data) != players.AuthTokenLength {
		t.Fatalf("Encoded token has %d bytes, expected %d", len(data), players.AuthTokenLength)
	}
	var decoded players.AuthToken
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("Failed to decode token: %v", err)
	}
	if decoded != token {
		t.Fatalf("Decoded token does not match: %+v", decoded)
	}
	if _, err := players.ValidateAuthToken(decoded, secret); err != nil {
		t.Fatalf("Decoded token failed verification: %v", err)
	}
	if err := decoded.UnmarshalBinary(data[1:]); !errors.Is(err, players.ErrInvalidFormat) {
		t.Fatalf("Expected ErrInvalidFormat, got: %v", err)
	}
}

func TestTokenExpiration(t *testing.T) {
	secret := []byte("SECRET TOKEN")
	player := players.Player{
		ID: 1235,
	}
	token, err := players.GenerateAuthToken(&player, secret, time.Minute*-1)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	_, err = players.ValidateAuthToken(token, secret)
	if !errors.Is(err, players.ErrTokenExpired) {
		t.Fatalf("Expected ErrTokenExpired, got: %v", err)
	}
}

func TestTokenModification(t *testing.T) {
	secret := []byte("SECRET TOKEN")
	player := players.Player{
		ID: 1235,
	}
	token, err := players.GenerateAuthToken(&player, secret, time.Minute*-1)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	token.Expiry = time.Now().Add(time.Hour).Unix()
	_, err = players.ValidateAuthToken(token, secret)
	if !errors.Is(err, players.ErrInvalidSignature) {
		t.Fatalf("Expected ErrInvalidSignature, got: %v", err)
	}
}

type memoryStore struct {
	players []*players.Player
}

func (m *memoryStore) CreatePlayer(name, email, hash string) (*players.Player, error) {
	player := &players.Player{ID: uint32(len(m.players) + 1), Name: name, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	m.players = append(m.players, player)
	return player, nil
}

func (m *memoryStore) find(match func(*players.Player) bool) (*players.Player, error) {
	for _, p := range m.players {
		if match(p) {
			return p, nil
		}
	}
	return nil, players.ErrPlayerNotFound
}

func (m *memoryStore) FindPlayerByName(name string) (*players.Player, error) {
	return m.find(func(p *players.Player) bool { return p.Name == name })
}

func (m *memoryStore) FindPlayerByEmail(email string) (*players.Player, error) {
	return m.find(func(p *players.Player) bool { return p.Email == email })
}

func (m *memoryStore) FindPlayerByID(id uint32) (*players.Player, error) {
	return m.find(func(p *players.Player) bool { return p.ID == id })
}

func TestRegisterAndLogin(t *testing.T) {
	service := &players.Service{Store: &memoryStore{}}
	registered, err := service.Register(" alice ", "alice@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "alice", registered.Name)
	require.NotEqual(t, "hunter2", registered.PasswordHash)

	byName, err := service.Login("alice", "hunter2")
	require.NoError(t, err)
	require.Equal(t, registered.ID, byName.ID)

	byEmail, err := service.Login("alice@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, players.PlayerInfo{ID: registered.ID, Name: "alice"}, byEmail.Info())
}

func TestRegisterValidation(t *testing.T) {
	service := &players.Service{Store: &memoryStore{}}
	_, err := service.Register("", "a@example.com", "pw")
	require.ErrorIs(t, err, players.ErrMissingFields)
	_, err = service.Register("bob", " ", "pw")
	require.ErrorIs(t, err, players.ErrMissingFields)
	_, err = service.Register("bob", "b@example.com", "")
	require.ErrorIs(t, err, players.ErrMissingFields)

	_, err = service.Register("bob", "b@example.com", "pw")
	require.NoError(t, err)
	_, err = service.Register("bob", "other@example.com", "pw")
	require.ErrorIs(t, err, players.ErrPlayerExists)
	_, err = service.Register("robert", "b@example.com", "pw")
	require.ErrorIs(t, err, players.ErrPlayerExists)
}

func TestLoginFailures(t *testing.T) {
	service := &players.Service{Store: &memoryStore{}}
	_, err := service.Register("carol", "carol@example.com", "secret")
	require.NoError(t, err)

	for _, creds := range [][2]string{{"carol", "wrong"}, {"dave", "secret"}, {"nobody@example.com", "secret"}, {"", "secret"}, {"carol", ""}} {
		_, err := service.Login(creds[0], creds[1])
		require.ErrorIs(t, err, players.ErrInvalidCredentials, "%v", creds)
	}
}

func TestLoginWithToken(t *testing.T) {
	secret := []byte("SECRET TOKEN")
	service := &players.Service{Store: &memoryStore{}}
	player, err := service.Register("erin", "erin@example.com", "pw")
	require.NoError(t, err)

	token, err := players.GenerateAuthToken(player, secret, time.Hour)
	require.NoError(t, err)
	loaded, err := service.LoginWithToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, player.ID, loaded.ID)

	_, err = service.LoginWithToken(token, []byte("other secret"))
	require.ErrorIs(t, err, players.ErrInvalidSignature)
}
