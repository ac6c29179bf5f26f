package players

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Service struct {
	Store PlayerStore
}

type AuthToken struct {
	PlayerID  uint32
	Expiry    int64
	Nonce     [16]byte
	Signature [32]byte
}

const AuthTokenLength = 4 + 8 + 16 + 32

var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidFormat    = errors.New("invalid token format")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingFields      = errors.New("username, email, and password are required")
	ErrPlayerExists       = errors.New("player with this email or username already exists")
)

func (s *Service) Register(name, email, password string) (*Player, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if err := s.checkAvailable(name, email); err != nil {
		return nil, err
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.Store.CreatePlayer(name, email, passwordHash)
}

func (s *Service) checkAvailable(name, email string) error {
	for _, find := range []func() (*Player, error){
		func() (*Player, error) { return s.Store.FindPlayerByName(name) },
		func() (*Player, error) { return s.Store.FindPlayerByEmail(email) },
	} {
		_, err := find()
		switch {
		case err == nil:
			return ErrPlayerExists
		case !errors.Is(err, ErrPlayerNotFound):
			return err
		}
	}
	return nil
}

// Login accepts either the player's name or email as identifier.
func (s *Service) Login(identifier, password string) (*Player, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	var player *Player
	var err error
	if strings.Contains(identifier, "@") {
		player, err = s.Store.FindPlayerByEmail(identifier)
	} else {
		player, err = s.Store.FindPlayerByName(identifier)
	}
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !checkPasswordHash(password, player.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return player, nil
}

// LoginWithToken validates the token and loads the player it was issued to.
func (s *Service) LoginWithToken(token AuthToken, secret []byte) (*Player, error) {
	playerID, err := ValidateAuthToken(token, secret)
	if err != nil {
		return nil, err
	}
	return s.Store.FindPlayerByID(playerID)
}

func (s *Service) FindPlayerByName(name string) (*Player, error) {
	return s.Store.FindPlayerByName(name)
}

func (s *Service) FindPlayerByID(id uint32) (*Player, error) {
	return s.Store.FindPlayerByID(id)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// GenerateAuthToken issues a token for the player that expires after ttl.
func GenerateAuthToken(player *Player, secret []byte, ttl time.Duration) (AuthToken, error) {
	token := AuthToken{PlayerID: player.ID, Expiry: time.Now().Add(ttl).Unix()}
	if _, err := rand.Read(token.Nonce[:]); err != nil {
		return AuthToken{}, err
	}
	token.Signature = sign(token.signedFields(), secret)
	return token, nil
}

// signedFields is the encoded token without its signature.
func (token AuthToken) signedFields() []byte {
	return token.encode()[:AuthTokenLength-len(token.Signature)]
}

func (token AuthToken) MarshalBinary() ([]byte, error) {
	return token.encode(), nil
}

func (token AuthToken) encode() []byte {
	data := make([]byte, AuthTokenLength)
	binary.BigEndian.PutUint32(data[0:4], token.PlayerID)
	binary.BigEndian.PutUint64(data[4:12], uint64(token.Expiry))
	copy(data[12:28], token.Nonce[:])
	copy(data[28:], token.Signature[:])
	return data
}

func (token *AuthToken) UnmarshalBinary(data []byte) error {
	if len(data) != AuthTokenLength {
		return fmt.Errorf("%w: %d bytes", ErrInvalidFormat, len(data))
	}
	token.PlayerID = binary.BigEndian.Uint32(data[0:4])
	token.Expiry = int64(binary.BigEndian.Uint64(data[4:12]))
	copy(token.Nonce[:], data[12:28])
	copy(token.Signature[:], data[28:])
	return nil
}

// ValidateAuthToken checks expiry and signature and returns the id of the
// player the token was issued to.
func ValidateAuthToken(token AuthToken, secret []byte) (uint32, error) {
	if time.Now().Unix() > token.Expiry {
		return 0, ErrTokenExpired
	}
	expected := sign(token.signedFields(), secret)
	if !hmac.Equal(token.Signature[:], expected[:]) {
		return 0, ErrInvalidSignature
	}
	return token.PlayerID, nil
}

func sign(data, key []byte) [32]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return [32]byte(mac.Sum(nil))
}
