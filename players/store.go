package players

import (
	"errors"
	"time"
)

type Player struct {
	ID           uint32
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// PlayerInfo is the public part of a player.
type PlayerInfo struct {
	ID   uint32
	Name string
}

func (p *Player) Info() PlayerInfo {
	return PlayerInfo{ID: p.ID, Name: p.Name}
}

// ErrPlayerNotFound is returned by stores when no player matches a lookup.
var ErrPlayerNotFound = errors.New("player not found")

type PlayerStore interface {
	CreatePlayer(name, email, hash string) (*Player, error)
	FindPlayerByName(name string) (*Player, error)
	FindPlayerByEmail(email string) (*Player, error)
	FindPlayerByID(id uint32) (*Player, error)
}
