package server

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/tomasstrnad1997/minesweeper/mines"
	"github.com/tomasstrnad1997/minesweeper/players"
	"github.com/tomasstrnad1997/minesweeper/protocol"
	"github.com/tomasstrnad1997/minesweeper/scores"
)

var (
	ErrAccountsDisabled = errors.New("accounts are not enabled on this server")
	ErrNotLoggedIn      = errors.New("log in first")
)

func (server *Server) RegisterHandlers() {
	server.registerHandler(protocol.StartGame, server.handleStartGame)
	server.registerHandler(protocol.MoveCommand, server.handleMove)
	server.registerHandler(protocol.RequestReload, server.handleReload)
	server.registerHandler(protocol.GetServerInfo, func(_ []byte, session *Session) error {
		encoded, err := protocol.EncodeSendServerInfo(server.GetServerInfo())
		if err != nil {
			return err
		}
		server.sendMessage(encoded, session)
		return nil
	})
	server.registerHandler(protocol.RegisterPlayerRequest, server.handleRegister)
	server.registerHandler(protocol.AuthRequest, server.handleAuth)
	server.registerHandler(protocol.AuthWithToken, server.handleAuthWithToken)
	server.registerHandler(protocol.GetScores, server.handleGetScores)
	server.registerHandler(protocol.GetStats, server.handleGetStats)
}

func (server *Server) handleStartGame(data []byte, session *Session) error {
	settings, err := protocol.DecodeGameStart(data)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if session.game.Started() && session.game.State() == mines.Playing {
		msg, err := protocol.EncodeGameEnd(protocol.GameEndInfo{Type: protocol.Aborted, Seconds: int(session.game.Elapsed().Seconds())})
		if err != nil {
			return err
		}
		server.sendMessage(msg, session)
	}
	if err := session.game.ChangeSettings(*settings); err != nil {
		return err
	}
	session.logger.WithField("settings", settings.String()).Debug("Starting a new game")
	return server.sendGameStart(session)
}

func (server *Server) sendCellUpdates(updates []mines.UpdatedCell, session *Session) error {
	if len(updates) == 0 {
		return nil
	}
	encoded, err := protocol.EncodeCellUpdates(updates)
	if err != nil {
		return err
	}
	server.sendMessage(encoded, session)
	return nil
}

func (server *Server) handleMove(data []byte, session *Session) error {
	move, err := protocol.DecodeMove(data)
	if err != nil {
		return err
	}
	if session.game.State() != mines.Playing {
		server.sendTextMessage("Round is over. Start a new game.", session)
		return nil
	}
	moveResult, err := session.game.MakeMove(*move)
	var moveErr *mines.InvalidMoveError
	if errors.As(err, &moveErr) {
		server.sendTextMessage(moveErr.Error(), session)
		return nil
	}
	if err != nil {
		return err
	}
	if err := server.sendCellUpdates(mines.CellUpdates(moveResult.UpdatedCells), session); err != nil {
		return err
	}
	if moveResult.Result == mines.GameWon || moveResult.Result == mines.MineBlown {
		return server.finishRound(session)
	}
	return nil
}

// finishRound records the outcome for a logged in player and tells the
// client the round is over.
func (server *Server) finishRound(session *Session) error {
	outcome, ok := session.game.Outcome()
	if !ok {
		return fmt.Errorf("round has no outcome")
	}
	info := protocol.GameEndInfo{Type: protocol.Loss, Seconds: outcome.Seconds()}
	if outcome.Won {
		info.Type = protocol.Win
	}
	logger := session.logger.WithFields(log.Fields{"won": outcome.Won, "seconds": info.Seconds, "difficulty": outcome.Difficulty})
	if session.player != nil && server.opts.Scores != nil {
		report, err := server.opts.Scores.RecordOutcome(session.player.ID, outcome)
		switch {
		case errors.Is(err, scores.ErrUnranked):
			logger.Debug("Custom round not recorded")
		case err != nil:
			logger.WithError(err).Error("Failed to record outcome")
		default:
			info.NewBest = report.Score != nil && report.Score.NewBest
		}
	}
	logger.Info("Round finished")
	encoded, err := protocol.EncodeGameEnd(info)
	if err != nil {
		return err
	}
	server.sendMessage(encoded, session)
	return nil
}

func (server *Server) handleReload(data []byte, session *Session) error {
	if err := protocol.DecodeRequestReload(data); err != nil {
		return err
	}
	if err := server.sendGameStart(session); err != nil {
		return err
	}
	if err := server.sendCellUpdates(session.game.VisibleUpdates(), session); err != nil {
		return err
	}
	outcome, ok := session.game.Outcome()
	if !ok {
		return nil
	}
	info := protocol.GameEndInfo{Type: protocol.Loss, Seconds: outcome.Seconds()}
	if outcome.Won {
		info.Type = protocol.Win
	}
	encoded, err := protocol.EncodeGameEnd(info)
	if err != nil {
		return err
	}
	server.sendMessage(encoded, session)
	return nil
}

func (server *Server) handleRegister(data []byte, session *Session) error {
	if server.opts.Players == nil {
		return ErrAccountsDisabled
	}
	params, err := protocol.DecodeRegisterPlayerRequest(data)
	if err != nil {
		return err
	}
	response := protocol.RegisterResponse{Success: true, Message: "Registration successful"}
	player, err := server.opts.Players.Register(params.Name, params.Email, params.Password)
	switch {
	case errors.Is(err, players.ErrMissingFields), errors.Is(err, players.ErrPlayerExists):
		response = protocol.RegisterResponse{Success: false, Message: err.Error()}
	case err != nil:
		return err
	default:
		session.logger.WithField("player", player.ID).Info("Player registered")
	}
	encoded, err := protocol.EncodeRegisterPlayerResponse(response)
	if err != nil {
		return err
	}
	server.sendMessage(encoded, session)
	return nil
}

func (server *Server) sendAuthResponse(player *players.Player, session *Session) error {
	if player == nil {
		encoded, err := protocol.EncodeAuthResponse(protocol.AuthResponse{Success: false})
		if err != nil {
			return err
		}
		server.sendMessage(encoded, session)
		return nil
	}
	token, err := players.GenerateAuthToken(player, server.opts.TokenSecret, server.opts.TokenTTL)
	if err != nil {
		return err
	}
	info := player.Info()
	encoded, err := protocol.EncodeAuthResponse(protocol.AuthResponse{Success: true, Player: &info, Token: &token})
	if err != nil {
		return err
	}
	session.player = player
	session.logger.WithField("player", player.ID).Info("Player logged in")
	server.sendMessage(encoded, session)
	return nil
}

func (server *Server) handleAuth(data []byte, session *Session) error {
	if server.opts.Players == nil {
		return ErrAccountsDisabled
	}
	params, err := protocol.DecodeAuthRequest(data)
	if err != nil {
		return err
	}
	player, err := server.opts.Players.Login(params.Name, params.Password)
	if err != nil && !errors.Is(err, players.ErrInvalidCredentials) {
		return err
	}
	return server.sendAuthResponse(player, session)
}

func (server *Server) handleAuthWithToken(data []byte, session *Session) error {
	if server.opts.Players == nil {
		return ErrAccountsDisabled
	}
	token, err := protocol.DecodeAuthWithToken(data)
	if err != nil {
		return err
	}
	player, err := server.opts.Players.LoginWithToken(token, server.opts.TokenSecret)
	if err != nil {
		session.logger.WithError(err).Debug("Token rejected")
		player = nil
	}
	return server.sendAuthResponse(player, session)
}

func (server *Server) handleGetScores(data []byte, session *Session) error {
	if server.opts.Scores == nil {
		return ErrAccountsDisabled
	}
	request, err := protocol.DecodeGetScores(data)
	if err != nil {
		return err
	}
	list, err := server.opts.Scores.Leaderboard(request.Difficulty, request.Limit)
	if err != nil {
		return err
	}
	encoded, err := protocol.EncodeSendScores(request.Difficulty, list)
	if err != nil {
		return err
	}
	server.sendMessage(encoded, session)
	return nil
}

func (server *Server) handleGetStats(data []byte, session *Session) error {
	if server.opts.Scores == nil {
		return ErrAccountsDisabled
	}
	request, err := protocol.DecodeGetStats(data)
	if err != nil {
		return err
	}
	var list []scores.Stats
	switch request.Scope {
	case protocol.OwnStats:
		if session.player == nil {
			return ErrNotLoggedIn
		}
		list, err = server.opts.Scores.PlayerStats(session.player.ID)
	case protocol.AllStats:
		list, err = server.opts.Scores.AllStats()
	case protocol.PlayerStats:
		list, err = server.opts.Scores.PlayerStats(request.PlayerID)
	}
	if err != nil {
		return err
	}
	encoded, err := protocol.EncodeSendStats(list)
	if err != nil {
		return err
	}
	server.sendMessage(encoded, session)
	return nil
}
