package gamelauncher_test

import (
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/tomasstrnad1997/minesweeper/gamelauncher"
	"github.com/tomasstrnad1997/minesweeper/protocol"
	"github.com/tomasstrnad1997/minesweeper/server"
)

func startLauncher(t *testing.T, maxServers int) *gamelauncher.GameLauncher {
	t.Helper()
	logger := log.New()
	logger.SetOutput(io.Discard)
	launcher, err := gamelauncher.CreateGameLauncher(gamelauncher.Options{
		Host:       "mines.example.com",
		MaxServers: maxServers,
		Server:     server.Options{Host: "127.0.0.1"},
		Logger:     logger,
	})
	require.NoError(t, err)
	go launcher.Loop()
	t.Cleanup(func() { launcher.Close() })
	return launcher
}

func dialLauncher(t *testing.T, launcher *gamelauncher.GameLauncher) *gamelauncher.Client {
	t.Helper()
	client, err := gamelauncher.Dial("127.0.0.1", launcher.Port, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestGameLaunchViaTCP(t *testing.T) {
	nServers := 5
	launcher := startLauncher(t, 0)
	client := dialLauncher(t, launcher)

	for i := range nServers {
		info, err := client.SpawnServer(fmt.Sprintf("Server %d", i))
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("Server %d", i), info.Name)
		require.Equal(t, "mines.example.com", info.Host)
		require.NotZero(t, info.Port)
	}

	infos, err := client.ListServers()
	require.NoError(t, err)
	require.Len(t, infos, nServers)
	for i, info := range infos {
		require.Equal(t, fmt.Sprintf("Server %d", i), info.Name)
	}
}

func TestSpawnedServerIsPlayable(t *testing.T) {
	launcher := startLauncher(t, 0)
	gameServer, err := launcher.SpawnNewGameServer("")
	require.NoError(t, err)
	require.Equal(t, "Server 1", gameServer.Name)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", gameServer.Port))
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	message, err := protocol.ReadMessage(conn)
	require.NoError(t, err)
	require.Equal(t, protocol.StartGame, protocol.MessageType(message[0]))

	require.Eventually(t, func() bool {
		infos := launcher.ServerInfos()
		return len(infos) == 1 && infos[0].PlayerCount == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServerLimit(t *testing.T) {
	launcher := startLauncher(t, 1)
	client := dialLauncher(t, launcher)

	_, err := client.SpawnServer("first")
	require.NoError(t, err)
	_, err = client.SpawnServer("second")
	require.ErrorContains(t, err, gamelauncher.ErrTooManyServers.Error())

	_, err = launcher.SpawnNewGameServer("third")
	require.ErrorIs(t, err, gamelauncher.ErrTooManyServers)
}

func TestRequestIdsAreEchoed(t *testing.T) {
	launcher := startLauncher(t, 0)
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", launcher.Port))
	require.NoError(t, err)
	defer conn.Close()

	requestId := uint32(77)
	request, err := protocol.EncodeGetGameServers(&requestId)
	require.NoError(t, err)
	_, err = conn.Write(request)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	message, err := protocol.ReadMessage(conn)
	require.NoError(t, err)
	servers, echoed, err := protocol.DecodeSendGameServers(message)
	require.NoError(t, err)
	require.Empty(t, servers)
	require.NotNil(t, echoed)
	require.Equal(t, requestId, *echoed)

	// Without an id the reply carries none.
	request, err = protocol.EncodeGetGameServers(nil)
	require.NoError(t, err)
	_, err = conn.Write(request)
	require.NoError(t, err)
	message, err = protocol.ReadMessage(conn)
	require.NoError(t, err)
	_, echoed, err = protocol.DecodeSendGameServers(message)
	require.NoError(t, err)
	require.Nil(t, echoed)
}

func TestClientFailsAfterLauncherCloses(t *testing.T) {
	launcher := startLauncher(t, 0)
	client := dialLauncher(t, launcher)
	_, err := client.ListServers()
	require.NoError(t, err)

	require.NoError(t, launcher.Close())
	_, err = client.ListServers()
	require.Error(t, err)
}
