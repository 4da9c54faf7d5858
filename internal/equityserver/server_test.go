package equityserver

import (
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: log.ErrorLevel})
	srv := New(DefaultConfig(), logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/equity"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServerHandEquity(t *testing.T) {
	seed := int64(42)
	conn := dial(t, testServer(t))

	require.NoError(t, conn.WriteJSON(Request{
		Hands:      []string{"AhAs", "KhKs"},
		Iterations: 5000,
		Seed:       &seed,
	}))

	var update Update
	require.NoError(t, conn.ReadJSON(&update))
	assert.True(t, update.Final)
	require.Len(t, update.Win, 2)
	assert.Greater(t, update.Win[0], update.Win[1], "aces beat kings")
	assert.InDelta(t, 1.0, update.Win[0]+update.Win[1]+update.Split, 1e-9)
}

func TestServerRangeEquityStream(t *testing.T) {
	seed := int64(7)
	conn := dial(t, testServer(t))

	require.NoError(t, conn.WriteJSON(Request{
		Board:      "Qs Jh 4c",
		Ranges:     []string{"QQ+", "AKs 22-55"},
		Iterations: 2000, // caps the stream
		Seed:       &seed,
	}))

	var last Update
	for {
		var update Update
		require.NoError(t, conn.ReadJSON(&update))
		require.Empty(t, update.Error)
		last = update
		if update.Final {
			break
		}
	}

	require.Len(t, last.Win, 2)
	assert.Equal(t, uint64(2000), last.Iterations)
	assert.InDelta(t, 1.0, last.Win[0]+last.Win[1]+last.Split, 1e-9)
}

func TestServerRejectsBadRequest(t *testing.T) {
	conn := dial(t, testServer(t))

	require.NoError(t, conn.WriteJSON(Request{
		Hands: []string{"AhAs", "AhKd"}, // shared ace
	}))

	var update Update
	require.NoError(t, conn.ReadJSON(&update))
	assert.True(t, update.Final)
	assert.NotEmpty(t, update.Error)
}

func TestServerRequiresHandsOrRanges(t *testing.T) {
	conn := dial(t, testServer(t))

	require.NoError(t, conn.WriteJSON(Request{}))

	var update Update
	require.NoError(t, conn.ReadJSON(&update))
	assert.NotEmpty(t, update.Error)
}
