package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/seatcheck/go/internal/gateway"
	"github.com/mcdev12/seatcheck/go/internal/models"
	"github.com/mcdev12/seatcheck/go/internal/seats"
	"github.com/mcdev12/seatcheck/go/internal/seats/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *Services) {
	t.Helper()
	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<h1>seats</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(static, "app.js"), []byte("console.log('hi')"), 0o644))

	cfg := defaultConfig()
	cfg.TotalSeats = 3
	cfg.StaticDir = static
	cfg.Store.Backend = BackendMemory

	services, err := setupServices(context.Background(), cfg, store.NewMemoryBackend(), clockwork.NewFakeClock())
	require.NoError(t, err)

	srv := httptest.NewServer(newHandler(cfg, services))
	t.Cleanup(func() {
		services.Close()
		srv.Close()
	})
	return srv, services
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_HealthCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)
}

func TestServer_StaticFallback(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := get(t, srv.URL+"/app.js")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "console.log('hi')", body)

	for _, path := range []string{"/", "/checkin/12"} {
		status, body = get(t, srv.URL+path)
		assert.Equal(t, http.StatusOK, status, path)
		assert.Equal(t, "<h1>seats</h1>", body, path)
	}

	status, _ = get(t, srv.URL+"/api/unknown")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestServer_CORS(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/seats", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_CheckinBroadcastsPersistedRoster(t *testing.T) {
	srv, services := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return services.Connections.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/api/seats/2/check", "application/json", strings.NewReader(`{"name":"Alice","checked":true}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event gateway.SeatsEvent
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, gateway.EventTypeSeatsUpdated, event.Event)

	_, body := get(t, srv.URL+"/api/seats")
	var roster models.Roster
	require.NoError(t, json.Unmarshal([]byte(body), &roster))
	assert.Equal(t, roster, event.Data)
	assert.Equal(t, models.Seat{Number: 2, Name: "Alice", Checked: true}, roster[1])

	_, body = get(t, srv.URL+"/api/stats")
	assert.JSONEq(t, `{"sessions":1,"total_seats":3,"checked_in":1}`, body)
}

func TestServer_RPC(t *testing.T) {
	srv, _ := newTestServer(t)

	client := connect.NewClient[seats.SetCheckinRPCRequest, seats.SetCheckinResponse](
		http.DefaultClient, srv.URL+seats.SetCheckinProcedure, connect.WithCodec(seats.JSONCodec{}))
	resp, err := client.CallUnary(context.Background(), connect.NewRequest(&seats.SetCheckinRPCRequest{Number: 3, Name: "Bob", Checked: true}))
	require.NoError(t, err)
	assert.Equal(t, models.Seat{Number: 3, Name: "Bob", Checked: true}, resp.Msg.Seat)

	_, err = client.CallUnary(context.Background(), connect.NewRequest(&seats.SetCheckinRPCRequest{Number: 0}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}
