// Package testhelpers provides common utilities and helper functions for testing the relay server.
//
// It starts fully wired test servers, dials WebSocket clients with an allowed
// origin, and reads relay events so end-to-end tests stay short.
package testhelpers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomrelay/internal/relay"
	"github.com/Tyrowin/roomrelay/internal/server"
)

// TestOrigin is the origin every test server allows.
const TestOrigin = "http://localhost:8080"

// Event is a decoded outbound relay event.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Str returns the string field key of the event data.
func (e Event) Str(key string) string {
	s, _ := e.Data[key].(string)
	return s
}

// Int returns the numeric field key of the event data.
func (e Event) Int(key string) int {
	f, _ := e.Data[key].(float64)
	return int(f)
}

// TestServer bundles a running httptest server with the hub and registry behind it.
type TestServer struct {
	*httptest.Server
	Hub      *server.Hub
	Registry *relay.Registry
}

// WSURL returns the WebSocket URL for path on the test server.
func (s *TestServer) WSURL(path string) string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + path
}

// NewTestServer starts a relay server with test defaults. customize may
// adjust the configuration before the hub is built. The server and hub are
// stopped when the test ends.
func NewTestServer(t *testing.T, customize func(cfg *server.Config)) *TestServer {
	t.Helper()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{TestOrigin}
	if customize != nil {
		customize(cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := relay.NewRegistry(relay.WithLogger(logger))
	hub := server.NewHub(registry, *cfg, logger)
	go hub.Run()

	ts := httptest.NewServer(server.SetupRoutes(hub, nil))
	t.Cleanup(func() {
		ts.Close()
		_ = hub.Shutdown(5 * time.Second)
	})

	return &TestServer{Server: ts, Hub: hub, Registry: registry}
}

// ConnectWebSocket creates a WebSocket connection to the specified URL with
// the test origin.
func ConnectWebSocket(url string) (*websocket.Conn, *http.Response, error) {
	return ConnectWebSocketWithOrigin(url, TestOrigin)
}

// ConnectWebSocketWithOrigin dials url sending origin, or no Origin header
// when origin is empty.
func ConnectWebSocketWithOrigin(url, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// MustConnect dials url, reads the connected event, and returns the
// connection with its assigned client id. The connection is closed when the
// test ends.
func MustConnect(t *testing.T, url string) (*websocket.Conn, string) {
	t.Helper()

	conn, _, err := ConnectWebSocket(url)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	ev := ReadEvent(t, conn)
	if ev.Type != "connected" {
		t.Fatalf("Expected connected event, got %q", ev.Type)
	}
	return conn, ev.Str("clientId")
}

// SendJSON writes v as a single text frame.
func SendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
}

// ReadEvent reads the next event, failing the test after two seconds.
func ReadEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("Failed to decode event %q: %v", payload, err)
	}
	return ev
}

// ExpectEvent reads the next event and checks its type.
func ExpectEvent(t *testing.T, conn *websocket.Conn, eventType string) Event {
	t.Helper()
	ev := ReadEvent(t, conn)
	if ev.Type != eventType {
		t.Fatalf("Expected %q event, got %q (%v)", eventType, ev.Type, ev.Data)
	}
	return ev
}

// ExpectNoEvent fails if a frame arrives within timeout.
func ExpectNoEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	if _, payload, err := conn.ReadMessage(); err == nil {
		t.Fatalf("Expected no event, got %s", payload)
	}
}

// Eventually polls cond until it holds or the timeout passes.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not met before timeout")
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// DecodeJSON decodes the response body into v and closes it.
func DecodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}
