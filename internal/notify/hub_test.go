package notify

import (
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), want)
}

func TestHubBroadcast(t *testing.T) {
	h := NewHub(testLogger())
	defer h.Close()

	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	defer func() { _ = conn.Close() }()
	waitForClients(t, h, 1)

	h.Broadcast(NotificationEvent("Update", "Version 1.3.0 is available", "info"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if ev.Type != EventNotification {
		t.Errorf("Type = %q, want %q", ev.Type, EventNotification)
	}
	payload, ok := ev.Payload.(map[string]any)
	if !ok {
		t.Fatalf("Payload = %T", ev.Payload)
	}
	if payload["title"] != "Update" || payload["level"] != "info" {
		t.Errorf("payload = %v", payload)
	}
}

func TestHubBroadcastMultipleClients(t *testing.T) {
	h := NewHub(testLogger())
	defer h.Close()

	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	a := dial(t, srv)
	defer func() { _ = a.Close() }()
	b := dial(t, srv)
	defer func() { _ = b.Close() }()
	waitForClients(t, h, 2)

	h.Broadcast(Event{Type: EventUpdateAvailable, Payload: map[string]string{"newVersion": "1.3.0"}})

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if ev.Type != EventUpdateAvailable {
			t.Errorf("Type = %q", ev.Type)
		}
	}
}

func TestHubDropsDisconnectedClient(t *testing.T) {
	h := NewHub(testLogger())
	defer h.Close()

	srv := httptest.NewServer(h.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, h, 1)

	_ = conn.Close()
	waitForClients(t, h, 0)
}

func TestUpdateEventEnvelope(t *testing.T) {
	ev := UpdateEvent(map[string]string{"newVersion": "2.0.0"})
	if ev.Type != EventUpdateAvailable {
		t.Errorf("Type = %q", ev.Type)
	}
}
