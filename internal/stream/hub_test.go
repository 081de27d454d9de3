package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"snakerl/internal/train"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) (Event, train.Report) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	var r train.Report
	if err := json.Unmarshal(ev.Data, &r); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	return ev, r
}

func TestHubBroadcastsReports(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	a, b := dial(t, url), dial(t, url)
	defer a.Close()
	defer b.Close()
	waitClients(t, hub, 2)

	hub.Episode(train.Report{Agent: "QLearning", Episodes: 4, BestScore: 2})
	for _, conn := range []*websocket.Conn{a, b} {
		ev, r := readEvent(t, conn)
		if ev.Type != "episode" || r.Agent != "QLearning" || r.Episodes != 4 || r.BestScore != 2 {
			t.Fatalf("unexpected event %s %+v", ev.Type, r)
		}
	}

	hub.Episode(train.Report{Episodes: 5, Final: true})
	if ev, _ := readEvent(t, a); ev.Type != "final" {
		t.Fatalf("expected final event, got %s", ev.Type)
	}
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))
	waitClients(t, hub, 1)
	conn.Close()
	waitClients(t, hub, 0)

	// broadcasting with nobody listening is fine
	hub.Episode(train.Report{Episodes: 1})
}

func TestServeStopsWithContext(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	addr, err := Serve(ctx, "127.0.0.1:0", hub)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}

	conn := dial(t, "ws://"+addr+"/ws")
	defer conn.Close()
	waitClients(t, hub, 1)

	cancel()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the connection to close on shutdown")
	}
}
