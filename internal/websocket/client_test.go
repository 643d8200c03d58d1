// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// serveHub starts an HTTP server that attaches every connection to hub as
// userID.
func serveHub(t *testing.T, hub *Hub, userID string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ServeWS(hub, w, r, userID, nil); err != nil {
			t.Errorf("ServeWS() error = %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Inbound {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		t.Fatalf("bad frame %s: %v", data, err)
	}
	return in
}

func waitClients(t *testing.T, hub *Hub, userID string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.UserClientCount(userID) != n {
		if time.Now().After(deadline) {
			t.Fatalf("user %s has %d clients, want %d", userID, hub.UserClientCount(userID), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServeWSDeliversUserMessages(t *testing.T) {
	t.Parallel()

	hub, _ := startHub(t)
	conn := dial(t, serveHub(t, hub, "u1"))
	waitClients(t, hub, "u1", 1)

	hub.BroadcastToUser("u1", Message{Type: MessageTypeLiveUpdate, Data: map[string]int{"totalScans": 3}})
	in := readMessage(t, conn)
	if in.Type != MessageTypeLiveUpdate || string(in.Data) != `{"totalScans":3}` {
		t.Errorf("got %s %s", in.Type, in.Data)
	}
}

func TestClientPingPong(t *testing.T) {
	t.Parallel()

	hub, _ := startHub(t)
	conn := dial(t, serveHub(t, hub, "u1"))

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatal(err)
	}
	if in := readMessage(t, conn); in.Type != MessageTypePong {
		t.Errorf("got %s", in.Type)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`not json`)); err != nil {
		t.Fatal(err)
	}
	if in := readMessage(t, conn); in.Type != MessageTypeError {
		t.Errorf("got %s, want error frame", in.Type)
	}
}

func TestClientMessagesReachHook(t *testing.T) {
	t.Parallel()

	hub, _ := startHub(t)
	got := make(chan Inbound, 1)
	hub.SetHooks(Hooks{OnMessage: func(c *Client, in Inbound) {
		if c.UserID() == "u1" {
			got <- in
		}
	}})
	conn := dial(t, serveHub(t, hub, "u1"))

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"mark_read","data":{"id":"n1"}}`)); err != nil {
		t.Fatal(err)
	}
	select {
	case in := <-got:
		if in.Type != MessageTypeMarkRead || string(in.Data) != `{"id":"n1"}` {
			t.Errorf("got %+v", in)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hook not called")
	}
}

func TestClosingConnectionUnregisters(t *testing.T) {
	t.Parallel()

	hub, _ := startHub(t)
	released := make(chan string, 1)
	hub.SetHooks(Hooks{OnDisconnect: func(c *Client) { released <- c.UserID() }})

	conn := dial(t, serveHub(t, hub, "u2"))
	waitClients(t, hub, "u2", 1)
	_ = conn.Close()

	select {
	case id := <-released:
		if id != "u2" {
			t.Errorf("released %s", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect hook not called")
	}
	waitClients(t, hub, "u2", 0)
}

func TestClientPingDuringHubShutdown(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(stopped)
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	conn := dial(t, serveHub(t, hub, "pinger"))
	waitClients(t, hub, "pinger", 1)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-stopped

	// The server closes the connection after the hub detaches the client.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	_ = conn.Close()
	<-writerDone
}
