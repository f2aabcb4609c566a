package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type testState struct {
	Index int `json:"index"`
}

func newTestServer(t *testing.T, h *Hub, commands chan<- CommandData) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		client := NewClient(h, conn, r.URL.Query().Get("session"))
		client.SendMessage(MsgTypeState, testState{Index: -1})
		h.Register(client)

		go client.WritePump()
		go client.ReadPump(context.Background(), func(ctx context.Context, c *Client, cmd CommandData) {
			commands <- cmd
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, session string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session=" + session
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return msg
}

func waitForSubscribers(t *testing.T, h *Hub, session string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.SubscriberCount(session) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers for %s, got %d", n, session, h.SubscriberCount(session))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_PublishReachesSessionSubscribersOnly(t *testing.T) {
	h := New()
	go h.Run()
	defer h.Stop()

	srv := newTestServer(t, h, make(chan CommandData, 1))

	a1 := dial(t, srv, "a")
	a2 := dial(t, srv, "a")
	b := dial(t, srv, "b")
	waitForSubscribers(t, h, "a", 2)
	waitForSubscribers(t, h, "b", 1)

	// 连接后先收到初始快照
	for _, conn := range []*websocket.Conn{a1, a2, b} {
		if msg := readMessage(t, conn); msg.Type != MsgTypeState {
			t.Fatalf("expected initial state, got %s", msg.Type)
		}
	}

	if err := h.Publish("a", MsgTypeState, testState{Index: 2}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	for _, conn := range []*websocket.Conn{a1, a2} {
		msg := readMessage(t, conn)
		var st testState
		if err := json.Unmarshal(msg.Data, &st); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if msg.Type != MsgTypeState || st.Index != 2 {
			t.Errorf("unexpected message %+v", msg)
		}
	}

	b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := b.ReadMessage(); err == nil {
		t.Error("expected no message for other session")
	}
}

func TestHub_CommandsAndPing(t *testing.T) {
	h := New()
	go h.Run()
	defer h.Stop()

	commands := make(chan CommandData, 1)
	srv := newTestServer(t, h, commands)
	conn := dial(t, srv, "a")
	readMessage(t, conn)

	if err := conn.WriteJSON(Message{Type: MsgTypePing}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != MsgTypePong {
		t.Errorf("expected pong, got %s", msg.Type)
	}

	data, _ := json.Marshal(CommandData{Action: "next"})
	if err := conn.WriteJSON(Message{Type: MsgTypeCommand, Data: data}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	select {
	case cmd := <-commands:
		if cmd.Action != "next" {
			t.Errorf("expected next, got %q", cmd.Action)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command not delivered")
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != MsgTypeError {
		t.Errorf("expected error message, got %s", msg.Type)
	}
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	h := New()
	go h.Run()
	defer h.Stop()

	srv := newTestServer(t, h, make(chan CommandData, 1))
	conn := dial(t, srv, "a")
	waitForSubscribers(t, h, "a", 1)

	conn.Close()
	waitForSubscribers(t, h, "a", 0)
}
