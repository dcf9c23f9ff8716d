package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var errNoGame = errors.New("game not found")

func testSnapshot(ctx context.Context, code string) (interface{}, error) {
	if code == "NOPE99" {
		return nil, errNoGame
	}
	return map[string]string{"gameCode": code, "gameState": "waiting"}, nil
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(testSnapshot, []string{"http://localhost:3000"})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	router := mux.NewRouter()
	router.HandleFunc("/ws/{code}", hub.HandleWebSocket)
	srv := httptest.NewServer(router)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, code string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + code
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%s) error = %v", code, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	return msg
}

func TestConnectReceivesSnapshot(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv, "ABCDEF")

	msg := readMessage(t, conn)
	if msg.Type != TypeSnapshot {
		t.Fatalf("first message type = %q, want snapshot", msg.Type)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["gameCode"] != "ABCDEF" {
		t.Errorf("snapshot data = %v", msg.Data)
	}
}

func TestBroadcastReachesOnlyItsRoom(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv, "ROOMAA")
	b := dial(t, srv, "ROOMBB")
	readMessage(t, a)
	readMessage(t, b)

	hub.Broadcast("ROOMAA", "playerJoined", map[string]int{"totalPlayers": 2})

	msg := readMessage(t, a)
	if msg.Type != "playerJoined" {
		t.Errorf("message type = %q, want playerJoined", msg.Type)
	}

	b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := b.ReadMessage(); err == nil {
		t.Error("client in another room received the broadcast")
	}
}

func TestClientRequests(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv, "ABCDEF")
	readMessage(t, conn)

	if err := conn.WriteJSON(Message{Type: TypePing}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != TypePong {
		t.Errorf("reply to ping = %q, want pong", msg.Type)
	}

	if err := conn.WriteJSON(Message{Type: TypeSnapshot}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != TypeSnapshot {
		t.Errorf("reply to snapshot = %q, want snapshot", msg.Type)
	}
}

func TestUnknownGameIsRejected(t *testing.T) {
	_, srv := startHub(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/NOPE99"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Dial() succeeded for unknown game")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", resp)
	}
}

func TestForeignOriginIsRejected(t *testing.T) {
	_, srv := startHub(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/ABCDEF"

	header := http.Header{"Origin": []string{"http://evil.example"}}
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Error("Dial() from foreign origin succeeded")
	}

	header = http.Header{"Origin": []string{"http://localhost:3000"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("Dial() from allowed origin error = %v", err)
	}
	conn.Close()
}

func TestDisconnectLeavesRoom(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "ABCDEF")
	readMessage(t, conn)

	if n := hub.RoomSize("ABCDEF"); n != 1 {
		t.Fatalf("RoomSize() = %d, want 1", n)
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize("ABCDEF") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client still registered after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
