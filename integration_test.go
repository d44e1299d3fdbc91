package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"wordroom-server/api"
	"wordroom-server/auth"
	"wordroom-server/config"
	"wordroom-server/dictionary"
	"wordroom-server/game"
	"wordroom-server/lobby"
	"wordroom-server/room"
	"wordroom-server/storage"
	"wordroom-server/ws"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	words := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(words, []byte("apple\ngrape\npaper\neagle\nalert\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Defaults()
	cfg.DictionarySource = words
	cfg.SyllableMinWords = 1

	dict := dictionary.New(cfg.DictionarySource, cfg.SyllableMinWords)
	factory := game.NewFactory()
	game.RegisterAll(factory)
	registry := lobby.NewRegistry(time.Duration(cfg.LobbyTTLSec) * time.Second)
	rooms := room.NewManager(cfg, dict, factory, storage.NewMemoryStore(), registry)
	t.Cleanup(rooms.Shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub(rooms, auth.NewVerifier(""))
	go hub.Run(ctx)

	handler := api.NewHandler(registry, rooms)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/api/rooms", handler.ListRooms)
	mux.HandleFunc("/api/rooms/status", handler.RoomStatus)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, params map[string]string) *websocket.Conn {
	t.Helper()
	u, err := url.Parse("ws" + strings.TrimPrefix(srv.URL, "http") + "/ws")
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial %s: %v", u, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitFor reads messages until pred accepts one or the deadline passes.
func waitFor(t *testing.T, conn *websocket.Conn, what string, pred func(map[string]interface{}) bool) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		var msg map[string]interface{}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if pred(msg) {
			return msg
		}
	}
	t.Fatalf("timed out waiting for %s", what)
	return nil
}

func playerNames(msg map[string]interface{}) []string {
	players, _ := msg["players"].([]interface{})
	var names []string
	for _, p := range players {
		if entry, ok := p.(map[string]interface{}); ok {
			if name, ok := entry["name"].(string); ok {
				names = append(names, name)
			}
		}
	}
	return names
}

func TestTwoPlayersShareRoomState(t *testing.T) {
	srv := startTestServer(t)

	alice := dial(t, srv, map[string]string{"room": "r1", "name": "Alice"})
	waitFor(t, alice, "initial state", func(m map[string]interface{}) bool {
		return m["type"] == "state"
	})

	bob := dial(t, srv, map[string]string{"room": "r1", "name": "Bob"})

	state := waitFor(t, bob, "state with both players", func(m map[string]interface{}) bool {
		return m["type"] == "state" && len(playerNames(m)) == 2
	})
	names := playerNames(state)
	if names[0] != "Alice" || names[1] != "Bob" {
		t.Errorf("expected join-ordered roster [Alice Bob], got %v", names)
	}
	if state["mode"] != game.DefaultMode {
		t.Errorf("expected default mode, got %v", state["mode"])
	}
}

func TestChatReachesOtherPlayer(t *testing.T) {
	srv := startTestServer(t)

	alice := dial(t, srv, map[string]string{"room": "r2", "name": "Alice"})
	bob := dial(t, srv, map[string]string{"room": "r2", "name": "Bob"})
	waitFor(t, bob, "joined state", func(m map[string]interface{}) bool {
		return m["type"] == "state"
	})

	msg, _ := json.Marshal(map[string]string{"type": "chat", "text": "hello there"})
	if err := alice.WriteMessage(websocket.TextMessage, msg); err != nil {
		t.Fatal(err)
	}

	waitFor(t, bob, "chat relay", func(m map[string]interface{}) bool {
		return m["type"] == "chat" && m["text"] == "hello there"
	})
}

func TestWrongPasswordClosesConnection(t *testing.T) {
	srv := startTestServer(t)

	owner := dial(t, srv, map[string]string{"room": "r3", "name": "Alice", "password": "secret"})
	waitFor(t, owner, "owner state", func(m map[string]interface{}) bool {
		return m["type"] == "state"
	})

	intruder := dial(t, srv, map[string]string{"room": "r3", "name": "Eve", "password": "wrong"})
	intruder.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := intruder.ReadMessage(); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				t.Fatalf("expected a close frame, got %v", err)
			}
			if closeErr.Code != room.CloseInvalidPassword {
				t.Fatalf("expected close code %d, got %d", room.CloseInvalidPassword, closeErr.Code)
			}
			return
		}
	}
}

func TestRoomStatusEndpoint(t *testing.T) {
	srv := startTestServer(t)

	alice := dial(t, srv, map[string]string{"room": "r4", "name": "Alice", "password": "pw", "mode": "wordle"})
	waitFor(t, alice, "state", func(m map[string]interface{}) bool {
		return m["type"] == "state"
	})

	resp, err := http.Get(srv.URL + "/api/rooms/status?room=r4")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var status struct {
		Exists      bool   `json:"exists"`
		HasPassword bool   `json:"hasPassword"`
		Players     int    `json:"players"`
		Mode        string `json:"mode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if !status.Exists || !status.HasPassword || status.Players != 1 || status.Mode != "wordle" {
		t.Errorf("unexpected status %+v", status)
	}

	resp2, err := http.Get(srv.URL + "/api/rooms/status?room=missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	var missing struct {
		Exists bool `json:"exists"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&missing); err != nil {
		t.Fatal(err)
	}
	if missing.Exists {
		t.Error("expected missing room to report exists=false")
	}
}

func TestRoomDirectoryListing(t *testing.T) {
	srv := startTestServer(t)

	alice := dial(t, srv, map[string]string{"room": "listed", "name": "Alice"})
	waitFor(t, alice, "state", func(m map[string]interface{}) bool {
		return m["type"] == "state"
	})

	resp, err := http.Get(srv.URL + "/api/rooms")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var listing []struct {
		ID      string `json:"id"`
		Players int    `json:"players"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, entry := range listing {
		if entry.ID == "listed" && entry.Players == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected room in directory, got %v", listing)
	}
}
