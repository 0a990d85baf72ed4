package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/driftlabs/relaychat/internal/config"
	chatmodel "github.com/driftlabs/relaychat/internal/model/chat"
	chatservice "github.com/driftlabs/relaychat/internal/service/chat"
)

type stubConn struct {
	addr   string
	closed bool
}

func (c *stubConn) Send(any) error   { return nil }
func (c *stubConn) Close() error     { c.closed = true; return nil }
func (c *stubConn) PeerAddr() string { return c.addr }

func setupRouter() (*chi.Mux, *chatservice.Service) {
	svc := chatservice.NewService(config.ChatConfig{
		AdminKey:      "secret",
		AnonPrefix:    "anon-",
		MsgPerMinute:  20,
		ResetInterval: time.Hour,
	})
	handler := New(svc, "secret")

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, svc
}

func registerUser(t *testing.T, svc *chatservice.Service, addr, name string) (*stubConn, string) {
	t.Helper()
	conn := &stubConn{addr: addr}
	id, ok := svc.Connect(conn)
	if !ok {
		t.Fatalf("connection from %s rejected", addr)
	}
	payload, err := json.Marshal(chatmodel.SessionCreate{
		Type: chatmodel.TypeSessionCreate, UserID: id, DesiredName: name,
	})
	if err != nil {
		t.Fatalf("marshal session create: %v", err)
	}
	svc.HandleFrame(conn, payload)
	return conn, id
}

func doRequest(t *testing.T, r http.Handler, url string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return body
}

func TestStatusReportsConnectedCount(t *testing.T) {
	r, svc := setupRouter()
	registerUser(t, svc, "10.0.0.1:1234", "alice")
	registerUser(t, svc, "10.0.0.2:1234", "bob")

	body := doRequest(t, r, "/status")
	if got := body["clients"].(float64); got != 2 {
		t.Fatalf("expected 2 clients, got %v", got)
	}
}

func TestKickRequiresValidKey(t *testing.T) {
	r, svc := setupRouter()
	conn, _ := registerUser(t, svc, "10.0.0.1:1234", "alice")

	body := doRequest(t, r, "/chat/kick?adminKey=wrong&name=alice")
	if body["success"].(bool) {
		t.Fatal("expected success=false with a bad key")
	}
	if conn.closed {
		t.Fatal("session must survive an unauthorized kick")
	}
}

func TestKickRequiresTarget(t *testing.T) {
	r, _ := setupRouter()

	body := doRequest(t, r, "/chat/kick?adminKey=secret")
	if body["success"].(bool) {
		t.Fatal("expected success=false without id or name")
	}
}

func TestKickUnknownUser(t *testing.T) {
	r, _ := setupRouter()

	body := doRequest(t, r, "/chat/kick?adminKey=secret&name=nobody")
	if body["success"].(bool) {
		t.Fatal("expected success=false for an unknown user")
	}
}

func TestKickByNameThenRestore(t *testing.T) {
	r, svc := setupRouter()
	conn, _ := registerUser(t, svc, "10.0.0.1:1234", "alice")

	body := doRequest(t, r, "/chat/kick?adminKey=secret&name=alice")
	if !body["success"].(bool) {
		t.Fatal("expected kick to succeed")
	}
	if !conn.closed {
		t.Fatal("expected the session's transport to be closed")
	}
	if !svc.IsBanned(conn.addr) {
		t.Fatal("expected the peer address to be banned")
	}

	body = doRequest(t, r, "/chat/restore?adminKey=secret&ip="+conn.addr)
	if !body["success"].(bool) {
		t.Fatal("expected restore to succeed")
	}
	if svc.IsBanned(conn.addr) {
		t.Fatal("expected the ban to be lifted")
	}
}

func TestKickByID(t *testing.T) {
	r, svc := setupRouter()
	conn, id := registerUser(t, svc, "10.0.0.1:1234", "alice")

	body := doRequest(t, r, "/chat/kick?adminKey=secret&id="+id)
	if !body["success"].(bool) {
		t.Fatal("expected kick by id to succeed")
	}
	if !conn.closed {
		t.Fatal("expected the session's transport to be closed")
	}
}

func TestRestoreUnbannedIP(t *testing.T) {
	r, _ := setupRouter()

	body := doRequest(t, r, "/chat/restore?adminKey=secret&ip=10.0.0.9")
	if body["success"].(bool) {
		t.Fatal("expected success=false for an address that was never banned")
	}
}

func TestEmptyConfiguredKeyRefusesEverything(t *testing.T) {
	svc := chatservice.NewService(config.ChatConfig{AnonPrefix: "anon-", MsgPerMinute: 20, ResetInterval: time.Hour})
	handler := New(svc, "")
	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	body := doRequest(t, r, "/chat/kick?adminKey=&name=alice")
	if body["success"].(bool) {
		t.Fatal("an empty configured key must refuse moderation")
	}
}
