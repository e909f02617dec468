package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shyndman/whatsapp-mcp/internal/bridge"
	"github.com/shyndman/whatsapp-mcp/internal/names"
	"github.com/shyndman/whatsapp-mcp/internal/partition"
	"github.com/shyndman/whatsapp-mcp/internal/query"
	"github.com/shyndman/whatsapp-mcp/internal/store"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }

// newTestServer stands up the full handler stack over real temp databases
// and a stubbed bridge.
func newTestServer(t *testing.T, bridgeHandler http.HandlerFunc) (*httptest.Server, *store.DB) {
	t.Helper()
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "messages.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}

	idPath := filepath.Join(dir, "whatsapp.db")
	rw, err := sql.Open("sqlite3", idPath)
	if err != nil {
		t.Fatal(err)
	}
	stmts := []string{
		`CREATE TABLE whatsmeow_device (jid TEXT PRIMARY KEY)`,
		`CREATE TABLE whatsmeow_contacts (
			their_jid TEXT PRIMARY KEY,
			first_name TEXT, full_name TEXT, push_name TEXT,
			business_name TEXT, redacted_phone TEXT)`,
		`INSERT INTO whatsmeow_device (jid) VALUES ('me@s.whatsapp.net')`,
		`INSERT INTO whatsmeow_contacts VALUES
			('111@s.whatsapp.net', 'Ada', 'Ada Lovelace', 'adal', NULL, '+1 555 0111')`,
	}
	for _, stmt := range stmts {
		if _, err := rw.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	_ = rw.Close()
	identity, err := store.OpenIdentity(idPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = identity.Close() })

	if bridgeHandler == nil {
		bridgeHandler = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no bridge", http.StatusBadGateway)
		}
	}
	bridgeSrv := httptest.NewServer(bridgeHandler)
	t.Cleanup(bridgeSrv.Close)

	logger := zap.NewNop()
	resolver := names.NewResolver(identity, db, logger)
	srv := NewServer(
		query.NewService(db, identity, resolver, logger),
		partition.NewPlanner(db, logger),
		bridge.NewClient(bridgeSrv.URL, 5*time.Second, logger),
		logger,
	)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, db
}

func seedChat(t *testing.T, db *store.DB, jid, name string, last time.Time) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO chats (jid, name, last_message_time) VALUES (?, ?, ?)`,
		jid, name, last.UTC()); err != nil {
		t.Fatal(err)
	}
}

func seedMessage(t *testing.T, db *store.DB, id, chatJID, sender, content string, ts time.Time) {
	t.Helper()
	if _, err := db.Exec(`
		INSERT INTO messages (id, chat_jid, sender, content, timestamp, is_from_me, media_type)
		VALUES (?, ?, ?, ?, ?, 0, NULL)`,
		id, chatJID, sender, content, ts.UTC()); err != nil {
		t.Fatal(err)
	}
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, res.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
}

func postJSON(t *testing.T, url, body string, wantStatus int, out any) {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != wantStatus {
		t.Fatalf("POST %s status = %d, want %d", url, res.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	var got map[string]any
	getJSON(t, ts.URL+"/health", http.StatusOK, &got)
	if got["ok"] != true {
		t.Errorf("health = %v", got)
	}
}

func TestListMessagesEndpoint(t *testing.T) {
	ts, db := newTestServer(t, nil)
	seedChat(t, db, "111@s.whatsapp.net", "", at(2))
	seedMessage(t, db, "m1", "111@s.whatsapp.net", "111@s.whatsapp.net", "hello", at(1))
	seedMessage(t, db, "m2", "111@s.whatsapp.net", "111@s.whatsapp.net", "world", at(2))

	var got query.MessageList
	getJSON(t, ts.URL+"/api/messages?chat_jid=111@s.whatsapp.net", http.StatusOK, &got)
	if len(got.Messages) != 2 {
		t.Fatalf("got %d messages", len(got.Messages))
	}
	if got.Messages[0].ID != "m2" || got.Messages[0].SenderName != "Ada Lovelace" {
		t.Errorf("first message = %+v", got.Messages[0])
	}
}

func TestListMessagesBadParams(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	getJSON(t, ts.URL+"/api/messages?after=yesterday", http.StatusBadRequest, nil)
	getJSON(t, ts.URL+"/api/messages?limit=many", http.StatusBadRequest, nil)
	getJSON(t, ts.URL+"/api/messages?cursor=garbage", http.StatusBadRequest, nil)
}

func TestMessageContextEndpoint(t *testing.T) {
	ts, db := newTestServer(t, nil)
	seedChat(t, db, "c@g.us", "Crew", at(3))
	seedMessage(t, db, "m1", "c@g.us", "x@s.whatsapp.net", "a", at(1))
	seedMessage(t, db, "m2", "c@g.us", "x@s.whatsapp.net", "b", at(2))
	seedMessage(t, db, "m3", "c@g.us", "x@s.whatsapp.net", "c", at(3))

	var got store.MessageContext
	getJSON(t, ts.URL+"/api/messages/m2/context?before=1&after=1", http.StatusOK, &got)
	if got.Message.ID != "m2" || len(got.Before) != 1 || len(got.After) != 1 {
		t.Errorf("context = %+v", got)
	}

	getJSON(t, ts.URL+"/api/messages/nope/context", http.StatusNotFound, nil)
}

func TestPartitionsEndpoint(t *testing.T) {
	ts, db := newTestServer(t, nil)
	seedChat(t, db, "c@g.us", "Crew", at(5))
	for i, id := range []string{"m1", "m2", "m3", "m4", "m5"} {
		seedMessage(t, db, id, "c@g.us", "x@s.whatsapp.net", "msg", at(i+1))
	}

	var plan partition.Plan
	postJSON(t, ts.URL+"/api/partitions", `{"partition_size": 2}`, http.StatusOK, &plan)
	if plan.TotalCount != 5 || len(plan.Partitions) != 3 {
		t.Errorf("plan = %+v", plan)
	}

	postJSON(t, ts.URL+"/api/partitions", `{"partition_size": 0}`, http.StatusBadRequest, nil)
	postJSON(t, ts.URL+"/api/partitions", `not json`, http.StatusBadRequest, nil)
}

func TestChatEndpoints(t *testing.T) {
	ts, db := newTestServer(t, nil)
	seedChat(t, db, "111@s.whatsapp.net", "", at(1))
	seedChat(t, db, "crew@g.us", "Crew", at(2))
	seedMessage(t, db, "m1", "111@s.whatsapp.net", "111@s.whatsapp.net", "hi", at(1))

	var listed map[string][]store.Chat
	getJSON(t, ts.URL+"/api/chats", http.StatusOK, &listed)
	if len(listed["chats"]) != 2 {
		t.Fatalf("got %d chats", len(listed["chats"]))
	}

	var chat store.Chat
	getJSON(t, ts.URL+"/api/chats/111@s.whatsapp.net", http.StatusOK, &chat)
	if chat.Name != "Ada Lovelace" {
		t.Errorf("chat name = %q", chat.Name)
	}

	getJSON(t, ts.URL+"/api/chats/unknown@s.whatsapp.net", http.StatusNotFound, nil)

	var direct store.Chat
	getJSON(t, ts.URL+"/api/chats/direct/111", http.StatusOK, &direct)
	if direct.JID != "111@s.whatsapp.net" {
		t.Errorf("direct chat = %+v", direct)
	}
}

func TestContactEndpoints(t *testing.T) {
	ts, db := newTestServer(t, nil)
	seedChat(t, db, "111@s.whatsapp.net", "", at(1))
	seedMessage(t, db, "m1", "111@s.whatsapp.net", "111@s.whatsapp.net", "hi", at(1))

	var found map[string][]store.Contact
	getJSON(t, ts.URL+"/api/contacts?q=ada", http.StatusOK, &found)
	if len(found["contacts"]) != 1 || found["contacts"][0].Name != "Ada Lovelace" {
		t.Errorf("contacts = %+v", found)
	}

	getJSON(t, ts.URL+"/api/contacts", http.StatusBadRequest, nil)

	var last store.Message
	getJSON(t, ts.URL+"/api/contacts/111@s.whatsapp.net/last-interaction", http.StatusOK, &last)
	if last.ID != "m1" {
		t.Errorf("last interaction = %+v", last)
	}
	getJSON(t, ts.URL+"/api/contacts/none@s.whatsapp.net/last-interaction", http.StatusNotFound, nil)
}

func TestSendEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "sent"})
	})

	var got map[string]any
	postJSON(t, ts.URL+"/api/send", `{"recipient": "111@s.whatsapp.net", "message": "hi"}`, http.StatusOK, &got)
	if got["success"] != true || got["message"] != "sent" {
		t.Errorf("send = %v", got)
	}

	// Validation failures are reported in-band, the way the bridge does.
	postJSON(t, ts.URL+"/api/send", `{"message": "hi"}`, http.StatusOK, &got)
	if got["success"] != false {
		t.Errorf("send without recipient = %v", got)
	}
}

func TestDownloadEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "ok", "path": "/tmp/m1.jpg"})
	})

	var got map[string]any
	postJSON(t, ts.URL+"/api/download", `{"message_id": "m1", "chat_jid": "c@g.us"}`, http.StatusOK, &got)
	if got["path"] != "/tmp/m1.jpg" {
		t.Errorf("download = %v", got)
	}

	postJSON(t, ts.URL+"/api/download", `{"message_id": "m1"}`, http.StatusBadRequest, nil)
}

func TestDownloadBridgeFailure(t *testing.T) {
	ts, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "no media"})
	})
	postJSON(t, ts.URL+"/api/download", `{"message_id": "m1", "chat_jid": "c@g.us"}`, http.StatusBadGateway, nil)
}
