package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/shyndman/whatsapp-mcp/internal/api"
	"github.com/shyndman/whatsapp-mcp/internal/bridge"
	"github.com/shyndman/whatsapp-mcp/internal/config"
	"github.com/shyndman/whatsapp-mcp/internal/lock"
	"github.com/shyndman/whatsapp-mcp/internal/names"
	"github.com/shyndman/whatsapp-mcp/internal/partition"
	"github.com/shyndman/whatsapp-mcp/internal/query"
	"github.com/shyndman/whatsapp-mcp/internal/store"
)

// TestDaemonLifecycle assembles the full component graph by hand, the way
// the fx module does, and exercises it over a real listener.
func TestDaemonLifecycle(t *testing.T) {
	dir := t.TempDir()

	lk, err := lock.Acquire(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = lk.Release() }()

	db, err := store.Open(filepath.Join(dir, "messages.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}

	// Empty placeholder, matching a session where the bridge has not run.
	idPath := filepath.Join(dir, "whatsapp.db")
	if err := os.WriteFile(idPath, nil, 0600); err != nil {
		t.Fatal(err)
	}
	identity, err := store.OpenIdentity(idPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = identity.Close() }()

	logger := zap.NewNop()
	resolver := names.NewResolver(identity, db, logger)
	handlers := api.NewServer(
		query.NewService(db, identity, resolver, logger),
		partition.NewPlanner(db, logger),
		bridge.NewClient("http://127.0.0.1:1", time.Second, logger),
		logger,
	)

	srv, err := NewServer(Params{SessionName: "test", ListenAddr: "127.0.0.1:0"}, config.Default(), handlers, logger)
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = srv.Start() }()
	defer srv.Stop(context.Background())

	base := "http://" + srv.Addr()

	res, err := http.Get(base + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", res.StatusCode)
	}

	// An unauthenticated, empty archive still serves queries.
	res2, err := http.Get(base + "/api/chats")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = res2.Body.Close() }()
	if res2.StatusCode != http.StatusOK {
		t.Fatalf("chats status = %d", res2.StatusCode)
	}
	var got map[string][]store.Chat
	if err := json.NewDecoder(res2.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if len(got["chats"]) != 0 {
		t.Errorf("expected no chats, got %d", len(got["chats"]))
	}
}

// TestNewServerRejectsBadAddr verifies a bad listen address fails at
// construction, not from the serve goroutine.
func TestNewServerRejectsBadAddr(t *testing.T) {
	logger := zap.NewNop()
	_, err := NewServer(Params{SessionName: "test", ListenAddr: "127.0.0.1:-1"}, config.Default(), nil, logger)
	if err == nil {
		t.Fatal("expected listen error")
	}
}
