package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mediarise/referralbot/internal/database"
	"github.com/mediarise/referralbot/internal/repository"
	"github.com/mediarise/referralbot/internal/service"
)

type fakeBroadcaster struct {
	sent   []int64
	failOn map[int64]bool
}

func (f *fakeBroadcaster) SendMessage(chatID int64, text string) error {
	if f.failOn[chatID] {
		return errors.New("blocked")
	}
	f.sent = append(f.sent, chatID)
	return nil
}

type fixture struct {
	server *Server
	ledger *service.LedgerService
	sender *fakeBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := database.Migrate(context.Background(), db, "sqlite3"); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ledger := service.NewLedgerService(repository.NewUserRepository(db), repository.NewRedemptionRepository(db), 5, 300)
	channels := service.NewChannelService(repository.NewChannelRepository(db))
	settings := service.NewSettingsService(repository.NewSettingsRepository(db))
	sender := &fakeBroadcaster{failOn: map[int64]bool{}}

	log := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	server := NewServer(":0", "admin", "secret", log, ledger, channels, settings, sender)
	return &fixture{server: server, ledger: ledger, sender: sender}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSpace(string(p)))
	return len(p), nil
}

func (f *fixture) request(t *testing.T, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if auth {
		req.SetBasicAuth("admin", "secret")
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/stats", "", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, _, err := f.ledger.Register(ctx, 1, "alice", "Alice", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := f.ledger.Register(ctx, 2, "bob", "Bob", alice.ReferralCode); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := f.request(t, http.MethodGet, "/stats", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["total_users"] != 2 || got["total_referrals"] != 1 || got["total_redemptions"] != 0 {
		t.Errorf("unexpected stats: %v", got)
	}
}

func TestBroadcastEndpoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		if _, _, err := f.ledger.Register(ctx, i, "", fmt.Sprintf("U%d", i), ""); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	f.sender.failOn[2] = true

	rec := f.request(t, http.MethodPost, "/broadcast", `{"message":"hello"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["sent"] != 2 || got["failed"] != 1 || got["total"] != 3 {
		t.Errorf("unexpected counts: %v", got)
	}
	if len(f.sender.sent) != 2 {
		t.Errorf("expected 2 deliveries, got %v", f.sender.sent)
	}
}

func TestBroadcastValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/broadcast", `{"message":"  "}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank message, got %d", rec.Code)
	}
	rec = f.request(t, http.MethodPost, "/broadcast", `{`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
}

func TestChannelEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/channels", `{"channel_id":"@news","title":"News"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = f.request(t, http.MethodPost, "/channels", `{"channel_id":"@news","title":"Again"}`, true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", rec.Code)
	}

	rec = f.request(t, http.MethodGet, "/channels", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "@news") {
		t.Errorf("list missing channel: %s", rec.Body.String())
	}

	rec = f.request(t, http.MethodDelete, "/channels/@news", "", true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = f.request(t, http.MethodDelete, "/channels/@news", "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after removal, got %d", rec.Code)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPut, "/settings/start-message", `{"message":"Hi folks"}`, true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = f.request(t, http.MethodGet, "/settings/start-message", "", true)
	if !strings.Contains(rec.Body.String(), "Hi folks") {
		t.Errorf("start message not persisted: %s", rec.Body.String())
	}

	rec = f.request(t, http.MethodPut, "/settings/log-channel", `{"channel_id":-100123}`, true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = f.request(t, http.MethodGet, "/settings/log-channel", "", true)
	if !strings.Contains(rec.Body.String(), "-100123") {
		t.Errorf("log channel not persisted: %s", rec.Body.String())
	}
}

func TestUserAuditEndpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, _, err := f.ledger.Register(ctx, 1, "alice", "Alice", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := f.ledger.Register(ctx, 2, "bob", "Bob", alice.ReferralCode); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := f.request(t, http.MethodGet, "/users/1/referrals", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var refs []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &refs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(refs) != 1 {
		t.Errorf("expected 1 referral, got %d", len(refs))
	}

	rec = f.request(t, http.MethodGet, "/users/1/redemptions", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = f.request(t, http.MethodGet, "/users/abc/referrals", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestResolveReferralCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice, _, err := f.ledger.Register(ctx, 42, "alice", "Alice", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := f.request(t, http.MethodGet, "/referral-codes/"+alice.ReferralCode, "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "42") {
		t.Errorf("expected user id in body: %s", rec.Body.String())
	}

	rec = f.request(t, http.MethodGet, "/referral-codes/deadbeef", "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown code, got %d", rec.Code)
	}
}
