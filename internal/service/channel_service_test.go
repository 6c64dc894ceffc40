package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mediarise/referralbot/internal/database"
	"github.com/mediarise/referralbot/internal/repository"
)

func newTestDB(t *testing.T) *sql.DB {
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
	return db
}

func TestChannelService(t *testing.T) {
	svc := NewChannelService(repository.NewChannelRepository(newTestDB(t)))
	ctx := context.Background()

	t.Run("add", func(t *testing.T) {
		ch, err := svc.Add(ctx, "@news", "News Channel", "")
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if ch.ChannelID != "@news" || ch.Title != "News Channel" {
			t.Errorf("unexpected channel: %+v", ch)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		if _, err := svc.Add(ctx, "@news", "Other", ""); !errors.Is(err, ErrChannelExists) {
			t.Fatalf("expected ErrChannelExists, got %v", err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		if err := svc.Remove(ctx, "@news"); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if err := svc.Remove(ctx, "@news"); !errors.Is(err, ErrChannelNotFound) {
			t.Fatalf("expected ErrChannelNotFound, got %v", err)
		}
	})

	t.Run("blank id rejected", func(t *testing.T) {
		if _, err := svc.Add(ctx, "   ", "Blank", ""); err == nil {
			t.Fatal("expected error for blank channel id")
		}
	})
}

func TestSettingsService(t *testing.T) {
	svc := NewSettingsService(repository.NewSettingsRepository(newTestDB(t)))
	ctx := context.Background()

	t.Run("seeded start message", func(t *testing.T) {
		msg, err := svc.StartMessage(ctx)
		if err != nil {
			t.Fatalf("StartMessage: %v", err)
		}
		if msg == "" || msg == fallbackStartMessage {
			t.Errorf("expected the migration-seeded message, got %q", msg)
		}
	})

	t.Run("set start message", func(t *testing.T) {
		if err := svc.SetStartMessage(ctx, "Hello there"); err != nil {
			t.Fatalf("SetStartMessage: %v", err)
		}
		msg, err := svc.StartMessage(ctx)
		if err != nil {
			t.Fatalf("StartMessage: %v", err)
		}
		if msg != "Hello there" {
			t.Errorf("got %q", msg)
		}
	})

	t.Run("log channel unset", func(t *testing.T) {
		id, err := svc.LogChannel(ctx)
		if err != nil {
			t.Fatalf("LogChannel: %v", err)
		}
		if id != 0 {
			t.Errorf("expected 0 for unset log channel, got %d", id)
		}
	})

	t.Run("log channel roundtrip", func(t *testing.T) {
		if err := svc.SetLogChannel(ctx, -1009999); err != nil {
			t.Fatalf("SetLogChannel: %v", err)
		}
		id, err := svc.LogChannel(ctx)
		if err != nil {
			t.Fatalf("LogChannel: %v", err)
		}
		if id != -1009999 {
			t.Errorf("got %d", id)
		}
	})
}
