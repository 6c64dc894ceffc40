package repository

import (
	"context"
	"testing"

	"github.com/mediarise/referralbot/internal/models"
)

func TestChannelLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewChannelRepository(db)
	ctx := context.Background()

	ch := &models.Channel{ChannelID: "@updates", Title: "Updates"}
	if err := repo.Create(ctx, ch); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ch.ID == 0 {
		t.Error("expected assigned id")
	}

	got, err := repo.GetByChannelID(ctx, "@updates")
	if err != nil {
		t.Fatalf("GetByChannelID: %v", err)
	}
	if got == nil || got.Title != "Updates" {
		t.Fatalf("unexpected channel: %+v", got)
	}
	if got.JoinLink != "" {
		t.Errorf("expected empty join link, got %q", got.JoinLink)
	}

	removed, err := repo.Delete(ctx, "@updates")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !removed {
		t.Error("expected removal to report true")
	}

	removed, err = repo.Delete(ctx, "@updates")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed {
		t.Error("second delete should report false")
	}
}

func TestChannelJoinLinkStored(t *testing.T) {
	db := newTestDB(t)
	repo := NewChannelRepository(db)
	ctx := context.Background()

	ch := &models.Channel{ChannelID: "-1001234567890", Title: "Private", JoinLink: "https://t.me/+abcdef"}
	if err := repo.Create(ctx, ch); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByChannelID(ctx, "-1001234567890")
	if err != nil {
		t.Fatalf("GetByChannelID: %v", err)
	}
	if got.JoinLink != "https://t.me/+abcdef" {
		t.Errorf("join link = %q", got.JoinLink)
	}
}

func TestChannelList(t *testing.T) {
	db := newTestDB(t)
	repo := NewChannelRepository(db)
	ctx := context.Background()

	channels, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(channels) != 0 {
		t.Fatalf("expected empty list, got %d", len(channels))
	}

	for _, id := range []string{"@one", "@two"} {
		if err := repo.Create(ctx, &models.Channel{ChannelID: id, Title: id}); err != nil {
			t.Fatalf("Create %s: %v", id, err)
		}
	}

	channels, err = repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(channels))
	}
	if channels[0].ChannelID != "@one" {
		t.Errorf("expected insertion order, got %q first", channels[0].ChannelID)
	}
}
