package localstorage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-sitecontent/internal/localstorage"
)

func TestDirArea_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	area, err := localstorage.NewDirArea(dir)
	if err != nil {
		t.Fatalf("new dir area: %v", err)
	}
	key := "site_content_blogArticle_pt_local_1_abc"
	if err := area.SetItem(ctx, key, `{"id":"local_1_abc"}`); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = area.Close()

	reopened, err := localstorage.NewDirArea(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.GetItem(ctx, key)
	if err != nil || !ok || value != `{"id":"local_1_abc"}` {
		t.Fatalf("expected persisted value, got %q ok=%v err=%v", value, ok, err)
	}
	keys, _ := reopened.Keys(ctx)
	if len(keys) != 1 || keys[0] != key {
		t.Fatalf("expected [%s], got %v", key, keys)
	}

	removed, err := reopened.RemoveItem(ctx, key)
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v err=%v", removed, err)
	}
	if removed, _ := reopened.RemoveItem(ctx, key); removed {
		t.Fatalf("expected idempotent removal")
	}
}

func TestDirArea_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}
	area, err := localstorage.NewDirArea(dir)
	if err != nil {
		t.Fatalf("new dir area: %v", err)
	}
	defer area.Close()

	keys, err := area.Keys(context.Background())
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}
}

func TestDirArea_ReportsChangesFromAnotherWriter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir := t.TempDir()

	watching, err := localstorage.NewDirArea(dir)
	if err != nil {
		t.Fatalf("new watching area: %v", err)
	}
	defer watching.Close()
	writer, err := localstorage.NewDirArea(dir)
	if err != nil {
		t.Fatalf("new writer area: %v", err)
	}
	defer writer.Close()

	events, err := watching.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := writer.SetItem(localstorage.WithOrigin(ctx, "tab-2"), "shared", "v1"); err != nil {
		t.Fatalf("external write: %v", err)
	}

	evt := receive(t, events)
	if evt.Key != "shared" || evt.NewValue == nil || *evt.NewValue != "v1" {
		t.Fatalf("unexpected event %+v", evt)
	}
	if evt.Origin != "" {
		t.Fatalf("external changes carry no origin, got %q", evt.Origin)
	}
}

func TestDirArea_SuppressesEchoOfOwnWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	area, err := localstorage.NewDirArea(t.TempDir())
	if err != nil {
		t.Fatalf("new dir area: %v", err)
	}
	defer area.Close()

	events, err := area.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := area.SetItem(localstorage.WithOrigin(ctx, "tab-1"), "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}

	evt := receive(t, events)
	if evt.Origin != "tab-1" {
		t.Fatalf("expected own event with origin, got %+v", evt)
	}

	select {
	case extra := <-events:
		t.Fatalf("unexpected echo event %+v", extra)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestDirArea_ClosedAreaRejectsWrites(t *testing.T) {
	area, err := localstorage.NewDirArea(t.TempDir())
	if err != nil {
		t.Fatalf("new dir area: %v", err)
	}
	_ = area.Close()
	if err := area.SetItem(context.Background(), "k", "v"); err != localstorage.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
