package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"Fpublisher/internal/config"
)

func openTestDB(t *testing.T) *History {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	return NewHistory(db)
}

func TestOpenUnsupported(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Type: "mysql"}); err == nil {
		t.Error("不支持的数据库类型应报错")
	}
}

func TestHistory(t *testing.T) {
	h := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	records := []*JobRecord{
		{RunID: "run-1", Platform: "douyin", Account: "main", Key: "/v/a.mp4", Status: "published", StartedAt: now},
		{RunID: "run-1", Platform: "kuaishou", Account: "main", Key: "/v/a.mp4", Status: "failed", Phase: "upload_failed", StartedAt: now.Add(time.Second)},
		{RunID: "run-2", Platform: "douyin", Account: "main", Key: "/v/b.mp4", Status: "published", StartedAt: now.Add(2 * time.Second)},
	}
	for _, r := range records {
		if err := h.Add(ctx, r); err != nil {
			t.Fatal(err)
		}
		if r.ID == "" {
			t.Fatal("未生成 ID")
		}
	}

	run1, err := h.ByRun(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(run1) != 2 || run1[0].Platform != "douyin" {
		t.Errorf("ByRun(run-1) = %+v", run1)
	}

	douyin, err := h.Recent(ctx, "douyin", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(douyin) != 2 {
		t.Errorf("Recent(douyin) len = %d, want 2", len(douyin))
	}
}
