package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFrameTimestamp(t *testing.T) {
	tests := map[int]string{
		0:    "00:00:00",
		1:    "00:00:01",
		75:   "00:01:15",
		3725: "01:02:05",
		-3:   "00:00:00",
	}
	for in, want := range tests {
		if got := frameTimestamp(in); got != want {
			t.Errorf("frameTimestamp(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractFrameAt(t *testing.T) {
	dir := t.TempDir()

	t.Run("视频不存在", func(t *testing.T) {
		if _, err := ExtractFrameAt(filepath.Join(dir, "missing.mp4"), dir, 1); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("复用已生成的封面", func(t *testing.T) {
		video := filepath.Join(dir, "cat.mp4")
		if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
			t.Fatal(err)
		}
		cached := FramePath(filepath.Join(dir, "covers"), video, 1)
		if cached != filepath.Join(dir, "covers", "cat_cover_1s.jpg") {
			t.Fatalf("FramePath() = %s", cached)
		}
		if err := os.MkdirAll(filepath.Dir(cached), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(cached, []byte("jpg"), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := ExtractFrameAt(video, filepath.Join(dir, "covers"), 1)
		if err != nil {
			t.Fatalf("ExtractFrameAt() error = %v", err)
		}
		if got != cached {
			t.Errorf("ExtractFrameAt() = %s, want %s", got, cached)
		}
	})
}
