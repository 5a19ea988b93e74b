package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("临时文件未清理: %d 个文件", len(entries))
	}
}

func TestJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.json")
	type meta struct {
		Stale bool `json:"stale"`
	}
	if err := WriteJSON(path, meta{Stale: true}); err != nil {
		t.Fatal(err)
	}
	var got meta
	if err := ReadJSON(path, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Stale {
		t.Error("Stale 未写入")
	}
	if err := ReadJSON(filepath.Join(t.TempDir(), "missing.json"), &got); !os.IsNotExist(err) {
		t.Errorf("缺失文件应返回 NotExist, got %v", err)
	}
}
