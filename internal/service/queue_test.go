package service

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/content"
	"Fpublisher/internal/ledger"
	"Fpublisher/internal/types"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanVideos(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp4", "a.MOV", "c.webm", "d.mkv", "notes.txt", ".hidden.mp4", "e.avi"} {
		writeFile(t, filepath.Join(dir, name), "x")
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ScanVideos(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.MOV", "b.mp4", "c.webm", "d.mkv"}
	if len(got) != len(want) {
		t.Fatalf("ScanVideos() = %v", got)
	}
	for i, name := range want {
		if filepath.Base(got[i]) != name {
			t.Errorf("got[%d] = %s, want %s", i, got[i], name)
		}
	}

	if _, err := ScanVideos(filepath.Join(dir, "missing")); err == nil {
		t.Error("目录不存在应报错")
	}
}

func newBuilder(t *testing.T, mutate func(*config.AppConfig)) *QueueBuilder {
	t.Helper()
	cfg := config.Default(t.TempDir())
	if mutate != nil {
		mutate(cfg)
	}
	sel, err := content.NewSelector(cfg.Content, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	return NewQueueBuilder(cfg, sel, rand.New(rand.NewSource(1)))
}

func TestQueueBuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "01.mp4"), "one")
	writeFile(t, filepath.Join(dir, "01.txt"), "第一条\n#猫 #治愈\n")
	writeFile(t, filepath.Join(dir, "01.png"), "png")
	writeFile(t, filepath.Join(dir, "02.mp4"), "two")
	writeFile(t, filepath.Join(dir, "03.mp4"), "three")
	writeFile(t, filepath.Join(dir, "03.txt"), "第三条\n")

	led, err := ledger.OpenText(filepath.Join(t.TempDir(), "done.txt"))
	if err != nil {
		t.Fatal(err)
	}
	key03, _ := ledger.IdentityKey(ledger.IdentityPath, filepath.Join(dir, "03.mp4"))
	if err := led.Record(key03, time.Now()); err != nil {
		t.Fatal(err)
	}

	b := newBuilder(t, nil)
	q, err := b.Build(QueueRequest{Platform: "douyin", Account: "main", Dir: dir, Category: "生活"}, led)
	if err != nil {
		t.Fatal(err)
	}

	if len(q.Jobs) != 1 {
		t.Fatalf("Jobs = %+v", q.Jobs)
	}
	job := q.Jobs[0]
	if job.Title != "第一条" || len(job.Tags) != 2 || job.Tags[0] != "猫" {
		t.Errorf("job = %+v", job)
	}
	if filepath.Base(job.Thumbnail) != "01.png" || job.Category != "生活" || job.Platform != "douyin" || job.Account != "main" {
		t.Errorf("job = %+v", job)
	}
	if job.PublishAt != nil {
		t.Error("建队时不分配定时")
	}

	if len(q.Rejected) != 1 || !errors.Is(q.Rejected[0].Err, types.ErrContentMissing) {
		t.Fatalf("Rejected = %+v", q.Rejected)
	}
	if q.Rejected[0].Status != types.JobStatusFailed || filepath.Base(q.Rejected[0].Job.VideoPath) != "02.mp4" {
		t.Errorf("Rejected[0] = %+v", q.Rejected[0])
	}
	if len(q.Skipped) != 1 || q.Skipped[0] != key03 {
		t.Errorf("Skipped = %v", q.Skipped)
	}
}

func TestQueueBuildLimitAndPool(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.mp4", "bp.mp4", "cp.mp4"} {
		writeFile(t, filepath.Join(dir, name), name)
	}
	writeFile(t, filepath.Join(dir, "a.txt"), "A\n")

	b := newBuilder(t, func(c *config.AppConfig) {
		c.Runner.MaxPerRun = 2
		c.Storage.IdentityKey = ledger.IdentityName
		c.Content.PoolSuffix = "p"
		c.Content.TitlePool = []string{"池中标题"}
		c.Content.Tags = []string{"日常"}
	})
	q, err := b.Build(QueueRequest{Platform: "bilibili", Account: "main", Dir: dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(q.Jobs) != 2 {
		t.Fatalf("Jobs = %+v", q.Jobs)
	}
	if q.Jobs[0].Key != "a.mp4" || q.Jobs[1].Key != "bp.mp4" {
		t.Errorf("keys = %s, %s", q.Jobs[0].Key, q.Jobs[1].Key)
	}
	if q.Jobs[1].Title != "池中标题" || len(q.Jobs[1].Tags) != 1 {
		t.Errorf("pool job = %+v", q.Jobs[1])
	}
}

func TestQueueBuildShuffleKeepsAll(t *testing.T) {
	dir := t.TempDir()
	names := []string{"1.mp4", "2.mp4", "3.mp4", "4.mp4", "5.mp4"}
	for _, name := range names {
		writeFile(t, filepath.Join(dir, name), name)
	}
	b := newBuilder(t, func(c *config.AppConfig) {
		c.Runner.Shuffle = true
		c.Content.Policy = "pool"
		c.Content.TitlePool = []string{"标题"}
	})
	q, err := b.Build(QueueRequest{Platform: "douyin", Account: "main", Dir: dir}, nil)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, j := range q.Jobs {
		seen[filepath.Base(j.VideoPath)] = true
	}
	if len(seen) != len(names) {
		t.Errorf("shuffle 后应保留全部视频: %v", seen)
	}
}

func TestQueueBuildMissingDir(t *testing.T) {
	b := newBuilder(t, nil)
	_, err := b.Build(QueueRequest{Platform: "douyin", Account: "main", Dir: "/nonexistent/videos"}, nil)
	if !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}
