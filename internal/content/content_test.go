package content

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"Fpublisher/internal/config"
	"Fpublisher/internal/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestShortTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "不足补空格", title: "abc", want: "abc   "},
		{name: "超长截断", title: strings.Repeat("x", 30), want: strings.Repeat("x", 16)},
		{name: "逗号变空格", title: "hello,world", want: "hello world"},
		{name: "删除其他标点", title: "今天!天气#真好。", want: "今天天气真好"},
		{name: "保留允许的符号", title: "《猫咪》:100%+?", want: "《猫咪》:100%+?"},
		{name: "按字符计数", title: "一二三四五六七八九十一二三四五六七八", want: "一二三四五六七八九十一二三四五六"},
		{name: "空标题", title: "", want: "      "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShortTitle(tt.title, 6, 16)
			if got != tt.want {
				t.Errorf("ShortTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
			if n := utf8.RuneCountInString(got); n < 6 || n > 16 {
				t.Errorf("长度 %d 超出范围", n)
			}
		})
	}
}

func TestParseSidecar(t *testing.T) {
	title, tags := ParseSidecar("\n夜晚的小猫\r\n#猫咪 #治愈  #萌宠\n")
	if title != "夜晚的小猫" {
		t.Errorf("title = %q", title)
	}
	if want := []string{"猫咪", "治愈", "萌宠"}; !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}

	title, tags = ParseSidecar("只有标题")
	if title != "只有标题" || tags != nil {
		t.Errorf("got %q %v", title, tags)
	}
}

func TestSelectSidecar(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "cat.mp4")
	writeFile(t, video, "v")
	writeFile(t, filepath.Join(dir, "cat.txt"), "小猫睡觉\n#猫 #睡觉")
	writeFile(t, filepath.Join(dir, "cat.jpg"), "img")

	s, err := NewSelector(config.ContentConfig{Policy: "sidecar"}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	sel, err := s.Select(types.JobHint{VideoPath: video})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if sel.Title != "小猫睡觉" || !reflect.DeepEqual(sel.Tags, []string{"猫", "睡觉"}) {
		t.Errorf("sel = %+v", sel)
	}
	if sel.Cover != filepath.Join(dir, "cat.jpg") {
		t.Errorf("Cover = %q", sel.Cover)
	}
}

func TestSelectContentMissing(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "no-text.mp4")
	writeFile(t, video, "v")

	s, _ := NewSelector(config.ContentConfig{}, nil)
	if _, err := s.Select(types.JobHint{VideoPath: video}); !errors.Is(err, types.ErrContentMissing) {
		t.Errorf("缺少标题文件 error = %v", err)
	}

	writeFile(t, filepath.Join(dir, "no-text.txt"), "  \n\n")
	if _, err := s.Select(types.JobHint{VideoPath: video}); !errors.Is(err, types.ErrContentMissing) {
		t.Errorf("空标题文件 error = %v", err)
	}

	if _, err := s.Select(types.JobHint{VideoPath: video, UsePool: true}); !errors.Is(err, types.ErrContentMissing) {
		t.Errorf("空标题池 error = %v", err)
	}
}

func TestSelectPool(t *testing.T) {
	dir := t.TempDir()
	poolFile := filepath.Join(dir, "titles.txt")
	writeFile(t, poolFile, "# One title per line\n安静的夜晚\n")
	coverDir := filepath.Join(dir, "covers")
	_ = os.Mkdir(coverDir, 0o755)
	writeFile(t, filepath.Join(coverDir, "a.png"), "img")
	writeFile(t, filepath.Join(coverDir, "note.md"), "x")

	cfg := config.ContentConfig{
		TitlePoolFile: poolFile,
		Tags:          []string{"入眠曲", "萌宠"},
		PoolSuffix:    "p",
		CoverDir:      coverDir,
		Decorate:      true,
		Emojis:        []string{"🐱"},
	}
	s, err := NewSelector(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}

	video := filepath.Join(dir, "sleepyP.mp4")
	if s.PolicyFor(types.JobHint{VideoPath: video}) != PolicyPool {
		t.Fatal("文件名以 p 结尾应使用标题池")
	}
	if s.PolicyFor(types.JobHint{VideoPath: filepath.Join(dir, "sleepy.mp4")}) != PolicySidecar {
		t.Fatal("普通文件应使用同名文本")
	}

	sel, err := s.Select(types.JobHint{VideoPath: video})
	if err != nil {
		t.Fatal(err)
	}
	if sel.Title != "安静的夜晚🐱" {
		t.Errorf("Title = %q", sel.Title)
	}
	if !reflect.DeepEqual(sel.Tags, []string{"入眠曲", "萌宠"}) {
		t.Errorf("Tags = %v", sel.Tags)
	}
	if sel.Cover != filepath.Join(coverDir, "a.png") {
		t.Errorf("Cover = %q", sel.Cover)
	}

	sel.Tags[0] = "changed"
	again, _ := s.Select(types.JobHint{VideoPath: video})
	if again.Tags[0] != "入眠曲" {
		t.Error("返回的话题不应共享底层数组")
	}
}

func TestNewSelectorMissingPoolFile(t *testing.T) {
	_, err := NewSelector(config.ContentConfig{TitlePoolFile: filepath.Join(t.TempDir(), "none.txt")}, nil)
	if !errors.Is(err, types.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestSelectFrameCover(t *testing.T) {
	dir := t.TempDir()
	frames := filepath.Join(dir, "frames")
	video := filepath.Join(dir, "dog.mp4")
	writeFile(t, video, "v")
	writeFile(t, filepath.Join(dir, "dog.txt"), "小狗")
	if err := os.MkdirAll(frames, 0o755); err != nil {
		t.Fatal(err)
	}
	frame := filepath.Join(frames, "dog_cover_2s.jpg")
	writeFile(t, frame, "jpg")

	s, _ := NewSelector(config.ContentConfig{CoverFrameAt: 2, FrameDir: frames}, nil)
	sel, err := s.Select(types.JobHint{VideoPath: video})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if sel.Cover != frame {
		t.Errorf("Cover = %q, want %q", sel.Cover, frame)
	}

	s, _ = NewSelector(config.ContentConfig{}, nil)
	sel, _ = s.Select(types.JobHint{VideoPath: video})
	if sel.Cover != "" {
		t.Errorf("未开启抽帧时 Cover = %q", sel.Cover)
	}
}
