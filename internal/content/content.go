// Package content 为视频挑选标题、话题与封面
package content

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"Fpublisher/internal/config"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"
)

// Policy 标题来源
type Policy string

const (
	PolicySidecar Policy = "sidecar" // 视频同名 .txt
	PolicyPool    Policy = "pool"    // 标题池随机
)

var coverExts = []string{".png", ".jpg", ".jpeg"}

var defaultEmojis = []string{"🐱", "🌙", "✨", "🎵", "🌸", "🍀", "☀️", "🌈", "💤", "🐾"}

// Selection 选择结果
type Selection struct {
	Title string
	Tags  []string
	Cover string
}

// Selector 内容选择器
type Selector struct {
	cfg    config.ContentConfig
	titles []string
	mu     sync.Mutex
	rnd    *rand.Rand
}

// NewSelector 创建选择器，标题池文件在此读取
func NewSelector(cfg config.ContentConfig, rnd *rand.Rand) (*Selector, error) {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	s := &Selector{cfg: cfg, rnd: rnd}
	s.titles = append(s.titles, nonEmpty(cfg.TitlePool)...)
	if cfg.TitlePoolFile != "" {
		lines, err := readLines(cfg.TitlePoolFile)
		if err != nil {
			return nil, types.NewConfigurationError("读取标题池 %s 失败: %v", cfg.TitlePoolFile, err)
		}
		s.titles = append(s.titles, lines...)
	}
	return s, nil
}

// PolicyFor 决定视频使用哪种标题来源
func (s *Selector) PolicyFor(hint types.JobHint) Policy {
	if hint.UsePool {
		return PolicyPool
	}
	if s.cfg.PoolSuffix != "" {
		stem := stemOf(hint.VideoPath)
		if strings.HasSuffix(strings.ToLower(stem), strings.ToLower(s.cfg.PoolSuffix)) {
			return PolicyPool
		}
	}
	if Policy(s.cfg.Policy) == PolicyPool {
		return PolicyPool
	}
	return PolicySidecar
}

// Select 为视频选择标题与话题。sidecar 策略缺少文本时返回 ContentMissingError
func (s *Selector) Select(hint types.JobHint) (Selection, error) {
	var (
		sel Selection
		err error
	)
	switch s.PolicyFor(hint) {
	case PolicyPool:
		sel, err = s.fromPool()
	default:
		sel, err = fromSidecar(hint.VideoPath)
	}
	if err != nil {
		return Selection{}, err
	}

	sel.Cover = s.cover(hint.VideoPath)
	if s.cfg.Decorate {
		sel.Title = s.Decorate(sel.Title)
	}
	return sel, nil
}

func (s *Selector) fromPool() (Selection, error) {
	if len(s.titles) == 0 {
		return Selection{}, types.NewContentMissingError(errors.New("标题池为空"))
	}
	s.mu.Lock()
	title := s.titles[s.rnd.Intn(len(s.titles))]
	s.mu.Unlock()
	return Selection{Title: title, Tags: append([]string(nil), s.cfg.Tags...)}, nil
}

func fromSidecar(videoPath string) (Selection, error) {
	sidecar := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".txt"
	data, err := os.ReadFile(sidecar)
	if err != nil {
		if os.IsNotExist(err) {
			return Selection{}, types.NewContentMissingError(fmt.Errorf("缺少标题文件 %s", filepath.Base(sidecar)))
		}
		return Selection{}, types.NewContentMissingError(err)
	}
	title, tags := ParseSidecar(string(data))
	if title == "" {
		return Selection{}, types.NewContentMissingError(fmt.Errorf("标题文件 %s 为空", filepath.Base(sidecar)))
	}
	return Selection{Title: title, Tags: tags}, nil
}

// ParseSidecar 第一行为标题，第二行为话题（#a #b 或空白分隔）
func ParseSidecar(text string) (string, []string) {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return "", nil
	}
	title := strings.TrimPrefix(lines[0], "\ufeff")
	if len(lines) < 2 {
		return title, nil
	}

	return title, strings.Fields(strings.ReplaceAll(lines[1], "#", " "))
}

// cover 同名图片优先，其次封面目录随机一张
func (s *Selector) cover(videoPath string) string {
	base := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
	for _, ext := range coverExts {
		if fileExists(base + ext) {
			return base + ext
		}
	}
	if s.cfg.CoverDir == "" {
		return s.frame(videoPath)
	}

	entries, err := os.ReadDir(s.cfg.CoverDir)
	if err != nil {
		return s.frame(videoPath)
	}
	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, allowed := range coverExts {
			if ext == allowed {
				images = append(images, filepath.Join(s.cfg.CoverDir, e.Name()))
				break
			}
		}
	}
	if len(images) == 0 {
		return s.frame(videoPath)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return images[s.rnd.Intn(len(images))]
}

// frame 抽取视频画面作为封面，失败时不设置封面
func (s *Selector) frame(videoPath string) string {
	if s.cfg.CoverFrameAt <= 0 {
		return ""
	}
	dir := s.cfg.FrameDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "fpublisher-covers")
	}
	path, err := utils.ExtractFrameAt(videoPath, dir, s.cfg.CoverFrameAt)
	if err != nil {
		utils.Warn(fmt.Sprintf("[-] %s 抽取封面失败: %v", filepath.Base(videoPath), err))
		return ""
	}
	return path
}

// Decorate 在标题末尾追加随机 emoji
func (s *Selector) Decorate(title string) string {
	emojis := s.cfg.Emojis
	if len(emojis) == 0 {
		emojis = defaultEmojis
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return title + emojis[s.rnd.Intn(len(emojis))]
}

// PoolSize 标题池大小
func (s *Selector) PoolSize() int { return len(s.titles) }

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "# ") {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func nonEmpty(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
