package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CheckFFmpeg 检查系统是否安装了 ffmpeg
func CheckFFmpeg() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// frameTimestamp 秒数转 HH:MM:SS
func frameTimestamp(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// FramePath 抽帧封面的输出路径，同一视频同一时间点复用
func FramePath(outDir, videoPath string, seconds int) string {
	base := filepath.Base(videoPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, fmt.Sprintf("%s_cover_%ds.jpg", stem, seconds))
}

// ExtractFrameAt 从视频指定时间点抽取一帧作为封面，已存在则直接返回
func ExtractFrameAt(videoPath, outDir string, seconds int) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("视频文件不存在: %s", videoPath)
	}
	coverPath := FramePath(outDir, videoPath, seconds)
	if info, err := os.Stat(coverPath); err == nil && info.Size() > 0 {
		return coverPath, nil
	}
	if !CheckFFmpeg() {
		return "", fmt.Errorf("系统未安装 ffmpeg，无法抽取封面")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	timeStr := frameTimestamp(seconds)
	Debug(fmt.Sprintf("[抽帧] 视频: %s, 时间点: %s, 输出: %s", videoPath, timeStr, coverPath))

	// -ss 放在 -i 之前是快速定位
	cmd := exec.Command("ffmpeg", "-ss", timeStr, "-i", videoPath, "-vframes", "1", "-q:v", "2", "-y", coverPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg 执行失败: %v, 输出: %s", err, string(output))
	}

	info, err := os.Stat(coverPath)
	if err != nil || info.Size() == 0 {
		os.Remove(coverPath)
		return "", fmt.Errorf("封面文件生成失败或为空")
	}
	Info(fmt.Sprintf("[抽帧成功] 封面已生成: %s, 大小: %d bytes", coverPath, info.Size()))
	return coverPath, nil
}
