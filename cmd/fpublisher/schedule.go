package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"Fpublisher/internal/platform/builtin"
	"Fpublisher/internal/scheduler"
	"Fpublisher/internal/service"
)

var scheduleFlags struct {
	count int
	dir   string
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "预览定时发布排期",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		count := scheduleFlags.count
		if scheduleFlags.dir != "" {
			videos, err := service.ScanVideos(scheduleFlags.dir)
			if err != nil {
				return err
			}
			count = len(videos)
		}

		slots, err := scheduler.Slots(time.Now(), count, scheduler.SlotConfigFrom(cfg.Schedule), nil)
		if err != nil {
			return err
		}
		for i, at := range slots {
			fmt.Printf("%3d  %s\n", i+1, at.Format("2006-01-02 15:04 Mon"))
		}
		return nil
	},
}

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "列出支持的平台",
	Run: func(cmd *cobra.Command, _ []string) {
		registry := builtin.Registry()
		for _, name := range registry.Names() {
			p, _ := registry.Get(name)
			tagCap := "不限"
			if p.Tags.Cap > 0 {
				tagCap = fmt.Sprint(p.Tags.Cap)
			}
			fmt.Printf("%-12s %-10s 定时:%-5v 封面:%-5v 话题上限:%s\n",
				p.Name, p.DisplayName, p.SupportsSchedule(), p.SupportsCover(), tagCap)
		}
	},
}

func init() {
	scheduleCmd.Flags().IntVarP(&scheduleFlags.count, "count", "n", 10, "number of videos")
	scheduleCmd.Flags().StringVarP(&scheduleFlags.dir, "dir", "d", "", "count videos in this directory instead")
}
