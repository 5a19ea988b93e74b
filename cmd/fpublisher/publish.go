package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"Fpublisher/internal/content"
	"Fpublisher/internal/ledger"
	"Fpublisher/internal/scheduler"
	"Fpublisher/internal/service"
	"Fpublisher/internal/types"
)

var publishFlags struct {
	platforms   []string
	accounts    []string
	dir         string
	immediate   bool
	interactive bool
	dryRun      bool
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "批量发布目录中的视频",
	Long: `扫描视频目录，为每个视频读取同名 .txt 中的标题与话题（或从标题池选取），
按配置的时段排期后依次上传发布。已发布的视频记录在台账中，重复运行不会重复发布。`,
	RunE: runPublish,
}

func init() {
	f := publishCmd.Flags()
	f.StringSliceVarP(&publishFlags.platforms, "platform", "p", nil, "platforms to publish to (default: platforms in config)")
	f.StringSliceVarP(&publishFlags.accounts, "account", "a", nil, "accounts (default: accounts in config)")
	f.StringVarP(&publishFlags.dir, "dir", "d", "videos", "video directory")
	f.BoolVar(&publishFlags.immediate, "immediate", false, "publish immediately instead of scheduling")
	f.BoolVarP(&publishFlags.interactive, "interactive", "i", false, "open a browser for login when a session is invalid")
	f.BoolVar(&publishFlags.dryRun, "dry-run", false, "only print the queue")
}

func runPublish(cmd *cobra.Command, _ []string) error {
	a, err := newApp(publishFlags.interactive)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	profiles, err := a.platformsFor(publishFlags.platforms)
	if err != nil {
		return err
	}
	selector, err := content.NewSelector(a.cfg.Content, nil)
	if err != nil {
		return err
	}
	builder := service.NewQueueBuilder(a.cfg, selector, nil)
	immediate := publishFlags.immediate || a.cfg.Schedule.Immediate
	now := time.Now()

	var (
		pipelines []scheduler.Pipeline
		rejected  []types.JobResult
	)
	for _, p := range profiles {
		category := a.cfg.Platforms[p.Name].Category
		for _, account := range a.accountsFor(p.Name, publishFlags.accounts) {
			done, err := ledger.Open(a.cfg, a.db, p.Name, account)
			if err != nil {
				return err
			}
			q, err := builder.Build(service.QueueRequest{Platform: p.Name, Account: account, Dir: publishFlags.dir, Category: category}, done)
			if err != nil {
				return err
			}
			rejected = append(rejected, q.Rejected...)
			if len(q.Jobs) == 0 {
				continue
			}
			if !immediate && p.SupportsSchedule() {
				if err := scheduler.AssignSlots(q.Jobs, now, scheduler.SlotConfigFrom(a.cfg.Schedule), nil); err != nil {
					return err
				}
			}
			pipelines = append(pipelines, scheduler.Pipeline{Platform: p.Name, Account: account, Jobs: q.Jobs})
		}
	}

	if publishFlags.dryRun {
		printQueue(pipelines, rejected)
		return nil
	}
	if len(pipelines) == 0 {
		printResults(rejected)
		fmt.Println("没有需要发布的视频")
		return nil
	}

	runner := scheduler.NewRunner(a.cfg, a.registry, a.pool, a.store, a.accounts,
		scheduler.WithDatabase(a.db), scheduler.WithEventHandler(a.onEvent))
	report, runErr := runner.Run(ctx, pipelines)
	printResults(append(rejected, report.Results...))

	a.logs.Flush()
	if warnings := a.logs.Errors(10); len(warnings) > 0 {
		fmt.Println("\n最近的警告与错误:")
		for _, l := range warnings {
			fmt.Printf("  %s [%s] %s\n", l.Time, l.Level, l.Message)
		}
	}
	return runErr
}

func printQueue(pipelines []scheduler.Pipeline, rejected []types.JobResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLATFORM\tACCOUNT\tVIDEO\tPUBLISH AT\tTITLE\tTAGS")
	for _, p := range pipelines {
		for _, job := range p.Jobs {
			at := "立即"
			if job.IsScheduled() {
				at = job.PublishAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", job.Platform, job.Account, filepath.Base(job.VideoPath), at, job.Title, len(job.Tags))
		}
	}
	for _, res := range rejected {
		fmt.Fprintf(w, "%s\t%s\t%s\t-\t%v\t-\n", res.Job.Platform, res.Job.Account, filepath.Base(res.Job.VideoPath), res.Err)
	}
	w.Flush()
}

func printResults(results []types.JobResult) {
	if len(results) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLATFORM\tACCOUNT\tVIDEO\tSTATUS\tPHASE\tELAPSED\tERROR")
	for _, res := range results {
		errMsg := ""
		if res.Err != nil {
			errMsg = res.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\t%s\n",
			res.Job.Platform, res.Job.Account, filepath.Base(res.Job.VideoPath),
			res.Status, res.Phase, res.Duration().Round(time.Second), errMsg)
	}
	w.Flush()
}
