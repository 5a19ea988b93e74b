package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"Fpublisher/internal/platform/session"
	"Fpublisher/internal/types"
)

var accountFlags struct {
	platforms []string
	accounts  []string
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "打开浏览器人工登录并保存会话",
	RunE:  runLogin,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "校验已保存的会话是否有效",
	RunE:  runCheck,
}

func init() {
	for _, cmd := range []*cobra.Command{loginCmd, checkCmd} {
		cmd.Flags().StringSliceVarP(&accountFlags.platforms, "platform", "p", nil, "platforms (default: platforms in config)")
		cmd.Flags().StringSliceVarP(&accountFlags.accounts, "account", "a", nil, "accounts (default: accounts in config)")
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if len(accountFlags.platforms) == 0 {
		return types.NewConfigurationError("login 需要 --platform")
	}
	a, err := newApp(true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	profiles, err := a.platformsFor(accountFlags.platforms)
	if err != nil {
		return err
	}
	for _, p := range profiles {
		for _, account := range a.accountsFor(p.Name, accountFlags.accounts) {
			lock, err := session.AcquireRunLock(a.cfg.Storage.LockDir, p.Name, account)
			if err != nil {
				return err
			}
			_, err = a.accounts.Login(ctx, p, account)
			lock.Release()
			if err != nil {
				return fmt.Errorf("%s/%s 登录失败: %w", p.Name, account, err)
			}
			fmt.Printf("%s/%s 登录成功，会话已保存到 %s\n", p.Name, account, a.store.Path(p.Name, account))
		}
	}
	return nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	profiles, err := a.platformsFor(accountFlags.platforms)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLATFORM\tACCOUNT\tSTATUS")
	expired := 0
	for _, p := range profiles {
		for _, account := range a.accountsFor(p.Name, accountFlags.accounts) {
			status, err := a.accounts.Check(ctx, p, account)
			if err != nil {
				w.Flush()
				return err
			}
			if status != session.Valid {
				expired++
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, account, status)
		}
	}
	w.Flush()
	if expired > 0 {
		return fmt.Errorf("%d 个账号需要重新登录", expired)
	}
	return nil
}
