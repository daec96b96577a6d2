package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"igunfollowers/pkg/auth"
	"igunfollowers/pkg/followback"
	"igunfollowers/pkg/instagram"
	"igunfollowers/pkg/logger"
	"igunfollowers/pkg/prompt"
	"igunfollowers/pkg/session"
	"igunfollowers/pkg/ui"
)

func newCheckCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check [username]",
		Short: "List the accounts that don't follow you back",
		Long: `Log in as username (reusing a saved session when possible), fetch the
followers and following lists and print every account you follow that
does not follow you back.

You will be prompted for:
  - Instagram username (if not provided)
  - Password (only when no valid session is saved)
  - 2FA code (only when two-factor authentication is enabled)`,
		Example: `  igunfollowers check
  igunfollowers check alice --sessions-dir ~/.igunfollowers/sessions`,
		Args: cobra.MaximumNArgs(1),
		RunE: c.runCheck,
	}
}

func (c *cli) runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.GetLogger()
	console := c.console(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prompter := prompt.New(c.in, c.out)

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	username, err := prompter.Username(arg)
	if err != nil {
		return err
	}

	client, err := instagram.NewClient(instagram.OptionsFromConfig(cfg.Instagram, log))
	if err != nil {
		return fmt.Errorf("failed to create instagram client: %w", err)
	}

	codec, err := auth.SessionCodec(cfg.Session.Encrypt)
	if err != nil {
		return err
	}
	store := session.NewStore(cfg.Session.Directory, codec, log)

	manager := auth.NewManager(client, store, prompter, console, log)
	if err := manager.Login(ctx, username); err != nil {
		return err
	}

	report, err := c.check(ctx, client, console, username)
	if err != nil {
		return err
	}

	sender := c.notifier
	if sender == nil {
		sender = ui.PlatformSender()
	}
	ui.NewNotifier(sender, cfg.Notifications.Enabled, log).NotifyReport(report.Username, len(report.NotFollowedBack))

	return nil
}

func (c *cli) check(ctx context.Context, client followback.ProfileClient, console *ui.Console, username string) (*followback.Report, error) {
	log := logger.GetLogger()

	report, err := followback.NewChecker(client, console, log).Check(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := report.Write(console.Out()); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	log.InfoWithFields("check completed", map[string]interface{}{
		"username":           report.Username,
		"followers":          report.Followers,
		"following":          report.Following,
		"not_following_back": len(report.NotFollowedBack),
	})

	return report, nil
}
