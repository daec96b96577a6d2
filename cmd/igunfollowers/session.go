package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"igunfollowers/pkg/config"
	"igunfollowers/pkg/instagram"
	"igunfollowers/pkg/logger"
	"igunfollowers/pkg/session"
)

func newSessionCmd(c *cli) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage saved login sessions",
		Long: `Manage the login sessions saved in the sessions directory.

A session is written after every successful login and reused on the next
run. Removing it forces a fresh login with password (and 2FA code).`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE:  c.runSessionList,
	}

	var all bool
	logoutCmd := &cobra.Command{
		Use:   "logout [username]",
		Short: "Remove a saved session",
		Example: `  # Forget the session of one account
  igunfollowers session logout alice

  # Forget every saved session
  igunfollowers session logout --all`,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSessionLogout(cmd, args, all)
		},
	}
	logoutCmd.Flags().BoolVar(&all, "all", false, "remove every saved session")

	sessionCmd.AddCommand(listCmd, logoutCmd)
	return sessionCmd
}

// sessionStore opens the sessions directory. Listing and deleting never
// decode a session, so the codec does not matter here.
func (c *cli) sessionStore(cfg *config.Config) *session.Store {
	return session.NewStore(cfg.Session.Directory, session.JSONCodec{}, logger.GetLogger())
}

func (c *cli) runSessionList(cmd *cobra.Command, args []string) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	console := c.console(cfg)

	store := c.sessionStore(cfg)
	sessions, err := store.List()
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		console.Status("No saved sessions in %s", store.Dir())
		return nil
	}

	console.Success("Saved sessions")
	fmt.Fprintln(console.Out())
	for i, info := range sessions {
		fmt.Fprintf(console.Out(), "%d. @%s\n", i+1, info.Username)
		fmt.Fprintf(console.Out(), "   Path: %s\n", info.Path)
		fmt.Fprintf(console.Out(), "   Saved: %s (%s)\n", info.SavedAt.Format("2006-01-02 15:04:05"), humanize.Time(info.SavedAt))
	}
	return nil
}

func (c *cli) runSessionLogout(cmd *cobra.Command, args []string, all bool) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	console := c.console(cfg)
	store := c.sessionStore(cfg)

	var usernames []string
	if all {
		sessions, err := store.List()
		if err != nil {
			return err
		}
		for _, info := range sessions {
			usernames = append(usernames, info.Username)
		}
	} else {
		usernames = []string{instagram.SanitizeUsername(args[0])}
	}

	for _, username := range usernames {
		if !store.Exists(username) {
			console.Warning("⚠️ No saved session for @%s", username)
			continue
		}
		if err := store.Delete(username); err != nil {
			return err
		}
		console.Status("🗑️ Session removed for @%s", username)
	}
	return nil
}
