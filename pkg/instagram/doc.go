// Package instagram is a small client for the Instagram web endpoints
// needed to compare follower lists.
//
// The client keeps its login in a cookie jar. It can log in with a
// password (and a two-factor code when asked), export and import those
// cookies as a session.Session, resolve profiles, and page through the
// follower and followee lists of a profile.
//
//	client, err := instagram.NewClient(instagram.OptionsFromConfig(cfg.Instagram, log))
//	if err != nil {
//	    return err
//	}
//	if err := client.Login(ctx, "alice", password); errors.IsType(err, errors.ErrorTypeTwoFactorRequired) {
//	    err = client.TwoFactorLogin(ctx, code)
//	}
//	profile, err := client.Profile(ctx, "alice")
//	followers, err := client.Followers(ctx, profile)
//
// Failures are *errors.Error values typed by cause. Network, rate-limit and
// server errors are retried up to Options.MaxConnectionAttempts attempts.
package instagram
