package followback

import (
	"context"
	"errors"
	"fmt"

	errs "igunfollowers/pkg/errors"
	"igunfollowers/pkg/instagram"
	"igunfollowers/pkg/logger"
)

// ErrProfileNotFound is returned when the username has no Instagram profile
var ErrProfileNotFound = errors.New("profile not found")

// ProfileNotFoundError names the missing profile
type ProfileNotFoundError struct {
	Username string
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("profile '@%s' doesn't exist", e.Username)
}

func (e *ProfileNotFoundError) Is(target error) bool {
	return target == ErrProfileNotFound
}

// ProfileClient fetches a profile and its friendship lists
type ProfileClient interface {
	Profile(ctx context.Context, username string) (*instagram.Profile, error)
	Followers(ctx context.Context, profile *instagram.Profile) ([]string, error)
	Followees(ctx context.Context, profile *instagram.Profile) ([]string, error)
}

// Progress receives status lines while lists are being fetched
type Progress interface {
	Status(format string, args ...interface{})
}

// Checker finds the accounts that do not follow a user back
type Checker struct {
	client   ProfileClient
	progress Progress
	logger   logger.Logger
}

// NewChecker creates a checker
func NewChecker(client ProfileClient, progress Progress, log logger.Logger) *Checker {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Checker{
		client:   client,
		progress: progress,
		logger:   log.WithField("component", "followback"),
	}
}

// Check fetches both friendship lists of username and compares them
func (c *Checker) Check(ctx context.Context, username string) (*Report, error) {
	profile, err := c.client.Profile(ctx, username)
	if err != nil {
		if errs.IsType(err, errs.ErrorTypeNotFound) {
			return nil, &ProfileNotFoundError{Username: username}
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	c.progress.Status("⏳ Loading followers...")
	followers, err := c.client.Followers(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load followers: %w", err)
	}

	c.progress.Status("⏳ Loading following...")
	following, err := c.client.Followees(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load following: %w", err)
	}

	if len(followers) != profile.Followers || len(following) != profile.Followees {
		c.logger.DebugWithFields("fetched lists differ from advertised counts", map[string]interface{}{
			"username":             username,
			"followers":            len(followers),
			"advertised_followers": profile.Followers,
			"following":            len(following),
			"advertised_following": profile.Followees,
		})
	}

	return Compare(username, followers, following), nil
}
