package followback

import (
	"fmt"
	"io"
)

// Report is the outcome of comparing who a user follows with who follows them
type Report struct {
	Username        string
	Followers       int
	Following       int
	NotFollowedBack []string
}

// Compare builds the report for username from the two friendship lists
func Compare(username string, followers, following []string) *Report {
	followerSet := NewSet(followers)
	followingSet := NewSet(following)

	return &Report{
		Username:        username,
		Followers:       len(followerSet),
		Following:       len(followingSet),
		NotFollowedBack: followingSet.Difference(followerSet),
	}
}

// Write prints the report in its terminal form
func (r *Report) Write(w io.Writer) error {
	lines := []string{
		fmt.Sprintf("\n🔍 Results for @%s:", r.Username),
		fmt.Sprintf("• Followers: %d", r.Followers),
		fmt.Sprintf("• Following: %d", r.Following),
		fmt.Sprintf("• Not following back: %d\n", len(r.NotFollowedBack)),
	}

	if len(r.NotFollowedBack) == 0 {
		lines = append(lines, "🎉 Everyone you follow follows you back!")
	} else {
		lines = append(lines, "🚫 Accounts not following you back:")
		for i, name := range r.NotFollowedBack {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, name))
		}
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
