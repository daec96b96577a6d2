package instagram

import (
	"context"
	"net/http"

	"igunfollowers/pkg/errors"
)

// Profile resolves a username to its public profile
func (c *Client) Profile(ctx context.Context, username string) (*Profile, error) {
	c.logger.DebugWithFields("fetching user profile", map[string]interface{}{
		"username": username,
	})

	var resp profileResponse
	if err := c.getJSON(ctx, ProfileEndpoint, profileQuery(username), &resp); err != nil {
		if errors.IsType(err, errors.ErrorTypeNotFound) {
			return nil, errors.New(errors.ErrorTypeNotFound, http.StatusNotFound, "profile %s does not exist", username)
		}
		return nil, err
	}

	user := resp.Data.User
	if user == nil || user.ID == "" {
		return nil, errors.New(errors.ErrorTypeNotFound, http.StatusNotFound, "profile %s does not exist", username)
	}

	return &Profile{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		IsPrivate: user.IsPrivate,
		Followers: user.EdgeFollowedBy.Count,
		Followees: user.EdgeFollow.Count,
	}, nil
}

// Followers returns the usernames of every account following the profile
func (c *Client) Followers(ctx context.Context, profile *Profile) ([]string, error) {
	return c.friendships(ctx, profile, FollowersQueryHash, "followers", func(r *friendshipResponse) *userConnection {
		return r.Data.User.EdgeFollowedBy
	})
}

// Followees returns the usernames of every account the profile follows
func (c *Client) Followees(ctx context.Context, profile *Profile) ([]string, error) {
	return c.friendships(ctx, profile, FolloweesQueryHash, "followees", func(r *friendshipResponse) *userConnection {
		return r.Data.User.EdgeFollow
	})
}

// friendships walks every page of one friendship list
func (c *Client) friendships(ctx context.Context, profile *Profile, queryHash, list string, edge func(*friendshipResponse) *userConnection) ([]string, error) {
	if profile == nil || profile.ID == "" {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, "profile id is required to list %s", list)
	}

	var usernames []string
	cursor := ""

	for page := 1; ; page++ {
		var resp friendshipResponse
		query := friendshipQuery(queryHash, profile.ID, cursor, c.pageSize)
		if err := c.getJSON(ctx, GraphQLEndpoint, query, &resp); err != nil {
			return nil, err
		}

		if resp.Status != "" && resp.Status != "ok" {
			return nil, errors.New(errors.ErrorTypeUnknown, 0, "listing %s failed: %s", list, resp.Message)
		}
		if resp.Data.User == nil {
			return nil, errors.New(errors.ErrorTypeAuth, 0, "login required to list %s of %s", list, profile.Username)
		}

		conn := edge(&resp)
		if conn == nil {
			return nil, errors.New(errors.ErrorTypeParsing, 0, "response is missing the %s connection", list)
		}

		for _, e := range conn.Edges {
			usernames = append(usernames, e.Node.Username)
		}

		c.logger.DebugWithFields("fetched friendship page", map[string]interface{}{
			"list":     list,
			"username": profile.Username,
			"page":     page,
			"fetched":  len(usernames),
			"total":    conn.Count,
		})

		if !conn.PageInfo.HasNextPage {
			break
		}
		if conn.PageInfo.EndCursor == "" || conn.PageInfo.EndCursor == cursor {
			return nil, errors.New(errors.ErrorTypeParsing, 0, "pagination of %s did not advance", list)
		}
		cursor = conn.PageInfo.EndCursor
	}

	return usernames, nil
}
