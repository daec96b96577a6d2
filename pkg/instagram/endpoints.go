package instagram

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"igunfollowers/pkg/config"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = config.DefaultBaseURL

	// DefaultAppID is the application id the web client sends as X-IG-App-ID
	DefaultAppID = config.DefaultAppID

	LoginPageEndpoint   = "/accounts/login/"
	LoginEndpoint       = "/api/v1/web/accounts/login/ajax/"
	TwoFactorEndpoint   = "/accounts/login/ajax/two_factor/"
	CurrentUserEndpoint = "/api/v1/accounts/current_user/"
	ProfileEndpoint     = "/api/v1/users/web_profile_info/"
	GraphQLEndpoint     = "/graphql/query/"

	// FollowersQueryHash lists the accounts following a user (edge_followed_by)
	FollowersQueryHash = "37479f2b8209594dde7facb0d904896a"

	// FolloweesQueryHash lists the accounts a user follows (edge_follow)
	FolloweesQueryHash = "58712303d941c6855d4e888c5f0cd22f"

	// DefaultPageSize is the number of accounts requested per GraphQL page
	DefaultPageSize = config.DefaultPageSize

	MaxPageSize = config.MaxPageSize
)

// profileQuery returns the query string for a web_profile_info request
func profileQuery(username string) url.Values {
	params := url.Values{}
	params.Set("username", username)
	return params
}

// friendshipQuery returns the query string for one page of a friendship list
func friendshipQuery(queryHash, userID, after string, pageSize int) url.Values {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	} else if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	variables := struct {
		ID    string `json:"id"`
		First int    `json:"first"`
		After string `json:"after,omitempty"`
	}{ID: userID, First: pageSize, After: after}

	// a struct of strings and an int always marshals
	encoded, _ := json.Marshal(variables)

	params := url.Values{}
	params.Set("query_hash", queryHash)
	params.Set("variables", string(encoded))
	return params
}

// encPassword formats a password the way the browser login form submits it
func encPassword(password string, unix int64) string {
	return "#PWD_INSTAGRAM_BROWSER:0:" + strconv.FormatInt(unix, 10) + ":" + password
}

// SanitizeUsername trims whitespace, a leading @ and trailing slashes
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	username = strings.TrimRight(username, "/ ")
	return username
}
