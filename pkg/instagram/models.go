package instagram

import "encoding/json"

// Profile is the public information of an Instagram account
type Profile struct {
	ID        string
	Username  string
	FullName  string
	IsPrivate bool
	// Followers and Followees are the counts Instagram advertises on the
	// profile page; the fetched lists may differ.
	Followers int
	Followees int
}

// loginResponse is the body of the web login endpoint for 200 and 400 replies
type loginResponse struct {
	Authenticated     *bool          `json:"authenticated"`
	User              bool           `json:"user"`
	UserID            string         `json:"userId"`
	Status            string         `json:"status"`
	Message           string         `json:"message"`
	TwoFactorRequired bool           `json:"two_factor_required"`
	TwoFactorInfo     *twoFactorInfo `json:"two_factor_info"`
	CheckpointURL     string         `json:"checkpoint_url"`
}

type twoFactorInfo struct {
	Identifier string `json:"two_factor_identifier"`
	Username   string `json:"username"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type currentUserResponse struct {
	User *struct {
		Username string      `json:"username"`
		PK       json.Number `json:"pk"`
	} `json:"user"`
	Status string `json:"status"`
}

type profileResponse struct {
	Data struct {
		User *profileUser `json:"user"`
	} `json:"data"`
	Status string `json:"status"`
}

type profileUser struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	IsPrivate      bool   `json:"is_private"`
	EdgeFollowedBy count  `json:"edge_followed_by"`
	EdgeFollow     count  `json:"edge_follow"`
}

type count struct {
	Count int `json:"count"`
}

// friendshipResponse is one GraphQL page of either friendship list
type friendshipResponse struct {
	Data struct {
		User *struct {
			EdgeFollowedBy *userConnection `json:"edge_followed_by"`
			EdgeFollow     *userConnection `json:"edge_follow"`
		} `json:"user"`
	} `json:"data"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type userConnection struct {
	Count    int      `json:"count"`
	PageInfo PageInfo `json:"page_info"`
	Edges    []struct {
		Node struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"node"`
	} `json:"edges"`
}

// PageInfo contains pagination information
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}
