package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"igunfollowers/pkg/instagram"
)

const (
	testSessionID = "42%3Acli-session"
	testCSRFToken = "cli-csrf"
)

type testProfile struct {
	id        string
	followers []string
	followees []string
}

// fakeInstagram serves just enough of the Instagram web protocol for a
// full check run.
type fakeInstagram struct {
	server *httptest.Server

	mu            sync.Mutex
	passwords     map[string]string
	twoFactorCode string
	profiles      map[string]testProfile
	hits          map[string]int
}

func newFakeInstagram(t *testing.T) *fakeInstagram {
	f := &fakeInstagram{
		passwords: map[string]string{"alice": "hunter2"},
		profiles: map[string]testProfile{
			"alice": {id: "42", followers: []string{"a", "b"}, followees: []string{"a", "b", "c", "z"}},
		},
		hits: map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(instagram.LoginPageEndpoint, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: testCSRFToken, Path: "/"})
		_, _ = w.Write([]byte("<html></html>"))
	})
	mux.HandleFunc(instagram.LoginEndpoint, f.login)
	mux.HandleFunc(instagram.TwoFactorEndpoint, f.twoFactor)
	mux.HandleFunc(instagram.CurrentUserEndpoint, f.currentUser)
	mux.HandleFunc(instagram.ProfileEndpoint, f.profile)
	mux.HandleFunc(instagram.GraphQLEndpoint, f.graphql)

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeInstagram) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func grant(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: testSessionID, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "ds_user_id", Value: "42", Path: "/"})
}

func hasSession(r *http.Request) bool {
	c, err := r.Cookie("sessionid")
	return err == nil && c.Value == testSessionID
}

func (f *fakeInstagram) login(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	username := r.PostForm.Get("username")
	encPassword := r.PostForm.Get("enc_password")

	f.mu.Lock()
	password, known := f.passwords[username]
	code := f.twoFactorCode
	f.mu.Unlock()

	switch {
	case !known:
		respond(w, http.StatusOK, map[string]interface{}{"authenticated": false, "user": false, "status": "ok"})
	case len(encPassword) < len(password) || encPassword[len(encPassword)-len(password):] != password:
		respond(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Sorry, your password was incorrect.", "user": true, "authenticated": false, "status": "fail",
		})
	case code != "":
		respond(w, http.StatusBadRequest, map[string]interface{}{
			"two_factor_required": true,
			"two_factor_info":     map[string]interface{}{"two_factor_identifier": "ident", "username": username},
			"status":              "fail",
		})
	default:
		grant(w)
		respond(w, http.StatusOK, map[string]interface{}{"authenticated": true, "user": true, "userId": "42", "status": "ok"})
	}
}

func (f *fakeInstagram) twoFactor(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	f.mu.Lock()
	code := f.twoFactorCode
	f.mu.Unlock()

	if r.PostForm.Get("verificationCode") != code {
		respond(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Please check the security code and try again.", "status": "fail",
		})
		return
	}
	grant(w)
	respond(w, http.StatusOK, map[string]interface{}{"authenticated": true, "status": "ok"})
}

func (f *fakeInstagram) currentUser(w http.ResponseWriter, r *http.Request) {
	if !hasSession(r) {
		http.Redirect(w, r, instagram.LoginPageEndpoint, http.StatusFound)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"user":   map[string]interface{}{"username": "alice", "pk": 42},
		"status": "ok",
	})
}

func (f *fakeInstagram) profile(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	f.mu.Lock()
	p, ok := f.profiles[username]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"user": map[string]interface{}{
				"id":               p.id,
				"username":         username,
				"edge_followed_by": map[string]interface{}{"count": len(p.followers)},
				"edge_follow":      map[string]interface{}{"count": len(p.followees)},
			},
		},
		"status": "ok",
	})
}

// graphql returns each list in a single page
func (f *fakeInstagram) graphql(w http.ResponseWriter, r *http.Request) {
	var vars struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal([]byte(r.URL.Query().Get("variables")), &vars)

	f.mu.Lock()
	var profile *testProfile
	for _, p := range f.profiles {
		if p.id == vars.ID {
			p := p
			profile = &p
		}
	}
	f.mu.Unlock()

	if !hasSession(r) || profile == nil {
		respond(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"user": nil}, "status": "ok"})
		return
	}

	list, edgeName := profile.followers, "edge_followed_by"
	if r.URL.Query().Get("query_hash") == instagram.FolloweesQueryHash {
		list, edgeName = profile.followees, "edge_follow"
	}

	edges := make([]map[string]interface{}, 0, len(list))
	for i, name := range list {
		edges = append(edges, map[string]interface{}{
			"node": map[string]interface{}{"id": strconv.Itoa(i), "username": name},
		})
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"user": map[string]interface{}{
				edgeName: map[string]interface{}{
					"count":     len(list),
					"page_info": map[string]interface{}{"has_next_page": false, "end_cursor": ""},
					"edges":     edges,
				},
			},
		},
		"status": "ok",
	})
}
