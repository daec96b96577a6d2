package instagram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"igunfollowers/pkg/logger"
	"igunfollowers/pkg/retry"
)

const (
	fakeCSRFToken = "csrf-token-1"
	fakeSessionID = "42%3Avalid-session"
	fakeUserID    = "42"
)

type fakeProfile struct {
	id        string
	private   bool
	followers []string
	followees []string
}

// fakeInstagram is an httptest server speaking the subset of the Instagram
// web protocol the client uses.
type fakeInstagram struct {
	t      *testing.T
	server *httptest.Server

	mu            sync.Mutex
	accounts      map[string]string // username -> password
	twoFactorCode string
	checkpoint    bool
	profiles      map[string]fakeProfile
	failures      map[string]int // path -> remaining 503 replies
	hits          map[string]int
	lastForm      url.Values
	lastHeaders   http.Header
	variables     []map[string]interface{}
}

func newFakeInstagram(t *testing.T) *fakeInstagram {
	f := &fakeInstagram{
		t:        t,
		accounts: map[string]string{"alice": "hunter2"},
		profiles: map[string]fakeProfile{},
		failures: map[string]int{},
		hits:     map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(LoginPageEndpoint, f.loginPage)
	mux.HandleFunc(LoginEndpoint, f.login)
	mux.HandleFunc(TwoFactorEndpoint, f.twoFactor)
	mux.HandleFunc(CurrentUserEndpoint, f.currentUser)
	mux.HandleFunc(ProfileEndpoint, f.profile)
	mux.HandleFunc(GraphQLEndpoint, f.graphql)

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.hits[r.URL.Path]++
		if f.failures[r.URL.Path] > 0 {
			f.failures[r.URL.Path]--
			f.mu.Unlock()
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		f.lastHeaders = r.Header.Clone()
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeInstagram) client(t *testing.T, attempts int) *Client {
	client, err := NewClient(Options{
		BaseURL:               f.server.URL,
		MaxConnectionAttempts: attempts,
		PageSize:              2,
		Timeout:               5 * time.Second,
		Backoff:               &retry.ConstantBackoff{Delay: time.Millisecond},
		Logger:                logger.NewTestLogger(),
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func (f *fakeInstagram) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func loggedIn(r *http.Request) bool {
	c, err := r.Cookie("sessionid")
	return err == nil && c.Value == fakeSessionID
}

func (f *fakeInstagram) grantSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: fakeSessionID, Path: "/"})
	http.SetCookie(w, &http.Cookie{Name: "ds_user_id", Value: fakeUserID, Path: "/"})
}

func (f *fakeInstagram) loginPage(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: fakeCSRFToken, Path: "/"})
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte("<html><body>login</body></html>"))
}

func (f *fakeInstagram) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.Header.Get("X-CSRFToken") != fakeCSRFToken {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"message": "CSRF token missing", "status": "fail"})
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.lastForm = r.PostForm
	password, known := f.accounts[r.PostForm.Get("username")]
	twoFactorCode, checkpoint := f.twoFactorCode, f.checkpoint
	f.mu.Unlock()

	submitted := r.PostForm.Get("enc_password")
	switch {
	case !known:
		writeJSON(w, http.StatusOK, map[string]interface{}{"authenticated": false, "user": false, "status": "ok"})
	case checkpoint:
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "checkpoint_required", "checkpoint_url": "/challenge/123/", "status": "fail",
		})
	case len(submitted) < len(password) || submitted[len(submitted)-len(password):] != password:
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Sorry, your password was incorrect.", "user": true, "authenticated": false, "status": "fail",
		})
	case twoFactorCode != "":
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message":             "",
			"two_factor_required": true,
			"two_factor_info":     map[string]interface{}{"two_factor_identifier": "ident-1", "username": r.PostForm.Get("username")},
			"status":              "fail",
		})
	default:
		f.grantSession(w)
		writeJSON(w, http.StatusOK, map[string]interface{}{"authenticated": true, "user": true, "userId": fakeUserID, "status": "ok"})
	}
}

func (f *fakeInstagram) twoFactor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.lastForm = r.PostForm
	code := f.twoFactorCode
	f.mu.Unlock()

	if r.PostForm.Get("identifier") != "ident-1" || r.PostForm.Get("verificationCode") != code {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Please check the security code and try again.", "status": "fail",
		})
		return
	}

	f.grantSession(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{"authenticated": true, "status": "ok"})
}

func (f *fakeInstagram) currentUser(w http.ResponseWriter, r *http.Request) {
	if !loggedIn(r) {
		http.Redirect(w, r, LoginPageEndpoint+"?next=/api/v1/accounts/current_user/", http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
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

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"user": map[string]interface{}{
				"id":               p.id,
				"username":         username,
				"full_name":        "Full " + username,
				"is_private":       p.private,
				"edge_followed_by": map[string]interface{}{"count": len(p.followers)},
				"edge_follow":      map[string]interface{}{"count": len(p.followees)},
			},
		},
		"status": "ok",
	})
}

func (f *fakeInstagram) graphql(w http.ResponseWriter, r *http.Request) {
	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(r.URL.Query().Get("variables")), &vars); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.variables = append(f.variables, vars)
	var profile *fakeProfile
	for _, p := range f.profiles {
		if p.id == vars["id"] {
			p := p
			profile = &p
		}
	}
	f.mu.Unlock()

	if !loggedIn(r) || profile == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"user": nil}, "status": "ok"})
		return
	}

	var list []string
	var edgeName string
	switch r.URL.Query().Get("query_hash") {
	case FollowersQueryHash:
		list, edgeName = profile.followers, "edge_followed_by"
	case FolloweesQueryHash:
		list, edgeName = profile.followees, "edge_follow"
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{"message": "unknown query", "status": "fail"})
		return
	}

	start := 0
	if after, ok := vars["after"].(string); ok {
		start, _ = strconv.Atoi(after)
	}
	first := int(vars["first"].(float64))
	end := start + first
	if end > len(list) {
		end = len(list)
	}

	edges := make([]map[string]interface{}, 0, end-start)
	for i, name := range list[start:end] {
		edges = append(edges, map[string]interface{}{
			"node": map[string]interface{}{"id": strconv.Itoa(start + i), "username": name},
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"user": map[string]interface{}{
				edgeName: map[string]interface{}{
					"count": len(list),
					"page_info": map[string]interface{}{
						"has_next_page": end < len(list),
						"end_cursor":    strconv.Itoa(end),
					},
					"edges": edges,
				},
			},
		},
		"status": "ok",
	})
}
