package instagram

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"igunfollowers/pkg/config"
	"igunfollowers/pkg/errors"
	"igunfollowers/pkg/logger"
	"igunfollowers/pkg/retry"
)

// errLoginRedirect stops the client from following Instagram's redirect to
// the login page, which is how anonymous access to private data fails.
var errLoginRedirect = stderrors.New("redirected to login page")

// Options configures a Client
type Options struct {
	BaseURL               string
	UserAgent             string
	AppID                 string
	Timeout               time.Duration
	MaxConnectionAttempts int
	PageSize              int
	Logger                logger.Logger

	// Backoff between connection attempts; nil picks delays by error type
	Backoff retry.BackoffStrategy

	// Transport overrides the HTTP transport, mainly for tests
	Transport http.RoundTripper
}

// OptionsFromConfig builds client options from the instagram config section
func OptionsFromConfig(cfg config.InstagramConfig, log logger.Logger) Options {
	return Options{
		BaseURL:               cfg.BaseURL,
		UserAgent:             cfg.UserAgent,
		AppID:                 cfg.AppID,
		Timeout:               cfg.Timeout,
		MaxConnectionAttempts: cfg.MaxConnectionAttempts,
		PageSize:              cfg.PageSize,
		Logger:                log,
	}
}

// twoFactorState is the login that is waiting for a verification code
type twoFactorState struct {
	username   string
	identifier string
}

// Client talks to the Instagram web endpoints with a cookie-based session.
// It is not safe for concurrent use.
type Client struct {
	httpClient *http.Client
	jar        *cookiejar.Jar
	baseURL    *url.URL
	headers    map[string]string
	pageSize   int
	retry      *retry.Config
	logger     logger.Logger

	username  string
	userID    string
	twoFactor *twoFactorState
}

// NewClient creates a new Instagram client
func NewClient(opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	rawBase := opts.BaseURL
	if rawBase == "" {
		rawBase = BaseURL
	}
	base, err := url.Parse(strings.TrimRight(rawBase, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", rawBase)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	appID := opts.AppID
	if appID == "" {
		appID = DefaultAppID
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: opts.Transport,
		},
		jar:     jar,
		baseURL: base,
		headers: map[string]string{
			"User-Agent":       userAgent,
			"Accept":           "*/*",
			"Accept-Language":  "en-US,en;q=0.9",
			"X-IG-App-ID":      appID,
			"X-Requested-With": "XMLHttpRequest",
			"Origin":           base.String(),
			"Referer":          base.String() + "/",
		},
		pageSize: pageSize,
		logger:   log.WithField("component", "instagram_client"),
	}
	c.httpClient.CheckRedirect = c.checkRedirect

	backoff := opts.Backoff
	if backoff == nil {
		backoff = retry.NewErrorTypeBackoff()
	}
	c.retry = &retry.Config{
		MaxAttempts: opts.MaxConnectionAttempts,
		Backoff:     backoff,
		RetryIf:     retry.DefaultRetryIf,
		Logger:      c.logger,
	}

	return c, nil
}

// Username returns the account the client is logged in as, or ""
func (c *Client) Username() string {
	return c.username
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if strings.HasPrefix(req.URL.Path, LoginPageEndpoint) {
		return errLoginRedirect
	}
	if len(via) >= 10 {
		return stderrors.New("stopped after 10 redirects")
	}
	return nil
}

// cookie returns the value of a cookie the jar holds for the base URL
func (c *Client) cookie(name string) string {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// cookies returns every cookie the jar holds for the base URL
func (c *Client) cookies() map[string]string {
	out := make(map[string]string)
	for _, ck := range c.jar.Cookies(c.baseURL) {
		out[ck.Name] = ck.Value
	}
	return out
}

func (c *Client) setCookie(name, value string) {
	c.jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:  name,
		Value: value,
		Path:  "/",
	}})
}

// newRequest builds a request for path on the base URL. A non-nil form makes
// it a urlencoded POST body.
func (c *Client) newRequest(ctx context.Context, method, path string, query, form url.Values) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token := c.cookie("csrftoken"); token != "" {
		req.Header.Set("X-CSRFToken", token)
	}

	return req, nil
}

// doRequest performs an HTTP request and classifies transport failures
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctxErr)
		}
		if stderrors.Is(err, errLoginRedirect) {
			c.logger.WarnWithFields("redirected to login page", map[string]interface{}{
				"url": req.URL.Path,
			})
			return nil, errors.New(errors.ErrorTypeAuth, http.StatusFound, "login required")
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL.Path,
			"error":       err.Error(),
			"duration_ms": elapsed,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	logger.LogRequest(c.logger, req.Method, req.URL.Path, resp.StatusCode, elapsed)

	return resp, nil
}

// checkResponseStatus maps HTTP status codes to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrorTypeAuth, code, "authentication required")
	case code == http.StatusNotFound:
		return errors.New(errors.ErrorTypeNotFound, code, "resource not found")
	case code == http.StatusTooManyRequests:
		return errors.New(errors.ErrorTypeRateLimit, code, "rate limit exceeded")
	case code >= 500:
		return errors.New(errors.ErrorTypeServerError, code, "server error")
	default:
		return errors.New(errors.ErrorTypeUnknown, code, "unexpected status code: %d", code)
	}
}

// decodeJSON reads the response body into target
func (c *Client) decodeJSON(resp *http.Response, target interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          resp.Request.URL.Path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// getJSON performs a GET request and decodes the JSON response, retrying
// transient failures up to the connection-attempt limit.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target interface{}) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return err
		}

		resp, err := c.doRequest(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(resp); err != nil {
			return err
		}

		return c.decodeJSON(resp, target)
	}, c.retry)
}

// getPage performs a GET request for an HTML page and returns its body
func (c *Client) getPage(ctx context.Context, path string) (string, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) (string, error) {
		req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Accept", "text/html,application/xhtml+xml")

		resp, err := c.doRequest(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(resp); err != nil {
			return "", err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read page: %v", err)
		}
		return string(body), nil
	}, c.retry)
}

// postForm submits a form and decodes the JSON reply. Instagram answers
// rejected logins with 400 and a JSON body, so 400 is decoded like 200.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, target interface{}) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		req, err := c.newRequest(ctx, http.MethodPost, path, nil, form)
		if err != nil {
			return err
		}

		resp, err := c.doRequest(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			if err := c.checkResponseStatus(resp); err != nil {
				return err
			}
		}

		return c.decodeJSON(resp, target)
	}, c.retry)
}
