// Package wordpress is a thin client for the WordPress REST API v2 posts
// endpoints. Every operation is a single authenticated round trip: no state
// is cached between calls and no request is ever retried, so each call
// reflects the remote site at call time and a failure is final.
package wordpress

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wpmcp/internal/logging"
)

const (
	apiBase = "/wp-json/wp/v2"

	// DefaultTimeout bounds each round trip when the config does not set one.
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "wpmcp"
)

// Config carries the connection settings for a Client. SiteURL is the base
// site address (scheme required); AppPassword is a WordPress application
// password, not the account login password.
type Config struct {
	SiteURL     string
	Username    string
	AppPassword string
	Timeout     time.Duration
	UserAgent   string
}

// Client issues authenticated requests against one WordPress site. It is
// safe for concurrent use; credentials and base URL are fixed at
// construction time.
type Client struct {
	baseURL   string
	username  string
	password  string
	userAgent string
	logger    *logging.AppLogger
	httpc     *http.Client
}

// NewClient builds a Client from cfg. Construction performs no I/O; the
// first network activity happens on the first operation call.
func NewClient(cfg Config, logger *logging.AppLogger) *Client {
	baseURL := strings.TrimRight(cfg.SiteURL, "/")

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	// Requests carry Basic Auth, so redirects must stay on the configured
	// host and the chain is kept short.
	siteHost := ""
	if u, err := url.Parse(baseURL); err == nil {
		siteHost = u.Host
	}

	httpc := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("too many redirects")
			}
			if siteHost != "" && req.URL.Host != siteHost {
				return fmt.Errorf("redirect away from %s not allowed", siteHost)
			}
			return nil
		},
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}

	return &Client{
		baseURL:   baseURL,
		username:  cfg.Username,
		password:  cfg.AppPassword,
		userAgent: userAgent,
		logger:    logger,
		httpc:     httpc,
	}
}

// BaseURL returns the normalized site address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreatePost creates a new post and returns the site's view of it. Status
// defaults to draft when params leave it empty. Invalid params fail before
// any request is sent.
func (c *Client) CreatePost(ctx context.Context, params CreatePostParams) (*Post, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	status := params.Status
	if status == "" {
		status = DefaultStatus
	}

	reqBody := struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Status  string `json:"status"`
	}{params.Title, params.Content, status}

	code, data, err := c.do(ctx, http.MethodPost, c.postsURL(), reqBody)
	if err != nil {
		return nil, err
	}
	if code < 200 || code > 299 {
		return nil, remoteError(code, data)
	}

	var payload postPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse create response: %w", err)
	}

	post := payload.toPost()
	c.logger.Debug("Created post", "id", post.ID, "status", post.Status, "link", post.Link)
	return post, nil
}

// DeletePost deletes the post with the given id. force=false moves it to
// trash (the post still exists with status "trash"); force=true removes it
// permanently.
func (c *Client) DeletePost(ctx context.Context, postID int, force bool) (*DeleteResult, error) {
	if postID <= 0 {
		return nil, &ValidationError{Field: "post_id", Reason: "must be a positive integer"}
	}

	reqURL := c.postURL(postID)
	if force {
		reqURL += "?force=true"
	}

	code, data, err := c.do(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return nil, err
	}
	switch {
	case code == http.StatusNotFound:
		return nil, &NotFoundError{Ref: fmt.Sprintf("id %d", postID)}
	case code < 200 || code > 299:
		return nil, remoteError(code, data)
	}

	var payload deletePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse delete response: %w", err)
	}

	result := &DeleteResult{ID: postID}
	if payload.Deleted {
		// Permanent delete: the body is {"deleted":true,"previous":{...}}.
		result.Deleted = true
		if payload.Previous != nil {
			result.PreviousStatus = payload.Previous.Status
			if payload.Previous.ID != 0 {
				result.ID = payload.Previous.ID
			}
		}
	} else if payload.ID != 0 {
		// Trash move: the body is the trashed post object itself.
		result.ID = payload.ID
		result.PreviousStatus = payload.Status
	}

	c.logger.Debug("Deleted post", "id", result.ID, "permanent", result.Deleted)
	return result, nil
}

// GetPostByID fetches a single post. A 404 from the site maps to
// NotFoundError.
func (c *Client) GetPostByID(ctx context.Context, postID int) (*Post, error) {
	if postID <= 0 {
		return nil, &ValidationError{Field: "post_id", Reason: "must be a positive integer"}
	}

	code, data, err := c.do(ctx, http.MethodGet, c.postURL(postID), nil)
	if err != nil {
		return nil, err
	}
	switch {
	case code == http.StatusNotFound:
		return nil, &NotFoundError{Ref: fmt.Sprintf("id %d", postID)}
	case code < 200 || code > 299:
		return nil, remoteError(code, data)
	}

	var payload postPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse post response: %w", err)
	}
	return payload.toPost(), nil
}

// GetPostBySlug fetches a post through the collection's slug filter. An
// empty result set maps to NotFoundError. Slugs are unique per post type in
// practice, but drafts and trashed posts can collide; the first match wins.
func (c *Client) GetPostBySlug(ctx context.Context, slug string) (*Post, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, &ValidationError{Field: "slug", Reason: "must not be empty"}
	}

	reqURL := c.postsURL() + "?slug=" + url.QueryEscape(slug)

	code, data, err := c.do(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	switch {
	case code == http.StatusNotFound:
		return nil, &NotFoundError{Ref: fmt.Sprintf("slug %q", slug)}
	case code < 200 || code > 299:
		return nil, remoteError(code, data)
	}

	var payloads []postPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, fmt.Errorf("failed to parse posts response: %w", err)
	}
	if len(payloads) == 0 {
		return nil, &NotFoundError{Ref: fmt.Sprintf("slug %q", slug)}
	}

	return payloads[0].toPost(), nil
}

// VerifyAuth confirms the site is reachable and the credentials are
// accepted, via the users/me endpoint. Used by the setup wizard and the
// doctor command; never called on the serve path.
func (c *Client) VerifyAuth(ctx context.Context) error {
	code, data, err := c.do(ctx, http.MethodGet, c.baseURL+apiBase+"/users/me", nil)
	if err != nil {
		return err
	}
	if code < 200 || code > 299 {
		return remoteError(code, data)
	}
	return nil
}

// do runs one round trip and returns the status code and raw body. Transport
// failures come back as UnreachableError; non-2xx statuses are returned for
// the caller to map, since meaning differs per operation.
func (c *Client) do(ctx context.Context, method, rawURL string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("WordPress request", "method", method, "url", rawURL)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, nil, &UnreachableError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &UnreachableError{URL: rawURL, Err: err}
	}

	c.logger.Debug("WordPress response", "status", resp.StatusCode, "bytes", len(data))
	return resp.StatusCode, data, nil
}

func (c *Client) postsURL() string {
	return c.baseURL + apiBase + "/posts"
}

func (c *Client) postURL(id int) string {
	return fmt.Sprintf("%s%s/posts/%d", c.baseURL, apiBase, id)
}

// remoteError builds the error for a non-2xx response, preserving the
// server's own code and message when the body carries them.
func remoteError(status int, body []byte) *RemoteError {
	re := &RemoteError{StatusCode: status}

	var ep errorPayload
	if err := json.Unmarshal(body, &ep); err == nil {
		re.Code = ep.Code
		re.Message = ep.Message
	}
	return re
}
