package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultBaseURL  = "https://api.github.com"
	maxErrorBody    = 2048
	cacheEntries    = 512
	cacheTTL        = 5 * time.Minute
	maxContentBytes = 512 * 1024
)

// Client calls the GitHub REST API with a caller-supplied bearer token.
// Successful GET bodies are cached in an expirable LRU so repeated runs
// against the same repository don't burn rate-limit quota.
type Client struct {
	http    *http.Client
	baseURL string
	cache   *expirable.LRU[string, []byte]
}

// NewClient creates a client. If baseURL is empty, the public GitHub API
// endpoint is used.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		cache:   expirable.NewLRU[string, []byte](cacheEntries, nil, cacheTTL),
	}
}

// GetRepository fetches repository metadata. This is the one mandatory call
// of a pipeline run; its APIError kind is surfaced to the caller.
func (c *Client) GetRepository(ctx context.Context, token, owner, name string) (*Repository, error) {
	body, err := c.get(ctx, token, fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(name)), "")
	if err != nil {
		return nil, err
	}
	var repo Repository
	if err := json.Unmarshal(body, &repo); err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: "malformed repository metadata: " + err.Error()}
	}
	if repo.DefaultBranch == "" {
		repo.DefaultBranch = "main"
	}
	return &repo, nil
}

// GetTree fetches the full recursive file tree at the tip of branch.
func (c *Client) GetTree(ctx context.Context, token, owner, name, branch string) ([]TreeEntry, error) {
	p := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1",
		url.PathEscape(owner), url.PathEscape(name), url.PathEscape(branch))
	body, err := c.get(ctx, token, p, "")
	if err != nil {
		return nil, err
	}
	var raw struct {
		Tree []struct {
			Path string `json:"path"`
			Type string `json:"type"`
			Size int64  `json:"size"`
		} `json:"tree"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: "malformed tree: " + err.Error()}
	}
	out := make([]TreeEntry, 0, len(raw.Tree))
	for _, e := range raw.Tree {
		kind := "file"
		if e.Type == "tree" {
			kind = "directory"
		}
		out = append(out, TreeEntry{Path: e.Path, Kind: kind, Size: e.Size})
	}
	return out, nil
}

// GetFileContent fetches the raw bytes of one file on the default branch.
func (c *Client) GetFileContent(ctx context.Context, token, owner, name, filePath string) ([]byte, error) {
	p := fmt.Sprintf("/repos/%s/%s/contents/%s", url.PathEscape(owner), url.PathEscape(name), escapePath(filePath))
	body, err := c.get(ctx, token, p, "application/vnd.github.raw+json")
	if err != nil {
		return nil, err
	}
	if len(body) > maxContentBytes {
		body = body[:maxContentBytes]
	}
	return body, nil
}

// ListRecentCommits returns the most recent commits on the default branch,
// newest first. Best effort: callers treat a failure as "no activity data".
func (c *Client) ListRecentCommits(ctx context.Context, token, owner, name string) ([]Commit, error) {
	p := fmt.Sprintf("/repos/%s/%s/commits?per_page=30", url.PathEscape(owner), url.PathEscape(name))
	body, err := c.get(ctx, token, p, "")
	if err != nil {
		return nil, err
	}
	var raw []struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string    `json:"name"`
				Date time.Time `json:"date"`
			} `json:"author"`
		} `json:"commit"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: "malformed commit list: " + err.Error()}
	}
	out := make([]Commit, 0, len(raw))
	for _, e := range raw {
		out = append(out, Commit{
			SHA:     e.SHA,
			Message: e.Commit.Message,
			Author:  e.Commit.Author.Name,
			Date:    e.Commit.Author.Date,
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, token, path, accept string) ([]byte, error) {
	key := cacheKey(token, path, accept)
	if body, ok := c.cache.Get(key); ok {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: err.Error()}
	}
	if accept == "" {
		accept = "application/vnd.github+json"
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &APIError{Kind: KindUnknown, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{
			Kind:       kindForStatus(resp.StatusCode, resp.Header.Get("X-RateLimit-Remaining")),
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindUnknown, Message: err.Error()}
	}
	c.cache.Add(key, body)
	return body, nil
}

// cacheKey folds a token fingerprint into the key so entries fetched with
// one credential are never served to another.
func cacheKey(token, path, accept string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	return fmt.Sprintf("%x|%s|%s", h.Sum64(), path, accept)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
