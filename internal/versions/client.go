// Package versions looks up the latest published versions of npm packages
// and GitHub Actions so scaffolded projects start out pinned to current
// releases. Every lookup has a fallback; a network failure never stops a
// project from being generated.
package versions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shinji-kodama/devcode/internal/config"
	"github.com/shinji-kodama/devcode/internal/logging"
)

// DefaultPackages are the fallback versions of the packages a scaffolded
// project depends on.
var DefaultPackages = map[string]string{
	"typescript":          "5.6.3",
	"vitest":              "2.1.4",
	"@vitest/coverage-v8": "2.1.4",
	"eslint":              "9.14.0",
	"typescript-eslint":   "8.13.0",
	"@types/node":         "22.9.0",
	"pnpm":                "9.12.3",
}

// DefaultActions are the fallback major tags of the actions the workflow
// templates use.
var DefaultActions = map[string]string{
	"actions/checkout":     "v4",
	"actions/setup-node":   "v4",
	"actions/labeler":      "v5",
	"pnpm/action-setup":    "v4",
	"github/codeql-action": "v3",
}

// DevDependencies are the packages written to a scaffolded package.json.
var DevDependencies = []string{
	"@types/node",
	"@vitest/coverage-v8",
	"eslint",
	"typescript",
	"typescript-eslint",
	"vitest",
}

// Client queries the npm registry and the GitHub API.
type Client struct {
	HTTP         *http.Client
	NPMURL       string
	GitHubAPIURL string

	// Timeout applies to each request separately.
	Timeout time.Duration

	// Concurrency bounds parallel requests. Zero means 4.
	Concurrency int
}

// NewClient returns a Client configured from the registry section.
func NewClient(cfg config.RegistryConfig) *Client {
	return &Client{
		HTTP:         http.DefaultClient,
		NPMURL:       cfg.NPMURL,
		GitHubAPIURL: cfg.GitHubAPIURL,
		Timeout:      cfg.Timeout,
	}
}

// LatestPackages returns the latest version of each package. Packages
// whose lookup fails get their fallback entry, or are omitted when there
// is none.
func (c *Client) LatestPackages(ctx context.Context, names []string, fallback map[string]string) map[string]string {
	return c.resolve(ctx, names, fallback, c.latestPackage)
}

// LatestActionTags returns the major tag ("v4") of each owner/repo action.
func (c *Client) LatestActionTags(ctx context.Context, actions []string, fallback map[string]string) map[string]string {
	return c.resolve(ctx, actions, fallback, c.latestActionTag)
}

type lookupFunc func(ctx context.Context, name string) (string, error)

func (c *Client) resolve(ctx context.Context, names []string, fallback map[string]string, lookup lookupFunc) map[string]string {
	logger := logging.GetLogger("versions")

	var mu sync.Mutex
	out := make(map[string]string, len(names))

	limit := c.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, name := range names {
		name := name
		g.Go(func() error {
			v, err := lookup(ctx, name)
			if err != nil {
				logger.Info().Err(err).Str("name", name).Msg("version lookup failed, using fallback")
				v = fallback[name]
			}
			if v == "" {
				return nil
			}
			mu.Lock()
			out[name] = v
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Client) latestPackage(ctx context.Context, name string) (string, error) {
	endpoint := strings.TrimSuffix(c.NPMURL, "/") + "/" + escapePackage(name) + "/latest"

	var body struct {
		Version string `json:"version"`
	}
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return "", err
	}
	if body.Version == "" {
		return "", fmt.Errorf("registry returned no version for %s", name)
	}
	return body.Version, nil
}

func (c *Client) latestActionTag(ctx context.Context, action string) (string, error) {
	owner, repo, ok := strings.Cut(action, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", fmt.Errorf("invalid action %q: expected owner/repo", action)
	}
	endpoint := fmt.Sprintf("%s/repos/%s/%s/tags",
		strings.TrimSuffix(c.GitHubAPIURL, "/"), url.PathEscape(owner), url.PathEscape(repo))

	var tags []struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, endpoint, &tags); err != nil {
		return "", err
	}
	if len(tags) == 0 {
		return "", fmt.Errorf("no tags published for %s", action)
	}
	return MajorTag(tags[0].Name), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v interface{}) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", endpoint, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	return nil
}

// escapePackage escapes the slash of a scoped name ("@types/node" becomes
// "@types%2Fnode"), which is how the npm registry expects it.
func escapePackage(name string) string {
	return strings.Replace(name, "/", "%2F", 1)
}

// MajorTag reduces a version tag to its major component: "v4.1.0" becomes
// "v4". Tags that don't look like versions are returned as-is.
func MajorTag(tag string) string {
	trimmed := strings.TrimPrefix(tag, "v")
	major, _, _ := strings.Cut(trimmed, ".")
	if major == "" || strings.Trim(major, "0123456789") != "" {
		return tag
	}
	return "v" + major
}

// Keys returns the keys of m in no particular order.
func Keys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
