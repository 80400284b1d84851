package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"cmp-dialogue/internal/logger"
	"cmp-dialogue/internal/retry"
)

const (
	DefaultEndpoint  = "https://lite.duckduckgo.com/lite/"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var ErrEmptyQuery = errors.New("query is empty")

// Searcher returns result URLs for a query.
type Searcher interface {
	Search(ctx context.Context, query string, count, offset int) ([]string, error)
}

// HTTPError reports a non-2xx answer from a remote page or search backend.
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: http %d", e.URL, e.Status)
}

func (e *HTTPError) StatusCode() int {
	return e.Status
}

type DuckDuckGoOptions struct {
	Endpoint  string
	UserAgent string
	// Pacer spaces queries; share one across every client of the endpoint.
	// Nil sends queries unpaced.
	Pacer  *Pacer
	Policy retry.Policy
	Logger logger.Logger
}

// DuckDuckGo scrapes the lite HTML interface.
type DuckDuckGo struct {
	client    *http.Client
	endpoint  string
	userAgent string
	pacer     *Pacer
	policy    retry.Policy
	log       logger.Logger
}

func NewDuckDuckGo(timeout time.Duration, opts DuckDuckGoOptions) *DuckDuckGo {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewDuckDuckGoWithClient(&http.Client{Timeout: timeout}, opts)
}

func NewDuckDuckGoWithClient(client *http.Client, opts DuckDuckGoOptions) *DuckDuckGo {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy = retry.DefaultPolicy()
	}
	opts.Policy.Logger = opts.Logger
	return &DuckDuckGo{
		client:    client,
		endpoint:  opts.Endpoint,
		userAgent: opts.UserAgent,
		pacer:     opts.Pacer,
		policy:    opts.Policy.Named("search"),
		log:       opts.Logger,
	}
}

// Search returns up to count result URLs, skipping the first offset results.
// Throttled or failing requests are retried with backoff.
func (d *DuckDuckGo) Search(ctx context.Context, query string, count, offset int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if count <= 0 {
		count = 5
	}
	if offset < 0 {
		offset = 0
	}

	body, err := retry.Do(ctx, d.policy, func(ctx context.Context) ([]byte, error) {
		if err := d.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		return d.fetchPage(ctx, query, offset)
	}, retry.IsTransientExternal)
	if err != nil {
		return nil, err
	}

	links, err := parseResultLinks(body)
	if err != nil {
		return nil, err
	}
	links = FilterURLs(links)
	if len(links) > count {
		links = links[:count]
	}
	d.log.Debug("search", "duckduckgo results", map[string]interface{}{
		"query": query,
		"count": len(links),
	})
	return links, nil
}

func (d *DuckDuckGo) fetchPage(ctx context.Context, query string, offset int) ([]byte, error) {
	form := url.Values{}
	form.Set("q", query)
	if offset > 0 {
		form.Set("s", strconv.Itoa(offset))
		form.Set("dc", strconv.Itoa(offset+1))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{URL: d.endpoint, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read search response failed: %w", err)
	}
	return body, nil
}

// parseResultLinks collects the targets of result anchors. Pages without
// result-link anchors fall back to every external link on the page.
func parseResultLinks(body []byte) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse search page failed: %w", err)
	}

	var results, external []string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := resolveRedirect(attr(n, "href"))
			if hasClass(n, "result-link") || hasClass(n, "result__a") {
				results = append(results, href)
			} else if isExternal(href) {
				external = append(external, href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	if len(results) > 0 {
		return results, nil
	}
	return external, nil
}

// resolveRedirect unwraps duckduckgo.com/l/?uddg=<target> links.
func resolveRedirect(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func isExternal(href string) bool {
	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return !strings.HasSuffix(u.Hostname(), "duckduckgo.com")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
