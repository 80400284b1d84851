package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"cmp-dialogue/internal/logger"
	"cmp-dialogue/internal/pkg/pdfextract"
	"cmp-dialogue/internal/retry"
)

const (
	// HTML beyond this is dropped; the parser copes with a cut-off page.
	maxBodyBytes = 2 << 20
	// A cut-off PDF cannot be parsed, so larger documents are refused.
	maxPDFBytes = 32 << 20
)

var ErrBodyTooLarge = errors.New("response body too large")

type FetcherOptions struct {
	UserAgent string
	Workers   int
	Policy    retry.Policy
	Logger    logger.Logger
}

// Fetcher downloads pages and reduces them to their readable text.
type Fetcher struct {
	client    *http.Client
	userAgent string
	workers   int
	policy    retry.Policy
	log       logger.Logger
}

func NewFetcher(timeout time.Duration, opts FetcherOptions) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return NewFetcherWithClient(&http.Client{Timeout: timeout}, opts)
}

func NewFetcherWithClient(client *http.Client, opts FetcherOptions) *Fetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy = retry.DefaultPolicy()
	}
	opts.Policy.Logger = opts.Logger
	return &Fetcher{
		client:    client,
		userAgent: opts.UserAgent,
		workers:   opts.Workers,
		policy:    opts.Policy.Named("fetch"),
		log:       opts.Logger,
	}
}

type page struct {
	body []byte
	pdf  bool
}

// Fetch returns the main text of the page at rawURL. ok is false when the
// page was retrieved but yielded no text. Timeouts, throttling and server
// errors are retried.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, bool, error) {
	p, err := retry.Do(ctx, f.policy, func(ctx context.Context) (page, error) {
		return f.download(ctx, rawURL)
	}, retry.IsTransientExternal)
	if err != nil {
		return "", false, err
	}

	var text string
	if p.pdf {
		text, err = pdfextract.ExtractText(bytes.NewReader(p.body))
		if err != nil {
			return "", false, fmt.Errorf("extract pdf text failed: %w", err)
		}
		text = strings.TrimSpace(text)
	} else {
		text, err = MainText(p.body)
		if err != nil {
			return "", false, err
		}
	}
	return text, text != "", nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return page{}, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return page{}, &HTTPError{URL: rawURL, Status: resp.StatusCode}
	}

	if !isPDF(resp.Header.Get("Content-Type"), rawURL) {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return page{}, fmt.Errorf("read %s failed: %w", rawURL, err)
		}
		return page{body: body}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes+1))
	if err != nil {
		return page{}, fmt.Errorf("read %s failed: %w", rawURL, err)
	}
	if len(body) > maxPDFBytes {
		return page{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, rawURL, maxPDFBytes)
	}
	return page{body: body, pdf: true}, nil
}

// FetchAll fetches urls concurrently. The result is index-aligned with urls;
// an entry is nil when its page failed or had no text.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []*string {
	results := make([]*string, len(urls))
	sem := make(chan struct{}, f.workers)
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			text, ok, err := f.Fetch(ctx, u)
			if err != nil {
				f.log.Warn("search", "fetch content failed", map[string]interface{}{
					"url":   u,
					"error": err,
				})
				return
			}
			if ok {
				results[i] = &text
			}
		}(i, u)
	}
	wg.Wait()
	return results
}

func isPDF(contentType, rawURL string) bool {
	if strings.Contains(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	path := rawURL
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.HasSuffix(strings.ToLower(path), ".pdf")
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"nav": true, "header": true, "footer": true, "aside": true,
	"form": true, "button": true, "svg": true, "iframe": true, "select": true,
}

var blockElements = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "pre": true, "blockquote": true, "td": true, "th": true,
	"dd": true, "dt": true, "figcaption": true, "caption": true,
}

// MainText extracts readable paragraphs from an HTML document, preferring the
// largest <article> or <main> region when the page has one.
func MainText(body []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html failed: %w", err)
	}

	root := doc
	best := 0
	var findRegion func(*html.Node)
	findRegion = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "article" || n.Data == "main") {
			if l := len(collapse(textOf(n))); l > best {
				best = l
				root = n
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findRegion(c)
		}
	}
	findRegion(doc)

	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skippedElements[n.Data] {
				return
			}
			if blockElements[n.Data] {
				if t := collapse(textOf(n)); t != "" {
					blocks = append(blocks, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(blocks) == 0 {
		return collapse(textOf(root)), nil
	}
	return strings.Join(blocks, "\n"), nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.ElementNode && skippedElements[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteByte(' ')
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
