package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/wikitutor/internal/wikitext"
)

const (
	DefaultUserAgent     = "wikitutor/1.0 (https://github.com/jackzampolin/wikitutor)"
	DefaultTimeout       = 30 * time.Second
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 500 * time.Millisecond
	DefaultThumbnailSize = 500

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 32 << 20
)

// Config configures a Client. Zero values take the defaults above.
type Config struct {
	APIURL        string
	UserAgent     string
	Timeout       time.Duration
	MaxRetries    int
	RetryDelay    time.Duration
	ThumbnailSize int
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Client talks to one wiki's action API. It is safe for concurrent use.
type Client struct {
	apiURL        string
	userAgent     string
	maxRetries    uint
	retryDelay    time.Duration
	thumbnailSize int
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.ThumbnailSize <= 0 {
		cfg.ThumbnailSize = DefaultThumbnailSize
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		apiURL:        cfg.APIURL,
		userAgent:     cfg.UserAgent,
		maxRetries:    uint(cfg.MaxRetries),
		retryDelay:    cfg.RetryDelay,
		thumbnailSize: cfg.ThumbnailSize,
		httpClient:    cfg.HTTPClient,
		logger:        cfg.Logger.With("component", "wikipedia"),
	}
}

// APIURL returns the endpoint this client is bound to.
func (c *Client) APIURL() string {
	return c.apiURL
}

// Endpoint returns a copy of the client bound to apiURL. An empty apiURL or
// the client's own endpoint returns c unchanged.
func (c *Client) Endpoint(apiURL string) *Client {
	if apiURL == "" || apiURL == c.apiURL {
		return c
	}
	cp := *c
	cp.apiURL = apiURL
	return &cp
}

type queryResponse struct {
	Query struct {
		Pages []struct {
			PageID       int    `json:"pageid"`
			Title        string `json:"title"`
			Missing      bool   `json:"missing"`
			Invalid      bool   `json:"invalid"`
			FullURL      string `json:"fullurl"`
			CanonicalURL string `json:"canonicalurl"`
			Thumbnail    *struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
	Error *apiError `json:"error"`
}

// ResolvePage confirms that title exists, following redirects, and returns
// its canonical identity.
func (c *Client) ResolvePage(ctx context.Context, title string) (*PageMetadata, error) {
	params := url.Values{
		"action":      {"query"},
		"prop":        {"info|pageimages"},
		"inprop":      {"url"},
		"piprop":      {"thumbnail"},
		"pithumbsize": {strconv.Itoa(c.thumbnailSize)},
		"redirects":   {"1"},
		"titles":      {title},
	}

	var resp queryResponse
	if err := c.get(ctx, "resolve", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &UpstreamError{Op: "resolve", Err: resp.Error}
	}
	if len(resp.Query.Pages) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
	}

	page := resp.Query.Pages[0]
	if page.Missing || page.Invalid || page.PageID == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
	}

	meta := &PageMetadata{
		PageID:       page.PageID,
		Title:        page.Title,
		CanonicalURL: page.CanonicalURL,
	}
	if meta.CanonicalURL == "" {
		meta.CanonicalURL = page.FullURL
	}
	if meta.CanonicalURL == "" {
		meta.CanonicalURL = canonicalURL(c.apiURL, page.Title)
	}
	if page.Thumbnail != nil && page.Thumbnail.Source != "" {
		src := page.Thumbnail.Source
		meta.ThumbnailURL = &src
	}
	return meta, nil
}

type parseResponse struct {
	Parse *struct {
		Title    string  `json:"title"`
		PageID   int     `json:"pageid"`
		Wikitext *string `json:"wikitext"`
		Sections []struct {
			Level      string `json:"level"`
			Line       string `json:"line"`
			ByteOffset *int   `json:"byteoffset"`
		} `json:"sections"`
	} `json:"parse"`
	Error *apiError `json:"error"`
}

// FetchArticle retrieves the heading descriptors and raw wikitext of title.
func (c *Client) FetchArticle(ctx context.Context, title string) (*Article, error) {
	params := url.Values{
		"action":    {"parse"},
		"prop":      {"sections|wikitext"},
		"redirects": {"1"},
		"page":      {title},
	}

	var resp parseResponse
	if err := c.get(ctx, "fetch", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		if resp.Error.Code == "missingtitle" || resp.Error.Code == "invalidtitle" {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, title)
		}
		return nil, &UpstreamError{Op: "fetch", Err: resp.Error}
	}
	if resp.Parse == nil || resp.Parse.Wikitext == nil || resp.Parse.Sections == nil {
		return nil, &UpstreamError{Op: "fetch", Err: errors.New("response is missing sections or wikitext")}
	}

	headings := make([]wikitext.HeadingDescriptor, 0, len(resp.Parse.Sections))
	for _, s := range resp.Parse.Sections {
		level, err := strconv.Atoi(s.Level)
		if err != nil || level < 1 {
			c.logger.Warn("skipping heading with bad level", "title", title, "level", s.Level)
			continue
		}
		offset := -1
		if s.ByteOffset != nil {
			offset = *s.ByteOffset
		}
		headings = append(headings, wikitext.HeadingDescriptor{
			Level:      level,
			Title:      plainText(s.Line),
			ByteOffset: offset,
		})
	}

	return &Article{
		Title:    resp.Parse.Title,
		PageID:   resp.Parse.PageID,
		Headings: headings,
		Wikitext: *resp.Parse.Wikitext,
	}, nil
}

// get performs one API call with retries and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, op string, params url.Values, out any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	reqURL := c.apiURL + "?" + params.Encode()

	err := retry.Do(
		func() error {
			return c.do(ctx, op, reqURL, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.maxRetries),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var upErr *UpstreamError
			return errors.As(err, &upErr) && upErr.retryable()
		}),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying wikipedia request", "op", op, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	c.logger.Debug("wikipedia request",
		"op", op,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode body: %w", err)}
	}
	return nil
}

// plainText reduces a heading's HTML rendering to its visible text.
func plainText(line string) string {
	if !strings.ContainsAny(line, "<&") {
		return strings.TrimSpace(line)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(line))
	if err != nil {
		return strings.TrimSpace(line)
	}
	return strings.TrimSpace(doc.Text())
}
