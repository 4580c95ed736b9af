// Package wikipedia is a small client for the MediaWiki action API: page
// resolution (title, canonical URL, thumbnail) and parsed article retrieval
// (heading descriptors plus raw wikitext).
package wikipedia

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/jackzampolin/wikitutor/internal/wikitext"
)

// DefaultAPIURL is the English Wikipedia action API endpoint.
const DefaultAPIURL = "https://en.wikipedia.org/w/api.php"

// ErrInvalidURL is returned by ParsePageURL for unusable article URLs.
var ErrInvalidURL = errors.New("invalid article URL")

// PageReference is an article URL together with the values derived from it.
type PageReference struct {
	URL    string
	Title  string
	APIURL string
}

// PageMetadata is the confirmed identity of a page after redirects and
// title normalization.
type PageMetadata struct {
	PageID       int     `json:"pageId" yaml:"page_id"`
	Title        string  `json:"title" yaml:"title"`
	CanonicalURL string  `json:"canonicalUrl" yaml:"canonical_url"`
	ThumbnailURL *string `json:"thumbnailUrl" yaml:"thumbnail_url"`
}

// Article is the parsed content of a page.
type Article struct {
	Title    string                       `json:"title" yaml:"title"`
	PageID   int                          `json:"pageId" yaml:"page_id"`
	Headings []wikitext.HeadingDescriptor `json:"headings" yaml:"headings"`
	Wikitext string                       `json:"-" yaml:"-"`
}

// ParsePageURL validates an article URL and derives the page title and the
// API endpoint of the wiki it belongs to.
//
// Supported forms are /wiki/<Title> (titles may contain slashes),
// index.php?title=<Title>, and any other path whose last segment is the
// title. Language editions and mobile hosts of wikipedia.org map to their
// own API endpoint; other hosts use DefaultAPIURL.
func ParsePageURL(raw string) (PageReference, error) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return PageReference{}, fmt.Errorf("%w: must start with http:// or https://", ErrInvalidURL)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return PageReference{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return PageReference{}, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	title, err := titleFromURL(u)
	if err != nil {
		return PageReference{}, err
	}
	if strings.TrimSpace(title) == "" {
		return PageReference{}, fmt.Errorf("%w: could not extract page title", ErrInvalidURL)
	}

	return PageReference{
		URL:    raw,
		Title:  title,
		APIURL: apiURLForHost(u.Hostname()),
	}, nil
}

func titleFromURL(u *url.URL) (string, error) {
	if t := u.Query().Get("title"); t != "" && path.Base(u.Path) == "index.php" {
		return t, nil
	}

	escaped := u.EscapedPath()
	var segment string
	if rest, ok := strings.CutPrefix(escaped, "/wiki/"); ok {
		segment = rest
	} else {
		segment = escaped[strings.LastIndex(escaped, "/")+1:]
	}

	title, err := url.PathUnescape(segment)
	if err != nil {
		return "", fmt.Errorf("%w: bad title encoding: %v", ErrInvalidURL, err)
	}
	return title, nil
}

func apiURLForHost(host string) string {
	host = strings.ToLower(host)
	if !strings.HasSuffix(host, ".wikipedia.org") {
		return DefaultAPIURL
	}
	lang := strings.TrimSuffix(host, ".wikipedia.org")
	lang = strings.TrimSuffix(lang, ".m")
	if lang == "" || lang == "www" || strings.Contains(lang, ".") {
		return DefaultAPIURL
	}
	return "https://" + lang + ".wikipedia.org/w/api.php"
}

// canonicalURL builds a /wiki/ URL for title on the wiki served by apiURL.
func canonicalURL(apiURL, title string) string {
	base := strings.TrimSuffix(apiURL, "/w/api.php")
	return base + "/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}
