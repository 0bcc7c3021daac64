package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidIndexURL indicates an index URL that is not an absolute http(s) URL.
var ErrInvalidIndexURL = errors.New("index URL must be an absolute http(s) URL")

// Resolver turns part references into URLs on the publication's host.
type Resolver struct {
	base *url.URL
}

// NewResolver creates a resolver for the host of indexURL.
func NewResolver(indexURL string) (*Resolver, error) {
	u, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndexURL, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidIndexURL, indexURL)
	}

	return &Resolver{base: &url.URL{Scheme: u.Scheme, Host: u.Host}}, nil
}

// Host returns scheme and host, e.g. "https://flibusta.is".
func (r *Resolver) Host() string {
	return r.base.String()
}

// Resolve returns the absolute URL of ref.
func (r *Resolver) Resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return r.Host() + ref
	}

	return r.base.ResolveReference(u).String()
}

// DetailURL returns the URL of a part's detail page.
func (r *Resolver) DetailURL(ref string) string {
	return r.Resolve(ref)
}

// DownloadURL returns the URL of a part's file in the given format.
func (r *Resolver) DownloadURL(ref, format string) string {
	return r.Resolve(strings.TrimRight(ref, "/") + "/" + format)
}
