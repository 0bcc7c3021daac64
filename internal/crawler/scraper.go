package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"serialsync/internal/config"
)

// Transport errors.
var (
	ErrTransport            = errors.New("transport error")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
)

// Scraper performs the network reads of a sync run. It never retries.
type Scraper struct {
	client    *http.Client
	attempts  *AttemptLog
	userAgent string
	pageLimit int64
}

// NewScraper creates a new scraper instance with default config.
func NewScraper() *Scraper {
	return NewScraperWithConfig(config.Default().HTTP, NewAttemptLog())
}

// NewScraperWithConfig creates a scraper from the HTTP settings, recording every call in attempts.
func NewScraperWithConfig(cfg config.HTTPConfig, attempts *AttemptLog) *Scraper {
	if attempts == nil {
		attempts = NewAttemptLog()
	}

	return &Scraper{
		client: &http.Client{
			Timeout: cfg.GetTimeout(),
		},
		attempts:  attempts,
		userAgent: cfg.UserAgent,
		pageLimit: cfg.GetPageLimit(),
	}
}

// Attempts returns the log of network calls made by this scraper.
func (s *Scraper) Attempts() *AttemptLog {
	return s.attempts
}

func (s *Scraper) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	req.Header.Set("Accept", accept)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()

		return resp, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	return resp, nil
}

// FetchPage fetches an HTML page and returns it decoded to UTF-8.
func (s *Scraper) FetchPage(ctx context.Context, url string) (string, error) {
	startTime := time.Now()

	content, statusCode, err := s.fetchPage(ctx, url)
	s.attempts.Record(KindPage, url, statusCode, int64(len(content)), time.Since(startTime), err)

	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrTransport, url, err)
	}

	return content, nil
}

func (s *Scraper) fetchPage(ctx context.Context, url string) (string, int, error) {
	resp, err := s.get(ctx, url, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		if resp != nil {
			return "", resp.StatusCode, err
		}

		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.pageLimit))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	content, err := decodePage(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", resp.StatusCode, err
	}

	return content, resp.StatusCode, nil
}

// Download streams the resource at url into w and returns the number of bytes written.
func (s *Scraper) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	startTime := time.Now()

	written, statusCode, err := s.download(ctx, url, w)
	s.attempts.Record(KindDownload, url, statusCode, written, time.Since(startTime), err)

	if err != nil {
		return written, fmt.Errorf("%w: %s: %w", ErrTransport, url, err)
	}

	return written, nil
}

func (s *Scraper) download(ctx context.Context, url string, w io.Writer) (int64, int, error) {
	resp, err := s.get(ctx, url, "*/*")
	if err != nil {
		if resp != nil {
			return 0, resp.StatusCode, err
		}

		return 0, 0, err
	}
	defer resp.Body.Close()

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, resp.StatusCode, fmt.Errorf("failed to stream response body: %w", err)
	}

	return written, resp.StatusCode, nil
}

// decodePage converts body to UTF-8 using the declared or sniffed charset.
func decodePage(body []byte, contentType string) (string, error) {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" {
		return string(body), nil
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s page: %w", name, err)
	}

	return string(decoded), nil
}
