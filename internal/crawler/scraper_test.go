package crawler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"serialsync/internal/config"
)

func TestScraper_FetchPage_DecodesCharset(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String("<html><body><h2>Аннотация</h2></body></html>")
	if err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1251")
		_, _ = w.Write([]byte(encoded))
	}))
	defer server.Close()

	content, err := NewScraper().FetchPage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if !bytes.Contains([]byte(content), []byte("Аннотация")) {
		t.Errorf("Expected decoded Cyrillic text, got %q", content)
	}
}

func TestScraper_FetchPage_LimitsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(bytes.Repeat([]byte("a"), 4096))
	}))
	defer server.Close()

	cfg := config.Default().HTTP
	cfg.MaxPageKb = 1

	content, err := NewScraperWithConfig(cfg, nil).FetchPage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if len(content) != 1024 {
		t.Errorf("Expected 1024 bytes, got %d", len(content))
	}
}

func TestScraper_Download(t *testing.T) {
	payload := bytes.Repeat([]byte{0x50, 0x4b, 0x03, 0x04}, 5000)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("Expected a User-Agent header")
		}

		w.Header().Set("Content-Type", "application/epub+zip")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	scraper := NewScraper()

	var buf bytes.Buffer

	n, err := scraper.Download(context.Background(), server.URL+"/b/1/epub", &buf)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	if n != int64(len(payload)) || !bytes.Equal(buf.Bytes(), payload) {
		t.Errorf("Downloaded %d bytes, want %d", n, len(payload))
	}

	if scraper.Attempts().Count(KindDownload) != 1 {
		t.Errorf("Expected one download attempt, got %d", scraper.Attempts().Count(KindDownload))
	}
}

func TestScraper_Download_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	scraper := NewScraper()

	var buf bytes.Buffer

	_, err := scraper.Download(context.Background(), server.URL, &buf)
	if !errors.Is(err, ErrTransport) || !errors.Is(err, ErrUnexpectedStatusCode) {
		t.Fatalf("Expected transport status error, got %v", err)
	}

	results := scraper.Attempts().Results()
	if len(results) != 1 || results[0].Success || results[0].StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Unexpected attempt record: %+v", results)
	}

	if buf.Len() != 0 {
		t.Errorf("Expected nothing written, got %d bytes", buf.Len())
	}
}

func TestAttemptLog_Stats(t *testing.T) {
	log := NewAttemptLog()
	log.Record(KindPage, "http://x/s/1", 200, 100, 0, nil)
	log.Record(KindDownload, "http://x/b/1/epub", 200, 1000, 0, nil)
	log.Record(KindDownload, "http://x/b/2/epub", 0, 0, 0, errors.New("refused"))

	stats := log.Stats()
	if stats.TotalAttempts != 3 || stats.Pages != 1 || stats.Downloads != 2 {
		t.Errorf("Unexpected counts: %s", stats)
	}

	if stats.FailedAttempts != 1 || stats.TotalBytes != 1100 {
		t.Errorf("Unexpected outcome counts: %s", stats)
	}

	log.Reset()

	if log.Stats().TotalAttempts != 0 {
		t.Error("Expected empty log after Reset")
	}
}

func TestResolver(t *testing.T) {
	r, err := NewResolver("https://flibusta.is/s/65539?page=2")
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	if r.Host() != "https://flibusta.is" {
		t.Errorf("Host() = %s", r.Host())
	}

	if got := r.DetailURL("/b/123"); got != "https://flibusta.is/b/123" {
		t.Errorf("DetailURL() = %s", got)
	}

	if got := r.DownloadURL("/b/123", "epub"); got != "https://flibusta.is/b/123/epub" {
		t.Errorf("DownloadURL() = %s", got)
	}

	if _, err := NewResolver("ftp://flibusta.is/s/1"); !errors.Is(err, ErrInvalidIndexURL) {
		t.Errorf("Expected ErrInvalidIndexURL for ftp scheme, got %v", err)
	}
}
