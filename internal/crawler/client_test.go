package crawler

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestClient_Scan(t *testing.T) {
	s := newSite(t, map[string]string{
		"/s/1":   indexPage,
		"/b/101": detailPage("Фэнтези", "Первая аннотация", "01.02.2022"),
		"/b/102": detailPage("Фэнтези", "Вторая аннотация", "not a date"),
		// /b/103 is missing: its metadata stays unknown
	})

	client := NewClient()

	pub, err := client.Scan(context.Background(), s.URL+"/s/1")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if pub.Title != "Хроники Тестового Мира" {
		t.Errorf("Unexpected title: %q", pub.Title)
	}

	if len(pub.Parts) != 3 {
		t.Fatalf("Expected 3 parts, got %d", len(pub.Parts))
	}

	first := pub.Parts[0]
	if !first.MetadataKnown || first.Annotation != "Первая аннотация" || first.ModifiedAt == nil {
		t.Errorf("Unexpected first part: %+v", first)
	}

	second := pub.Parts[1]
	if !second.MetadataKnown || second.ModifiedAt != nil {
		t.Errorf("Expected known metadata without date for second part: %+v", second)
	}

	third := pub.Parts[2]
	if third.MetadataKnown || third.Annotation != "" || third.ModifiedAt != nil {
		t.Errorf("Expected unknown metadata for third part: %+v", third)
	}

	// Genre tags repeat on every part but appear once.
	if !reflect.DeepEqual(pub.Tags.Values(), []string{"Фэнтези", "Попаданцы"}) {
		t.Errorf("Unexpected tags: %v", pub.Tags.Values())
	}

	stats := client.Scraper().Attempts().Stats()
	if stats.Pages != 4 || stats.FailedAttempts != 1 {
		t.Errorf("Unexpected attempt stats: %s", stats)
	}
}

func TestClient_Scan_MissingContainer(t *testing.T) {
	s := newSite(t, map[string]string{
		"/s/1": `<html><body><div id="sidebar"><h1>X</h1><a href="/b/1">1</a></div></body></html>`,
	})

	client := NewClient()

	pub, err := client.Scan(context.Background(), s.URL+"/s/1")
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("Expected structure error, got %v", err)
	}

	if pub != nil {
		t.Errorf("Expected no publication, got %+v", pub)
	}

	if s.hitCount("/b/1") != 0 {
		t.Error("No part page should be fetched after a structure error")
	}
}

func TestClient_Scan_IndexTransportError(t *testing.T) {
	s := newSite(t, map[string]string{})

	_, err := NewClient().Scan(context.Background(), s.URL+"/s/404")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Expected ErrTransport, got %v", err)
	}

	if !errors.Is(err, ErrUnexpectedStatusCode) {
		t.Errorf("Expected ErrUnexpectedStatusCode in chain, got %v", err)
	}
}

func TestClient_Scan_InvalidURL(t *testing.T) {
	_, err := NewClient().Scan(context.Background(), "flibusta.is/s/1")
	if !errors.Is(err, ErrInvalidIndexURL) {
		t.Fatalf("Expected ErrInvalidIndexURL, got %v", err)
	}
}

func TestClient_Scan_DuplicateLinks(t *testing.T) {
	s := newSite(t, map[string]string{
		"/s/1": `<div id="main"><h1>T</h1>1 <a href="/b/5">A</a> again <a href="/b/5">A</a></div>`,
		"/b/5": detailPage("g", "a", "01.01.2020"),
	})

	pub, err := NewClient().Scan(context.Background(), s.URL+"/s/1")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(pub.Parts) != 1 || pub.Parts[0].OrderLabel != "1" {
		t.Errorf("Expected one part with first label, got %+v", pub.Parts)
	}

	if s.hitCount("/b/5") != 1 {
		t.Errorf("Expected one detail fetch, got %d", s.hitCount("/b/5"))
	}
}

func TestClient_Scan_Cancelled(t *testing.T) {
	s := newSite(t, map[string]string{"/s/1": indexPage})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewClient().Scan(ctx, s.URL+"/s/1"); err == nil {
		t.Fatal("Expected error for cancelled context")
	}
}
