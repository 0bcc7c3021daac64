package crawler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const indexPage = `<html><head><title>Серия</title></head><body>
<div id="menu"><a href="/b/999">not a part</a></div>
<div id="main">
<h1>Хроники Тестового Мира</h1>
<form><input name="q"></form>
1. <a href="/b/101">Начало</a><br>
2. <a href="/b/102">Середина</a> <a href="/a/7">Автор</a><br>
<a href="/b/103">Финал</a><br>
<a href="/b/103/read">читать</a>
</div>
</body></html>`

const detailPageTemplate = `<html><body><div id="main">
<h1>Часть</h1>
<a class="genre" href="/g/sf_fantasy">%s</a>, <a class="genre" href="/g/popadanec">Попаданцы</a>
<h2>Аннотация</h2>
<p>%s</p>
<br>
<h2>Отзывы</h2>
<p>ничего</p>
Добавлена: %s
</div></body></html>`

func detailPage(genre, annotation, added string) string {
	return fmt.Sprintf(detailPageTemplate, genre, annotation, added)
}

// site is a test HTTP server serving fixed pages by path and counting hits.
type site struct {
	*httptest.Server

	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func newSite(t *testing.T, pages map[string]string) *site {
	t.Helper()

	s := &site{pages: pages, hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		body, ok := s.pages[r.URL.Path]
		s.mu.Unlock()

		if !ok {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)

	return s
}

func (s *site) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hits[path]
}
