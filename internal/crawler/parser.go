// Package crawler provides page fetching and HTML extraction for publication index and part pages.
package crawler

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"serialsync/internal/config"
	"serialsync/internal/models"
)

// AddedDateLayout is the layout of the "added on" marker date.
const AddedDateLayout = "02.01.2006"

// Structure errors. They are fatal for a scan.
var (
	ErrStructure         = errors.New("unexpected page structure")
	ErrStructureNotFound = fmt.Errorf("%w: primary content container not found", ErrStructure)
	ErrTitleNotFound     = fmt.Errorf("%w: title heading not found", ErrStructure)
)

// PartLink is one part reference found on an index page.
type PartLink struct {
	Ref   string
	Label string
	Title string
}

// IndexPage is the parsed content of a publication index page.
type IndexPage struct {
	Title string
	Links []PartLink
}

// Parser extracts structured fields from publication markup.
type Parser struct {
	partLinkPattern   *regexp.Regexp
	addedPattern      *regexp.Regexp
	containerID       string
	annotationHeading string
	genreSelector     string
}

// NewParser creates a parser for the site described by src.
func NewParser(src config.SourceConfig) (*Parser, error) {
	partPattern, err := regexp.Compile(src.PartLinkPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid part link pattern: %w", err)
	}

	p := &Parser{
		partLinkPattern:   partPattern,
		containerID:       src.ContainerID,
		annotationHeading: src.AnnotationHeading,
		genreSelector:     src.GenreSelector,
	}

	if src.AddedMarkerPattern != "" {
		p.addedPattern, err = regexp.Compile(src.AddedMarkerPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid added marker pattern: %w", err)
		}
	}

	return p, nil
}

// NewDefaultParser creates a parser with the default site settings.
func NewDefaultParser() *Parser {
	p, err := NewParser(config.Default().Source)
	if err != nil {
		panic(err)
	}

	return p
}

// ParseIndex extracts the title and the part links, in document order, from an index page.
func (p *Parser) ParseIndex(markup string) (*IndexPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	container := doc.Find("#" + p.containerID).First()
	if container.Length() == 0 {
		return nil, ErrStructureNotFound
	}

	title := strings.TrimSpace(container.Find("h1").First().Text())
	if title == "" {
		return nil, ErrTitleNotFound
	}

	page := &IndexPage{Title: title}

	container.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !p.partLinkPattern.MatchString(href) {
			return
		}

		page.Links = append(page.Links, PartLink{
			Ref:   href,
			Label: precedingText(a),
			Title: strings.TrimSpace(a.Text()),
		})
	})

	return page, nil
}

// precedingText returns the trimmed text node right before the selection, or "".
func precedingText(s *goquery.Selection) string {
	if len(s.Nodes) == 0 {
		return ""
	}

	prev := s.Nodes[0].PrevSibling
	if prev == nil || prev.Type != html.TextNode {
		return ""
	}

	return strings.TrimSpace(prev.Data)
}

// ParseDetail extracts annotation, genre tags and the added date from a part page.
// Missing sections yield zero values, never errors.
func (p *Parser) ParseDetail(markup string) (models.PartFragment, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return models.PartFragment{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return models.PartFragment{
		Annotation: p.annotation(doc),
		GenreTags:  p.genres(doc),
		ModifiedAt: p.addedOn(doc.Text()),
	}, nil
}

func (p *Parser) annotation(doc *goquery.Document) string {
	if p.annotationHeading == "" {
		return ""
	}

	var heading *goquery.Selection

	doc.Find("h1, h2, h3, h4").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		text := strings.TrimSuffix(strings.TrimSpace(h.Text()), ":")
		if strings.EqualFold(text, p.annotationHeading) {
			heading = h

			return false
		}

		return true
	})

	if heading == nil {
		return ""
	}

	var paragraphs []string

	heading.NextUntil("h1, h2, h3, h4, form, table").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	return strings.Join(paragraphs, "\n")
}

func (p *Parser) genres(doc *goquery.Document) []string {
	if p.genreSelector == "" {
		return nil
	}

	var tags []string

	doc.Find(p.genreSelector).Each(func(_ int, s *goquery.Selection) {
		if tag := strings.TrimSpace(s.Text()); tag != "" {
			tags = append(tags, tag)
		}
	})

	return tags
}

// addedOn finds the "added on DD.MM.YYYY" marker. Unparseable dates count as absent.
func (p *Parser) addedOn(text string) *time.Time {
	if p.addedPattern == nil {
		return nil
	}

	match := p.addedPattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return nil
	}

	t, err := time.Parse(AddedDateLayout, match[1])
	if err != nil {
		return nil
	}

	return &t
}
