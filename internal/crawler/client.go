package crawler

import (
	"context"
	"fmt"

	"serialsync/internal/logger"
	"serialsync/internal/models"
)

// Client scans publications: the index page first, then every part's detail page.
type Client struct {
	scraper *Scraper
	parser  *Parser
	log     *logger.Logger
}

// NewClient creates a new crawler client with default dependencies.
func NewClient() *Client {
	return NewClientWithDeps(NewScraper(), NewDefaultParser(), logger.Discard())
}

// NewClientWithDeps creates a new crawler client with injected dependencies.
func NewClientWithDeps(scraper *Scraper, parser *Parser, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		scraper: scraper,
		parser:  parser,
		log:     log,
	}
}

// Scraper returns the client's scraper.
func (c *Client) Scraper() *Scraper {
	return c.scraper
}

// Extract fetches a part's detail page and extracts its metadata.
// A returned error means the part's metadata is unknown; it is never fatal for a scan.
func (c *Client) Extract(ctx context.Context, detailURL string) (models.PartFragment, error) {
	content, err := c.scraper.FetchPage(ctx, detailURL)
	if err != nil {
		return models.PartFragment{}, err
	}

	fragment, err := c.parser.ParseDetail(content)
	if err != nil {
		return models.PartFragment{}, fmt.Errorf("failed to parse detail page: %w", err)
	}

	return fragment, nil
}

// Scan enumerates the parts of the publication at indexURL in document order.
// Index transport failures and structure errors abort the scan; part failures do not.
func (c *Client) Scan(ctx context.Context, indexURL string) (*models.Publication, error) {
	resolver, err := NewResolver(indexURL)
	if err != nil {
		return nil, err
	}

	c.log.Info(fmt.Sprintf("⏳ Fetching index %s", indexURL))

	content, err := c.scraper.FetchPage(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index page: %w", err)
	}

	c.log.Info(fmt.Sprintf("✅ Downloaded %d bytes", len(content)))

	page, err := c.parser.ParseIndex(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse index page: %w", err)
	}

	c.log.Info("Found publication", "title", page.Title, "parts", len(page.Links))

	pub := &models.Publication{
		IndexURL: indexURL,
		Title:    page.Title,
		Parts:    make([]models.PartDescriptor, 0, len(page.Links)),
		Tags:     models.NewTagSet(),
	}

	seen := make(map[string]bool, len(page.Links))

	for i, link := range page.Links {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scan interrupted: %w", err)
		}

		if seen[link.Ref] {
			c.log.Debug("Skipping repeated part link", "ref", link.Ref)

			continue
		}

		seen[link.Ref] = true

		part := models.PartDescriptor{
			SourceRef:  link.Ref,
			OrderLabel: link.Label,
			Title:      link.Title,
		}

		c.log.Debug(fmt.Sprintf("Scanning part %d/%d", i+1, len(page.Links)), "ref", link.Ref, "label", link.Label, "title", link.Title)

		fragment, err := c.Extract(ctx, resolver.DetailURL(link.Ref))
		if err != nil {
			c.log.Warn("⚠️  Part metadata unknown, treating as modified", "ref", link.Ref, "error", err)
		} else {
			part.Merge(fragment)
			pub.Tags.Add(fragment.GenreTags...)
		}

		pub.Parts = append(pub.Parts, part)
	}

	return pub, nil
}
