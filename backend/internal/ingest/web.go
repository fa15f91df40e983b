package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"truthgraph/backend/internal/models"
	"truthgraph/backend/pkg/logger"
)

// WebFetcher downloads a web page and turns it into a research context
// ready to be attached to a profile.
type WebFetcher struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewWebFetcher() *WebFetcher {
	return &WebFetcher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.Get(),
	}
}

// maxContentLength bounds the extracted text so oversized pages don't bloat
// context nodes
const maxContentLength = 20000

// FetchContext retrieves a URL, extracts its readable text, and wraps it in
// a WEB_RESOURCE research context owned by uploadedBy.
func (f *WebFetcher) FetchContext(ctx context.Context, pageURL, uploadedBy string) (*models.ResearchContext, error) {
	urlStr := pageURL
	if !strings.HasPrefix(urlStr, "http://") && !strings.HasPrefix(urlStr, "https://") {
		urlStr = "https://" + urlStr
	}

	req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", pageURL, err)
	}

	// Set headers to look like a browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlStr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s returned status %d", urlStr, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", urlStr, err)
	}

	title, content := extractReadable(doc)
	if content == "" {
		return nil, fmt.Errorf("no readable content at %s", urlStr)
	}
	if title == "" {
		title = urlStr
	}

	f.logger.Info("Fetched web resource",
		zap.String("url", urlStr),
		zap.String("title", title),
		zap.Int("content_length", len(content)),
	)

	rc, err := models.NewResearchContext(title, models.ContextWebResource, content, uploadedBy)
	if err != nil {
		return nil, err
	}
	rc.Metadata["url"] = urlStr
	rc.Metadata["fetched_at"] = time.Now().UTC().Format(time.RFC3339)
	return rc, nil
}

// extractReadable pulls the page title and body text, skipping boilerplate
// containers like nav bars and script tags.
func extractReadable(doc *goquery.Document) (string, string) {
	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, nav, header, footer, aside, noscript").Remove()

	// Prefer semantic content containers, fall back to the whole body
	root := doc.Find("article, main").First()
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}

	var parts []string
	root.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})

	content := strings.Join(parts, "\n\n")
	if len(content) > maxContentLength {
		content = content[:maxContentLength]
	}
	return title, content
}
