package scraper

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/compintel/log"
	"github.com/smallnest/compintel/model"
)

// Source produces a competitor record from some external location.
type Source interface {
	Extract(ctx context.Context, rawURL string) (*model.CompetitorRecord, error)
}

// SourceTag marks records produced by this package in the record's
// provenance list.
const SourceTag = "automated"

const (
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 2 << 20
	defaultUserAgent    = "Mozilla/5.0 (compatible; compintel/1.0)"
	maxListItems        = 12
	maxItemLength       = 80
)

// Options configures an HTTPScraper. Zero values get sensible defaults.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	// Client overrides the default HTTP client; Timeout is ignored then.
	Client *http.Client
	Logger log.Logger
}

// HTTPScraper extracts competitor facts from a public web page.
type HTTPScraper struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	textOnly  *bluemonday.Policy
	logger    log.Logger
}

// NewHTTPScraper creates a scraper with the given options.
func NewHTTPScraper(opts Options) *HTTPScraper {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = &log.NoOpLogger{}
	}
	return &HTTPScraper{
		client:    opts.Client,
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
		textOnly:  bluemonday.StrictPolicy(),
		logger:    opts.Logger,
	}
}

var (
	servicioHeadings    = []string{"service", "servicio", "feature", "solution", "product", "what we do"}
	integracionHeadings = []string{"integration", "integracion", "integración", "works with", "connect"}
	pricePattern        = regexp.MustCompile(`[$€£]\s?(\d+(?:[.,]\d+)?)`)
	periodPattern       = regexp.MustCompile(`(?i)/\s?(mo|month|mes|yr|year|año)\b|per\s+(month|year)`)
)

// Extract fetches rawURL and returns the structured facts found on the
// page. Heuristics that find nothing leave the field empty; only fetch
// and parse failures are errors.
func (s *HTTPScraper) Extract(ctx context.Context, rawURL string) (*model.CompetitorRecord, error) {
	parsed, err := parseURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", parsed.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, parsed.Host)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", parsed.Host, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page from %s: %w", parsed.Host, err)
	}
	doc.Find("script, style, noscript").Remove()

	// Visible text only, with markup and script payloads stripped.
	pageText := html.UnescapeString(s.textOnly.Sanitize(string(body)))

	rec := &model.CompetitorRecord{
		Domain:        strings.TrimPrefix(parsed.Hostname(), "www."),
		URL:           parsed.String(),
		Sources:       []string{SourceTag},
		Name:          s.extractName(doc, parsed),
		Servicios:     extractSectionList(doc, servicioHeadings),
		Integraciones: extractSectionList(doc, integracionHeadings),
		Pricing:       extractPricing(doc, pageText),
	}
	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && strings.TrimSpace(desc) != "" {
		rec.Extra = map[string]any{"description": strings.TrimSpace(desc)}
	}
	rec.Normalize()

	s.logger.Debug("extracted %d services, %d integrations from %s",
		len(rec.Servicios), len(rec.Integraciones), rec.Domain)
	return rec, nil
}

func parseURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("empty URL")
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("URL %q has no host", rawURL)
	}
	return parsed, nil
}

// extractName prefers the Open Graph site name, falls back to the page
// title with taglines cut off, and as a last resort uses the host.
func (s *HTTPScraper) extractName(doc *goquery.Document, parsed *url.URL) string {
	if name, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	for _, sep := range []string{" | ", " - ", " – ", " — ", ": "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
			break
		}
	}
	if title != "" {
		return title
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

// extractSectionList collects list items from sections whose heading
// mentions one of the given keywords.
func extractSectionList(doc *goquery.Document, keywords []string) []string {
	seen := make(map[string]struct{})
	var items []string

	doc.Find("h1, h2, h3, h4").Each(func(_ int, heading *goquery.Selection) {
		text := strings.ToLower(heading.Text())
		if !containsAny(text, keywords) {
			return
		}
		heading.Parent().Find("li").Each(func(_ int, li *goquery.Selection) {
			item := collapseSpace(li.Text())
			if item == "" || len(item) > maxItemLength {
				return
			}
			key := strings.ToLower(item)
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
			items = append(items, item)
		})
	})

	if len(items) > maxListItems {
		items = items[:maxListItems]
	}
	return items
}

// extractPricing reports explicit pricing when the visible text carries
// currency amounts, and names the priced plans from plan-card headings.
func extractPricing(doc *goquery.Document, pageText string) *model.Pricing {
	if !pricePattern.MatchString(pageText) {
		return nil
	}
	pricing := &model.Pricing{HasExplicitPricing: true}

	doc.Find(`[class*="pricing"], [class*="plan"], [id*="pricing"]`).Each(func(_ int, card *goquery.Selection) {
		name := collapseSpace(card.Find("h2, h3, h4").First().Text())
		cardText := card.Text()
		match := pricePattern.FindStringSubmatch(cardText)
		if name == "" || match == nil {
			return
		}
		for _, existing := range pricing.Products {
			if strings.EqualFold(existing.Name, name) {
				return
			}
		}
		product := model.Product{
			Name:     name,
			Currency: currencySymbol(match[0]),
		}
		if price, err := strconv.ParseFloat(strings.ReplaceAll(match[1], ",", "."), 64); err == nil {
			product.Price = price
		}
		if period := periodPattern.FindString(cardText); period != "" {
			product.Period = normalizePeriod(period)
		}
		pricing.Products = append(pricing.Products, product)
	})

	return pricing
}

func currencySymbol(match string) string {
	switch {
	case strings.HasPrefix(match, "$"):
		return "USD"
	case strings.HasPrefix(match, "€"):
		return "EUR"
	case strings.HasPrefix(match, "£"):
		return "GBP"
	default:
		return ""
	}
}

func normalizePeriod(period string) string {
	lower := strings.ToLower(period)
	if strings.Contains(lower, "y") || strings.Contains(lower, "año") {
		return "year"
	}
	return "month"
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func collapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
