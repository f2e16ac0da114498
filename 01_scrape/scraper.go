// Package scrape extracts structured product data from a listing page.
package scrape

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"product-reel-pipeline/config"
	"product-reel-pipeline/types"
)

var defaultURLPatterns = []string{
	`https?://.*coupang\.com/vp/products/\d+`,
	`https?://.*coupang\.com/np/search`,
}

var nonPrice = regexp.MustCompile(`[^\d,]`)
var nonDigit = regexp.MustCompile(`[^\d]`)

// Scraper fetches and parses product listing pages
type Scraper struct {
	cfg         *config.Config
	httpClient  *http.Client
	urlPatterns []*regexp.Regexp
}

// New creates a new Scraper
func New(cfg *config.Config) *Scraper {
	patterns := cfg.Scrape.URLPattern
	if len(patterns) == 0 {
		patterns = defaultURLPatterns
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
		}
	}
	return &Scraper{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: time.Duration(cfg.Scrape.TimeoutSec) * time.Second},
		urlPatterns: compiled,
	}
}

// Extract pulls the product record out of the page at productURL
func (s *Scraper) Extract(ctx context.Context, productURL string) (*types.ProductInfo, error) {
	if !s.validURL(productURL) {
		return nil, fmt.Errorf("not a recognized product URL: %s", productURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, productURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent())
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.8,en-US;q=0.5,en;q=0.3")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch product page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse product page: %w", err)
	}

	info := s.parse(doc, productURL)
	if info.Title == "" {
		return nil, fmt.Errorf("no product title found on page")
	}

	log.Printf("[scrape] ✅ Product extracted: %q (price: %s, rating: %s)", info.Title, info.Price, info.Rating)
	return info, nil
}

// parse walks the selector fallback chains for every field. Each chain
// is ordered most-specific first; the first match wins.
func (s *Scraper) parse(doc *goquery.Document, productURL string) *types.ProductInfo {
	return &types.ProductInfo{
		Title: firstText(doc,
			"h1.prod-buy-header__title",
			".prod-title",
			`h1[class*="title"]`,
		),
		Price: cleanPrice(firstText(doc,
			".total-price strong",
			".price-value",
			`[class*="price"] strong`,
		)),
		OriginalPrice: cleanPrice(firstText(doc,
			".origin-price",
			".base-price",
			`[class*="original-price"]`,
		)),
		Rating: firstText(doc,
			".rating-star-num",
			".prod-rating-score",
			`[class*="rating"] span`,
		),
		ReviewCount: cleanCount(firstText(doc,
			".rating-total-count",
			".prod-rating-count",
			`[class*="review-count"]`,
		)),
		Description: truncate(firstText(doc,
			".prod-description",
			".product-detail",
			`[class*="description"]`,
		), 500),
		ImageURLs: s.extractImages(doc),
		SourceURL: productURL,
	}
}

// extractImages collects up to MaxImages unique absolute image URLs in
// document order
func (s *Scraper) extractImages(doc *goquery.Document) []string {
	selectors := []string{
		".prod-image__detail img",
		".product-image img",
		`[class*="image"] img`,
	}

	seen := make(map[string]bool)
	var images []string
	for _, sel := range selectors {
		doc.Find(sel).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src, ok := img.Attr("src")
			if !ok || src == "" {
				src, _ = img.Attr("data-src")
			}
			if strings.HasPrefix(src, "http") && !seen[src] {
				seen[src] = true
				images = append(images, src)
			}
			return len(images) < s.cfg.Scrape.MaxImages
		})
		if len(images) >= s.cfg.Scrape.MaxImages {
			break
		}
	}
	return images
}

func (s *Scraper) validURL(u string) bool {
	for _, re := range s.urlPatterns {
		if re.MatchString(u) {
			return true
		}
	}
	return false
}

func (s *Scraper) userAgent() string {
	if ua := s.cfg.Scrape.UserAgent; ua != "" {
		return ua
	}
	return "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			if text := strings.TrimSpace(el.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

func cleanPrice(s string) string {
	return nonPrice.ReplaceAllString(s, "")
}

func cleanCount(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
