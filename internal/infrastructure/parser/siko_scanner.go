package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"AuctionMonitor/internal/domain"
	"AuctionMonitor/internal/scanner"
)

const (
	defaultBaseURL    = "https://sikoauktioner.se"
	defaultMaxResults = 100
)

// SikoScanner crawls sikoauktioner.se search result pages and extracts the
// auctions matching one search term.
type SikoScanner struct {
	client    *http.Client
	baseURL   string
	userAgent string
	logger    *slog.Logger
}

// NewSikoScanner wires an HTTP client; baseURL defaults to the live site.
func NewSikoScanner(client *http.Client, baseURL, userAgent string, log *slog.Logger) *SikoScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; AuctionMonitor/1.0)"
	}
	return &SikoScanner{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), userAgent: userAgent, logger: log}
}

// Name identifies the strategy inside the registry.
func (s *SikoScanner) Name() string {
	return "siko"
}

// Search walks result pages for the term until a page comes back empty or
// the result cap is reached.
func (s *SikoScanner) Search(ctx context.Context, req scanner.Request) ([]domain.Auction, error) {
	term := strings.TrimSpace(req.Term)
	if term == "" {
		return nil, fmt.Errorf("empty search term")
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	results := make([]domain.Auction, 0)
	seen := map[string]struct{}{}
	fetchedAt := time.Now()

	for page := 1; len(results) < maxResults; page++ {
		pageURL, err := s.buildSearchURL(term, page)
		if err != nil {
			return nil, fmt.Errorf("term %q: %w", term, err)
		}

		doc, err := s.fetchDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("term %q page %d: %w", term, page, err)
		}

		auctions := s.extractAuctions(doc, term, fetchedAt)
		if len(auctions) == 0 {
			break
		}

		added := 0
		for _, auction := range auctions {
			key := auction.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			results = append(results, auction)
			added++
			if len(results) >= maxResults {
				break
			}
		}
		// A page of nothing but repeats means pagination looped back.
		if added == 0 {
			break
		}
	}

	s.debug("search done", "term", term, "count", len(results))
	return results, nil
}

func (s *SikoScanner) buildSearchURL(term string, page int) (string, error) {
	parsed, err := url.Parse(s.baseURL + "/auktioner")
	if err != nil {
		return "", fmt.Errorf("invalid base url %s: %w", s.baseURL, err)
	}

	query := parsed.Query()
	query.Set("search", term)
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (s *SikoScanner) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "sv-SE,sv;q=0.9,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sikoauktioner returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (s *SikoScanner) extractAuctions(doc *goquery.Document, term string, fetchedAt time.Time) []domain.Auction {
	var collected []domain.Auction

	doc.Find(".auction-card, .auction-item, .lot").Each(func(i int, card *goquery.Selection) {
		auction, err := s.parseCard(card, term, fetchedAt)
		if err != nil {
			s.debug("skip card", "index", i, "error", err)
			return
		}
		collected = append(collected, auction)
	})

	return collected
}

func (s *SikoScanner) parseCard(card *goquery.Selection, term string, fetchedAt time.Time) (domain.Auction, error) {
	link := card.Find("a[href*=\"/auktion/\"]").First()
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return domain.Auction{}, fmt.Errorf("card has no auction link")
	}
	if !strings.HasPrefix(href, "http") {
		href = s.baseURL + "/" + strings.TrimPrefix(href, "/")
	}

	title := firstText(card, ".auction-title, .lot-title, h3, h2")
	if title == "" {
		title = strings.TrimSpace(link.Text())
	}
	if title == "" {
		return domain.Auction{}, fmt.Errorf("card %s has no title", href)
	}

	timeLeft := firstText(card, ".time-left, .countdown, .auction-countdown")
	imageURL, _ := card.Find("img").First().Attr("src")
	if imageURL != "" && !strings.HasPrefix(imageURL, "http") {
		imageURL = s.baseURL + "/" + strings.TrimPrefix(imageURL, "/")
	}

	return domain.Auction{
		ID:               extractAuctionID(href),
		URL:              href,
		Title:            title,
		Description:      firstText(card, ".description, .auction-description"),
		Location:         firstText(card, ".location, .auction-location"),
		CurrentBid:       firstText(card, ".current-bid, .bid, .auction-bid"),
		ReservePrice:     firstText(card, ".reserve-price, .reserve"),
		TimeLeftText:     timeLeft,
		MinutesRemaining: ParseTimeLeft(timeLeft),
		ImageURL:         imageURL,
		MatchedTerm:      term,
		FetchedAt:        fetchedAt,
	}, nil
}

// firstText tries a comma-separated selector list and returns the first
// non-empty trimmed text. The site's markup shifts between layouts, so each
// field carries a couple of candidates.
func firstText(sel *goquery.Selection, selectors string) string {
	for _, candidate := range strings.Split(selectors, ",") {
		text := strings.TrimSpace(sel.Find(strings.TrimSpace(candidate)).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// extractAuctionID pulls the numeric id out of an auction URL, falling back
// to the last path segment, then the URL itself.
func extractAuctionID(auctionURL string) string {
	trimmed := strings.TrimSuffix(auctionURL, "/")
	parts := strings.Split(trimmed, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" && isDigits(parts[i]) {
			return parts[i]
		}
	}
	if last := parts[len(parts)-1]; last != "" {
		return last
	}
	return auctionURL
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func (s *SikoScanner) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
