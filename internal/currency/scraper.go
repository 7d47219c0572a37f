package currency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// RateBlockClass is the class attribute of the search result block holding the rate.
const RateBlockClass = "BNeawe iBp4i AP7Wnd"

const maxPageSize = 4 << 20

// ErrRateNotFound means the page did not contain a recognisable rate.
var ErrRateNotFound = errors.New("rate not found on search page")

// RateSource returns how many rubles one unit of code is worth.
type RateSource interface {
	Rate(ctx context.Context, code string) (float64, error)
}

// SearchScraper reads rates from a search engine's plain HTML results page.
// The page is not a documented API; a markup change shows up as ErrRateNotFound.
type SearchScraper struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// NewSearchScraper returns a scraper querying <baseURL>/search?q=<code>+to+rub.
func NewSearchScraper(client *http.Client, baseURL, userAgent string) *SearchScraper {
	if client == nil {
		client = http.DefaultClient
	}
	return &SearchScraper{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

// SearchURL builds the query URL for code.
func (s *SearchScraper) SearchURL(code string) string {
	return s.baseURL + "/search?q=" + url.QueryEscape(strings.ToLower(code)+" to "+RUB)
}

func (s *SearchScraper) Rate(ctx context.Context, code string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.SearchURL(code), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create rate request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch rate page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code %d from rate page", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return 0, fmt.Errorf("failed to parse rate page: %w", err)
	}
	return ExtractRate(doc)
}

// ExtractRate finds the first rate block in doc and parses the number that
// starts the second line of its text.
func ExtractRate(doc *html.Node) (float64, error) {
	block := findByClass(doc, "div", RateBlockClass)
	if block == nil {
		return 0, ErrRateNotFound
	}

	lines := strings.Split(textContent(block), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("%w: rate block has %d line(s)", ErrRateNotFound, len(lines))
	}

	fields := strings.Fields(lines[1])
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty rate line", ErrRateNotFound)
	}
	return parseRate(fields[0])
}

func parseRate(raw string) (float64, error) {
	raw = strings.ReplaceAll(raw, " ", "")
	if strings.Contains(raw, ",") && !strings.Contains(raw, ".") {
		raw = strings.ReplaceAll(raw, ",", ".")
	} else {
		raw = strings.ReplaceAll(raw, ",", "")
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRateNotFound, err)
	}
	return rate, nil
}

func findByClass(n *html.Node, tag, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		for _, a := range n.Attr {
			if a.Key == "class" && a.Val == class {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
