package jd

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jdscraper/pkg/extract"
)

// Selectors into the search results grid. The grid is a flat list of
// items under #J_goodsList, each holding positional child blocks for
// image, price, name, comment count, and shop.
const (
	selectorNames    = "#J_goodsList > ul > li > div > div:nth-of-type(3) > a > em"
	selectorPrices   = "#J_goodsList > ul > li > div > div:nth-of-type(2) > strong > i"
	selectorDetails  = "#J_goodsList > ul > li > div > div:nth-of-type(1) > a"
	selectorComments = "#J_goodsList > ul > li > div > div:nth-of-type(4) > strong > a"
	selectorShops    = "#J_goodsList > ul > li > div > div:nth-of-type(5) > span > a"
	selectorImages   = "#J_goodsList > ul > li > div > div:nth-of-type(1) > a > img"

	// LoadMoreSelector is the "load the rest of the page" affordance
	// that appears after the first thirty items.
	LoadMoreSelector = "#J_scroll_loading span a"
)

// ParseListings extracts the six parallel field sequences from a
// rendered search results page. It satisfies extract.Func.
//
// Each sequence is gathered by its own selector pass rather than
// per item, so a partially rendered item shortens only the sequences
// it is missing from. Cardinality checks downstream rely on that to
// detect corrupt snapshots.
func ParseListings(html string) (*extract.Fields, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing markup: %w", err)
	}

	fields := extract.Empty()

	doc.Find(selectorNames).Each(func(_ int, s *goquery.Selection) {
		fields.Names = append(fields.Names, extract.SanitizeName(s.Text()))
	})

	doc.Find(selectorPrices).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			fields.Prices = append(fields.Prices, text)
		}
	})

	doc.Find(selectorDetails).Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			fields.DetailURLs = append(fields.DetailURLs, absoluteURL(href))
		}
	})

	doc.Find(selectorComments).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			fields.Comments = append(fields.Comments, text)
		}
	})

	doc.Find(selectorShops).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			fields.Shops = append(fields.Shops, text)
		}
	})

	doc.Find(selectorImages).Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			// Items below the fold keep their real source in a lazy
			// loading attribute until scrolled into view.
			src, ok = s.Attr("data-lazy-img")
		}
		if ok && src != "" && src != "done" {
			fields.ImageURLs = append(fields.ImageURLs, absoluteURL(src))
		}
	})

	return fields, nil
}

// absoluteURL upgrades the storefront's scheme-relative references.
func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
