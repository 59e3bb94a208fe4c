// Legacy single-page harvester, kept for quick one-off grabs. It pulls
// one search results page over plain HTTP with a cookies.json session,
// which yields only the items rendered before any scrolling. The full
// crawler lives in cmd/jdscraper.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const searchEndpoint = "https://search.jd.com/Search"

type Cookie struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}

type Listing struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	URL      string `json:"url"`
	Comment  string `json:"comment"`
	Shop     string `json:"shop"`
	ImageURL string `json:"img_url"`
}

func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: go run main.go <keyword>")
		return
	}

	keyword := os.Args[1]
	fmt.Printf("Fetching first results page for: %s\n", keyword)

	outputDir := fmt.Sprintf("%s_listings", strings.ReplaceAll(keyword, " ", "_"))
	fmt.Printf("Creating output directory: %s\n", outputDir)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("Error creating directory: %v\n", err)
		return
	}

	cookieHeader, err := loadCookieHeader("cookies.json")
	if err != nil {
		fmt.Printf("Error loading cookies.json: %v\n", err)
		fmt.Println("Export your session cookies to cookies.json first.")
		return
	}

	pageURL := fmt.Sprintf("%s?keyword=%s&page=1", searchEndpoint, url.QueryEscape(keyword))
	body, err := fetchPage(pageURL, cookieHeader)
	if err != nil {
		fmt.Printf("Error fetching page: %v\n", err)
		return
	}

	if strings.Contains(body, "passport.jd.com") {
		fmt.Println("Got bounced to the login wall. Refresh your cookies.json.")
		return
	}

	listings, err := parsePage(body)
	if err != nil {
		fmt.Printf("Error parsing page: %v\n", err)
		return
	}
	if len(listings) == 0 {
		fmt.Println("No listings found on the page.")
		return
	}
	fmt.Printf("Found %d listings\n", len(listings))

	data, err := json.MarshalIndent(listings, "", "  ")
	if err != nil {
		fmt.Printf("Error encoding listings: %v\n", err)
		return
	}
	listingsPath := filepath.Join(outputDir, "listings.json")
	if err := os.WriteFile(listingsPath, data, 0644); err != nil {
		fmt.Printf("Error writing listings: %v\n", err)
		return
	}
	fmt.Printf("Saved listings to %s\n", listingsPath)

	downloaded := 0
	for i, listing := range listings {
		if listing.ImageURL == "" {
			continue
		}

		filename := fmt.Sprintf("%03d.jpg", i+1)
		path := filepath.Join(outputDir, filename)
		fmt.Printf("Downloading image %d/%d: %s\n", i+1, len(listings), filename)

		var lastErr error
		for attempt := 1; attempt <= 3; attempt++ {
			if lastErr = downloadImage(listing.ImageURL, path, cookieHeader); lastErr == nil {
				downloaded++
				break
			}
			fmt.Printf("  Attempt %d failed: %v\n", attempt, lastErr)
			time.Sleep(time.Duration(attempt) * time.Second)
		}

		// Keep the storefront happy
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Printf("Done. Downloaded %d images to %s\n", downloaded, outputDir)
}

// loadCookieHeader reads a browser cookie export and renders it as a
// Cookie request header value.
func loadCookieHeader(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return "", fmt.Errorf("invalid cookie file: %w", err)
	}
	if len(cookies) == 0 {
		return "", fmt.Errorf("cookie file is empty")
	}

	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; "), nil
}

func fetchPage(pageURL, cookieHeader string) (string, error) {
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	req.Header.Set("Referer", "https://www.jd.com/")
	req.Header.Set("Cookie", cookieHeader)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// parsePage extracts listings from the results grid. Without a browser
// only the items rendered server-side are present, roughly the first
// thirty.
func parsePage(html string) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var listings []Listing
	doc.Find("#J_goodsList > ul > li").Each(func(_ int, item *goquery.Selection) {
		listing := Listing{
			Name:    strings.TrimSpace(item.Find("div > div:nth-of-type(3) > a > em").Text()),
			Price:   strings.TrimSpace(item.Find("div > div:nth-of-type(2) > strong > i").Text()),
			Comment: strings.TrimSpace(item.Find("div > div:nth-of-type(4) > strong > a").Text()),
			Shop:    strings.TrimSpace(item.Find("div > div:nth-of-type(5) > span > a").Text()),
		}
		if href, ok := item.Find("div > div:nth-of-type(1) > a").Attr("href"); ok {
			listing.URL = absolute(href)
		}
		img := item.Find("div > div:nth-of-type(1) > a > img")
		src, ok := img.Attr("src")
		if !ok || src == "" {
			src, _ = img.Attr("data-lazy-img")
		}
		if src != "" && src != "done" {
			listing.ImageURL = absolute(src)
		}
		if listing.Name != "" {
			listings = append(listings, listing)
		}
	})

	return listings, nil
}

func absolute(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

func downloadImage(imageURL, path, cookieHeader string) error {
	req, err := http.NewRequest("GET", imageURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Referer", "https://www.jd.com/")
	req.Header.Set("Cookie", cookieHeader)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}
