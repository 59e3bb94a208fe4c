package jd

import (
	"strings"
	"testing"
)

// gridItem describes one listing in a test fixture. Empty fields omit
// the matching markup entirely, the way a partially rendered item
// would.
type gridItem struct {
	name    string
	price   string
	href    string
	comment string
	shop    string
	imgSrc  string
	imgLazy string
}

func gridHTML(items ...gridItem) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="J_goodsList"><ul class="gl-warp clearfix">`)
	for _, it := range items {
		b.WriteString(`<li class="gl-item"><div class="gl-i-wrap">`)

		b.WriteString(`<div class="p-img">`)
		if it.href != "" {
			b.WriteString(`<a target="_blank" href="` + it.href + `">`)
		} else {
			b.WriteString(`<a target="_blank">`)
		}
		if it.imgSrc != "" || it.imgLazy != "" {
			b.WriteString(`<img width="220" height="220"`)
			if it.imgSrc != "" {
				b.WriteString(` src="` + it.imgSrc + `"`)
			}
			if it.imgLazy != "" {
				b.WriteString(` data-lazy-img="` + it.imgLazy + `"`)
			}
			b.WriteString(`>`)
		}
		b.WriteString(`</a></div>`)

		b.WriteString(`<div class="p-price"><strong><em>¥</em><i>` + it.price + `</i></strong></div>`)

		b.WriteString(`<div class="p-name p-name-type-2"><a target="_blank"><em>` + it.name + `</em></a></div>`)

		b.WriteString(`<div class="p-commit"><strong><a target="_blank">` + it.comment + `</a></strong></div>`)

		b.WriteString(`<div class="p-shop"><span class="J_im_icon"><a class="curr-shop hd-shopname">` + it.shop + `</a></span></div>`)

		b.WriteString(`</div></li>`)
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

func fullItem(n string) gridItem {
	return gridItem{
		name:    n,
		price:   "128.00",
		href:    "//item.jd.com/100012043978.html",
		comment: "2万+",
		shop:    "官方旗舰店",
		imgSrc:  "//img10.360buyimg.com/n7/jfs/t1/sample.jpg",
	}
}

func TestParseListingsBalanced(t *testing.T) {
	html := gridHTML(
		fullItem(`<font class="skcolor_ljg">明日方舟</font> 周边手办`),
		fullItem("明日方舟 阿米娅模型"),
		fullItem("明日方舟 能天使立牌"),
	)

	fields, err := ParseListings(html)
	if err != nil {
		t.Fatalf("ParseListings failed: %v", err)
	}

	if !fields.Balanced() {
		t.Fatalf("Expected balanced snapshot, got counts %v", fields.Counts())
	}
	if fields.Min() != 3 {
		t.Fatalf("Expected 3 records, got %d", fields.Min())
	}

	// Highlight markup is flattened to plain text
	if fields.Names[0] != "明日方舟 周边手办" {
		t.Errorf("Unexpected first name: %q", fields.Names[0])
	}
	if fields.Prices[0] != "128.00" {
		t.Errorf("Unexpected price: %q", fields.Prices[0])
	}
	if fields.Comments[0] != "2万+" {
		t.Errorf("Unexpected comment count: %q", fields.Comments[0])
	}
	if fields.Shops[0] != "官方旗舰店" {
		t.Errorf("Unexpected shop: %q", fields.Shops[0])
	}
}

func TestParseListingsUpgradesSchemeRelativeURLs(t *testing.T) {
	fields, err := ParseListings(gridHTML(fullItem("item")))
	if err != nil {
		t.Fatal(err)
	}

	if fields.DetailURLs[0] != "https://item.jd.com/100012043978.html" {
		t.Errorf("Detail URL not upgraded: %s", fields.DetailURLs[0])
	}
	if fields.ImageURLs[0] != "https://img10.360buyimg.com/n7/jfs/t1/sample.jpg" {
		t.Errorf("Image URL not upgraded: %s", fields.ImageURLs[0])
	}
}

func TestParseListingsLazyImages(t *testing.T) {
	lazy := fullItem("below the fold")
	lazy.imgSrc = ""
	lazy.imgLazy = "//img11.360buyimg.com/n7/jfs/t1/lazy.jpg"

	fields, err := ParseListings(gridHTML(fullItem("above the fold"), lazy))
	if err != nil {
		t.Fatal(err)
	}

	if len(fields.ImageURLs) != 2 {
		t.Fatalf("Expected 2 image URLs, got %d", len(fields.ImageURLs))
	}
	if fields.ImageURLs[1] != "https://img11.360buyimg.com/n7/jfs/t1/lazy.jpg" {
		t.Errorf("Lazy image source not used: %s", fields.ImageURLs[1])
	}
}

func TestParseListingsSkipsConsumedLazyMarker(t *testing.T) {
	consumed := fullItem("loaded item")
	consumed.imgSrc = ""
	consumed.imgLazy = "done"

	fields, err := ParseListings(gridHTML(consumed))
	if err != nil {
		t.Fatal(err)
	}

	if len(fields.ImageURLs) != 0 {
		t.Errorf("Consumed lazy marker should yield no image URL, got %v", fields.ImageURLs)
	}
}

func TestParseListingsUnbalancedWhenFieldMissing(t *testing.T) {
	noComment := fullItem("sparse item")
	noComment.comment = ""

	fields, err := ParseListings(gridHTML(fullItem("one"), noComment, fullItem("three")))
	if err != nil {
		t.Fatal(err)
	}

	if fields.Balanced() {
		t.Fatalf("Expected unbalanced snapshot, got counts %v", fields.Counts())
	}
	if len(fields.Comments) != 2 {
		t.Errorf("Expected 2 comments, got %d", len(fields.Comments))
	}
	if len(fields.Names) != 3 {
		t.Errorf("Expected 3 names, got %d", len(fields.Names))
	}
}

func TestParseListingsEmptyPage(t *testing.T) {
	fields, err := ParseListings("<html><body><p>no grid here</p></body></html>")
	if err != nil {
		t.Fatal(err)
	}

	if !fields.HasEmpty() {
		t.Error("Gridless page should report empty sequences")
	}
	if !fields.Balanced() {
		t.Error("All-empty snapshot is still balanced")
	}
	if fields.Min() != 0 {
		t.Errorf("Expected 0 records, got %d", fields.Min())
	}
}

func TestParseListingsSanitizesNames(t *testing.T) {
	dirty := fullItem("placeholder")
	dirty.name = `正版*/手办: "限定"`

	fields, err := ParseListings(gridHTML(dirty))
	if err != nil {
		t.Fatal(err)
	}

	if len(fields.Names) != 1 {
		t.Fatalf("Expected 1 name, got %d", len(fields.Names))
	}
	if strings.ContainsAny(fields.Names[0], `$/:?*"<>\|`) {
		t.Errorf("Name not sanitized: %q", fields.Names[0])
	}
}
