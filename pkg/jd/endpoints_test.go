package jd

import "testing"

func TestBuildSearchURL(t *testing.T) {
	tests := []struct {
		name      string
		keyword   string
		pageIndex int
		want      string
	}{
		{
			name:      "first page",
			keyword:   "明日方舟",
			pageIndex: 0,
			want:      "https://search.jd.com/Search?keyword=%E6%98%8E%E6%97%A5%E6%96%B9%E8%88%9F&page=1",
		},
		{
			name:      "second page doubles the stride",
			keyword:   "明日方舟",
			pageIndex: 1,
			want:      "https://search.jd.com/Search?keyword=%E6%98%8E%E6%97%A5%E6%96%B9%E8%88%9F&page=3",
		},
		{
			name:      "last page of a 150 page crawl",
			keyword:   "明日方舟",
			pageIndex: 149,
			want:      "https://search.jd.com/Search?keyword=%E6%98%8E%E6%97%A5%E6%96%B9%E8%88%9F&page=299",
		},
		{
			name:      "keyword with spaces",
			keyword:   "arknights figure",
			pageIndex: 0,
			want:      "https://search.jd.com/Search?keyword=arknights+figure&page=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSearchURL(DefaultSearchEndpoint, tt.keyword, tt.pageIndex)
			if got != tt.want {
				t.Errorf("BuildSearchURL() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMatchesAny(t *testing.T) {
	patterns := []string{LoginRedirectPattern, "qq.com"}

	tests := []struct {
		name     string
		location string
		want     bool
	}{
		{"login portal", "https://passport.jd.com/new/login.aspx?ReturnUrl=https%3A%2F%2Fwww.jd.com%2F", true},
		{"qq oauth hop", "https://graph.qq.com/oauth2.0/show?which=Login", true},
		{"search results", "https://search.jd.com/Search?keyword=x&page=1", false},
		{"challenge service", "https://cfe.m.jd.com/privatedomain/risk_handler", false},
		{"empty location", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesAny(tt.location, patterns); got != tt.want {
				t.Errorf("MatchesAny(%q) = %v, want %v", tt.location, got, tt.want)
			}
		})
	}

	if MatchesAny("https://passport.jd.com/", nil) {
		t.Error("No patterns should never match")
	}
	if MatchesAny("anything", []string{""}) {
		t.Error("Empty pattern strings must be ignored")
	}
}
