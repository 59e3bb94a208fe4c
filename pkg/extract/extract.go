// Package extract defines the parsed form of a rendered listing page
// and the contract extraction functions must satisfy.
package extract

import "strings"

// Fields holds the six parallel sequences parsed from one rendered
// listing page. Index i across all six slices describes the same
// listing, so a complete snapshot has equal lengths everywhere.
type Fields struct {
	Names      []string
	Prices     []string
	DetailURLs []string
	Comments   []string
	Shops      []string
	ImageURLs  []string
}

// Func parses rendered markup into the six parallel field sequences.
// Implementations are site specific; everything above them treats the
// result as opaque parallel data.
type Func func(html string) (*Fields, error)

// Counts returns the length of each sequence in declaration order.
func (f *Fields) Counts() []int {
	return []int{
		len(f.Names),
		len(f.Prices),
		len(f.DetailURLs),
		len(f.Comments),
		len(f.Shops),
		len(f.ImageURLs),
	}
}

// Min returns the smallest sequence length, which is how many complete
// records the snapshot can yield.
func (f *Fields) Min() int {
	min := -1
	for _, n := range f.Counts() {
		if min == -1 || n < min {
			min = n
		}
	}
	return min
}

// Balanced reports whether all six sequences have equal cardinality.
// An unbalanced snapshot is corrupt and must not be persisted.
func (f *Fields) Balanced() bool {
	counts := f.Counts()
	for _, n := range counts[1:] {
		if n != counts[0] {
			return false
		}
	}
	return true
}

// HasEmpty reports whether any sequence is empty. The scroll loop
// treats this as the storefront's "no more data" signal.
func (f *Fields) HasEmpty() bool {
	for _, n := range f.Counts() {
		if n == 0 {
			return true
		}
	}
	return false
}

// Empty returns a snapshot with all six sequences present but empty.
func Empty() *Fields {
	return &Fields{
		Names:      []string{},
		Prices:     []string{},
		DetailURLs: []string{},
		Comments:   []string{},
		Shops:      []string{},
		ImageURLs:  []string{},
	}
}

// nameSanitizer drops characters that are unsafe in filenames along
// with embedded line breaks and tabs.
var nameSanitizer = strings.NewReplacer(
	"$", "",
	"/", "",
	":", "",
	"?", "",
	"*", "",
	`"`, "",
	"<", "",
	">", "",
	`\`, "",
	"|", "",
	"\n", "",
	"\r", "",
	"\t", "",
)

// SanitizeName normalizes a listing or shop name so it can safely
// become part of a filename on any platform.
func SanitizeName(name string) string {
	return strings.TrimSpace(nameSanitizer.Replace(name))
}
