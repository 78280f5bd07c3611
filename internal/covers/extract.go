package covers

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	responsiveImageClass = "ResponsiveImage"
	coverHostPrefix      = "https://i.gr-assets.com/images/S/compressed.photo.goodreads.com/books/"
)

// ExtractCoverURL finds the cover image in a book detail page. The first <img>
// whose class mentions ResponsiveImage wins; failing that, the first <img>
// served from the Goodreads book cover CDN is used.
func ExtractCoverURL(page string) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(page))

	var fallback string
	for {
		switch z.Next() {
		case html.ErrorToken:
			return fallback, fallback != ""

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "img" || !hasAttr {
				continue
			}

			var class, src string
			for {
				key, val, more := z.TagAttr()
				switch string(key) {
				case "class":
					class = string(val)
				case "src":
					src = strings.TrimSpace(string(val))
				}
				if !more {
					break
				}
			}

			if src == "" {
				continue
			}
			if strings.Contains(class, responsiveImageClass) {
				return src, true
			}
			if fallback == "" && strings.HasPrefix(src, coverHostPrefix) {
				fallback = src
			}
		}
	}
}
