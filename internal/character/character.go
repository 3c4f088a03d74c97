// Package character decides which party member a page describes.
package character

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Attr is the attribute naming the character on <body>, <html> or a <script>.
const Attr = "data-character"

// "/characters/sekhmet_textsheet.html" -> "sekhmet"
var fileRe = regexp.MustCompile(`(?i)/([a-z_-]+?)(?:[_ ]?textsheet)?\.html?$`)

// Resolve returns the lowercased character key for a page. The page-level
// attribute wins over script attributes, which win over the file name.
func Resolve(doc *goquery.Document, pageURL *url.URL) (string, bool) {
	if doc != nil {
		for _, sel := range []string{"body", "html"} {
			if v := attr(doc.Find(sel).First()); v != "" {
				return strings.ToLower(v), true
			}
		}

		var fromScript string
		doc.Find("script[" + Attr + "]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			fromScript = attr(s)
			return fromScript == ""
		})
		if fromScript != "" {
			return strings.ToLower(fromScript), true
		}
	}

	if pageURL != nil {
		return FromPath(pageURL.EscapedPath())
	}
	return "", false
}

// FromPath infers the key from the file name of an escaped page path,
// dropping an optional "textsheet" suffix and the extension.
func FromPath(p string) (string, bool) {
	if dec, err := url.PathUnescape(p); err == nil {
		p = dec
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	m := fileRe.FindStringSubmatch(path.Clean(p))
	if len(m) != 2 {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

func attr(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	v, _ := s.Attr(Attr)
	return strings.TrimSpace(v)
}
