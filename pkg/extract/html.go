package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// firstText returns the trimmed text of the first element matching any of
// selectors, in order.
func firstText(doc *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		t := strings.TrimSpace(doc.Find(sel).First().Text())
		if t != "" {
			return t
		}
	}
	return ""
}

// pageText returns the document's visible text, used for regex-based
// contact mining.
func pageText(doc *goquery.Document) string {
	return doc.Find("body").Text()
}
