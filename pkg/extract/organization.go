package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// genericDirectoryNames are discarded if resolved as an "organization" —
// they're the directory site itself, not the prospect's practice.
var genericDirectoryNames = map[string]bool{
	"healthgrades": true, "zocdoc": true, "vitals": true, "webmd": true,
	"psychology today": true, "psychologytoday": true,
}

// ResolveOrganization implements the priority chain from §4.3: structured
// data -> page title/h1 near the name -> breadcrumbs -> practice/center name
// patterns -> domain fallback. Generic directory names are discarded.
func ResolveOrganization(doc *goquery.Selection, pageURL, nearName string) string {
	if site, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		if org := cleanOrg(site); org != "" {
			return org
		}
	}

	if title := doc.Find("title").First().Text(); title != "" {
		if org := orgFromTitleNearName(title, nearName); org != "" {
			return org
		}
	}

	var breadcrumb string
	doc.Find(`nav[aria-label="breadcrumb"] li, .breadcrumb li, .breadcrumbs li`).Each(func(i int, s *goquery.Selection) {
		if breadcrumb == "" {
			t := strings.TrimSpace(s.Text())
			if t != "" && !strings.EqualFold(t, "home") {
				breadcrumb = t
			}
		}
	})
	if org := cleanOrg(breadcrumb); org != "" {
		return org
	}

	for _, sel := range []string{"h1", ".practice-name", ".center-name", ".clinic-name"} {
		if t := doc.Find(sel).First().Text(); t != "" {
			if org := practicePatternMatch(t); org != "" {
				return org
			}
		}
	}

	return domainToOrg(pageURL)
}

func cleanOrg(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if genericDirectoryNames[strings.ToLower(s)] {
		return ""
	}
	return s
}

func orgFromTitleNearName(title, name string) string {
	parts := strings.Split(title, "|")
	if len(parts) < 2 {
		parts = strings.Split(title, "-")
	}
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, name) {
			continue
		}
		if org := cleanOrg(p); org != "" {
			return org
		}
	}
	return ""
}

var practiceWords = []string{"practice", "center", "centre", "clinic", "group", "associates", "partners", "institute"}

func practicePatternMatch(text string) string {
	lower := strings.ToLower(text)
	for _, w := range practiceWords {
		if strings.Contains(lower, w) {
			return cleanOrg(text)
		}
	}
	return ""
}

// domainToOrg falls back to a humanized version of the registrable domain,
// e.g. "smithcounseling.com" -> "Smithcounseling".
func domainToOrg(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(u.Host, "www.")
	labels := strings.Split(host, ".")
	if len(labels) == 0 {
		return ""
	}
	name := labels[0]
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
