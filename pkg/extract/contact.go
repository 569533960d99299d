package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	emailRE       = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	obfuscatedAtRE  = regexp.MustCompile(`(?i)\s*\(at\)\s*|\s*\[at\]\s*`)
	obfuscatedDotRE = regexp.MustCompile(`(?i)\s*\(dot\)\s*|\s*\[dot\]\s*`)
	phoneRE       = regexp.MustCompile(`(\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
)

// genericEmailPrefixes are demoted unless they're the only candidate found,
// per §4.3's contact-extraction contract.
var genericEmailPrefixes = []string{"info@", "contact@", "admin@", "office@", "hello@"}

// ExtractEmails scans text (already de-obfuscated) plus any mailto: links in
// doc for candidate addresses, returning the best single pick: a
// non-generic address if one exists, otherwise the first generic one found.
func ExtractEmails(text string, doc *goquery.Selection) string {
	normalized := deobfuscate(text)
	candidates := emailRE.FindAllString(normalized, -1)

	if doc != nil {
		doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok {
				return
			}
			addr := strings.TrimPrefix(href, "mailto:")
			if idx := strings.Index(addr, "?"); idx >= 0 {
				addr = addr[:idx]
			}
			if emailRE.MatchString(addr) {
				candidates = append(candidates, addr)
			}
		})
	}

	return pickBestEmail(candidates)
}

func deobfuscate(s string) string {
	s = obfuscatedAtRE.ReplaceAllString(s, "@")
	s = obfuscatedDotRE.ReplaceAllString(s, ".")
	return s
}

func pickBestEmail(candidates []string) string {
	var generic, specific string
	for _, c := range candidates {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		isGeneric := false
		for _, prefix := range genericEmailPrefixes {
			if strings.HasPrefix(c, prefix) {
				isGeneric = true
				break
			}
		}
		if isGeneric {
			if generic == "" {
				generic = c
			}
			continue
		}
		if specific == "" {
			specific = c
		}
	}
	if specific != "" {
		return specific
	}
	return generic
}

// ExtractPhone finds the first phone-shaped substring in text and
// normalizes it to an E.164-like canonical form (+1NNNNNNNNNN for US-style
// 10-digit numbers; otherwise the digits as found, prefixed with "+").
func ExtractPhone(text string) string {
	match := phoneRE.FindString(text)
	if match == "" {
		return ""
	}
	return NormalizePhone(match)
}

// NormalizePhone strips formatting and applies a US/Canada default country
// code when the number has exactly 10 digits.
func NormalizePhone(raw string) string {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	switch len(digits) {
	case 10:
		return "+1" + string(digits)
	case 11:
		return "+" + string(digits)
	default:
		if len(digits) == 0 {
			return ""
		}
		return "+" + string(digits)
	}
}
