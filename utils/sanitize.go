package utils

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reBracketTag  = regexp.MustCompile(`\[.*?\]`)
	reBraceTag    = regexp.MustCompile(`\{.*?\}`)
	reHTMLTag     = regexp.MustCompile(`<[^>]*>`)
	reSteamToken  = regexp.MustCompile(`\{STEAM.*?\}`)
	reRawURL      = regexp.MustCompile(`https?://\S+`)
	reBlankLines  = regexp.MustCompile(`\n{3,}`)
	reNonAlnum    = regexp.MustCompile(`[^a-z0-9]`)
	reNonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)
)

// CleanTitle strips bracketed and braced tag fragments from a feed title.
func CleanTitle(title string) string {
	title = reBracketTag.ReplaceAllString(title, "")
	title = reBraceTag.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}

// CleanContent strips BBCode fragments, HTML tags, storefront placeholder
// tokens and raw URLs from announcement body text, collapses runs of blank
// lines and caps the result at maxLen runes.
func CleanContent(content string, maxLen int) string {
	if content == "" {
		return ""
	}

	content = reBracketTag.ReplaceAllString(content, "")
	content = reHTMLTag.ReplaceAllString(content, "")
	content = reSteamToken.ReplaceAllString(content, "")
	content = reRawURL.ReplaceAllString(content, "")
	content = reBlankLines.ReplaceAllString(content, "\n\n")

	return Truncate(strings.TrimSpace(content), maxLen)
}

// StripHTML extracts the plain text of an HTML fragment.
func StripHTML(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(reHTMLTag.ReplaceAllString(html, ""))
	}

	return strings.TrimSpace(doc.Text())
}

// NormalizeName lowercases a game name and drops everything that is not
// a letter or digit, for fuzzy storefront matching.
func NormalizeName(name string) string {
	return reNonAlnum.ReplaceAllString(strings.ToLower(name), "")
}

// Slugify turns a name into a lowercase dash-separated slug.
func Slugify(name string) string {
	slug := reNonAlnumRun.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// Truncate caps s at n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
