package search

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"blogforge/app/internal/webfetch"
)

const maxDerivedKeywords = 5

var keywordToken = regexp.MustCompile(`[가-힣a-zA-Z0-9]+`)

// ExtractKeywords derives search keywords from fetched page content.
// Explicit meta keywords come first, then up to three tokens of at least two
// characters taken from the title. Duplicates are dropped case-insensitively
// and the result is capped at five candidates. The output is deterministic
// for a given page.
func ExtractKeywords(page *webfetch.Page) []string {
	var keywords []string

	if len(page.Keywords) > 0 {
		keywords = append(keywords, page.Keywords...)
		if len(keywords) > maxDerivedKeywords {
			keywords = keywords[:maxDerivedKeywords]
		}
	}

	if title := strings.TrimSpace(page.Title); title != "" {
		tokens := keywordToken.FindAllString(title, -1)
		added := 0
		for _, token := range tokens {
			if utf8.RuneCountInString(token) < 2 {
				continue
			}
			keywords = append(keywords, token)
			added++
			if added >= 3 {
				break
			}
		}
	}

	seen := make(map[string]struct{}, len(keywords))
	unique := keywords[:0]
	for _, kw := range keywords {
		lower := strings.ToLower(kw)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		unique = append(unique, kw)
	}

	if len(unique) > maxDerivedKeywords {
		unique = unique[:maxDerivedKeywords]
	}
	return unique
}
