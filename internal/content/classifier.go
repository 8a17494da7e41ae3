package content

import "strings"

// Classify maps a URL to a content type. It is deterministic and
// total; rules are evaluated in order and the first match wins:
//
//  1. URL ends with ".pdf"                      -> pdf
//  2. URL contains "news", "blog" or "article"  -> article
//  3. URL contains "docs" or "documentation"    -> documentation
//  4. URL contains "arxiv.org"                  -> research_paper
//  5. otherwise                                 -> webpage
//
// Matching is case-insensitive on the whole URL string.
func Classify(url string) Type {
	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return TypePDF
	case strings.Contains(lower, "news"),
		strings.Contains(lower, "blog"),
		strings.Contains(lower, "article"):
		return TypeArticle
	case strings.Contains(lower, "docs"),
		strings.Contains(lower, "documentation"):
		return TypeDocumentation
	case strings.Contains(lower, "arxiv.org"):
		return TypeResearchPaper
	default:
		return TypeWebpage
	}
}
