package indexing

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// StripTags removes HTML tags and decodes entities from a rendered title
// Example: "<code>tackle</code> &amp; hooks" -> "tackle & hooks"
func StripTags(text string) string {
	text = htmlTagRegex.ReplaceAllString(text, "")
	return strings.TrimSpace(html.UnescapeString(text))
}

// SectionOf returns the first path segment of a docname
// Example: "providers/system/print" -> "providers", "index" -> "root"
func SectionOf(docName string) string {
	if i := strings.Index(docName, "/"); i > 0 {
		return docName[:i]
	}
	return RootSection
}

// BuildBreadcrumb turns a docname into a readable trail
// Example: "providers/system/find_in_parent" -> "Providers > System > Find In Parent"
func BuildBreadcrumb(docName string) string {
	parts := strings.Split(docName, "/")
	crumbs := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		crumbs = append(crumbs, humanize(part))
	}
	return strings.Join(crumbs, " > ")
}

func humanize(segment string) string {
	words := strings.FieldsFunc(segment, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// BuildURL returns the rendered page URL for a docname
// Example: ("https://docs.example.com/", "advanced/hooks") -> "https://docs.example.com/advanced/hooks.html"
func BuildURL(baseURL, docName string) string {
	if baseURL == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/" + docName + ".html"
}

// stopWords are skipped when picking keywords
var stopWords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true,
	"from": true, "that": true, "this": true, "are": true, "can": true,
	"not": true, "you": true, "your": true, "use": true, "all": true,
}

// ExtractKeywords picks the most specific tokens of a document: its title
// tokens first, then the body tokens shared by the fewest documents.
// df reports how many documents list a body token.
func ExtractKeywords(titleTerms, terms []string, df func(string) int) []string {
	seen := make(map[string]bool)
	var keywords []string

	add := func(word string) {
		word = strings.ToLower(word)
		if len(keywords) >= MaxKeywords || seen[word] {
			return
		}
		if len(word) < MinKeywordLength || stopWords[word] || isNumeric(word) {
			return
		}
		seen[word] = true
		keywords = append(keywords, word)
	}

	for _, term := range titleTerms {
		add(term)
	}

	ranked := append([]string(nil), terms...)
	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := df(ranked[i]), df(ranked[j])
		if di != dj {
			return di < dj
		}
		return ranked[i] < ranked[j]
	})
	for _, term := range ranked {
		add(term)
	}

	return keywords
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
