package sanitizer

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy  *bluemonday.Policy
	contentPolicy *bluemonday.Policy
	initOnce      sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		contentPolicy = bluemonday.NewPolicy()
		contentPolicy.AllowStandardURLs()
		contentPolicy.AllowElements(
			"p", "br", "hr",
			"strong", "em", "u",
			"ul", "ol", "li",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"blockquote",
		)
		contentPolicy.AllowAttrs("href").OnElements("a")
		contentPolicy.AllowAttrs("src", "alt").OnElements("img")
		contentPolicy.RequireNoFollowOnLinks(true)
	})
}

// StripTags removes every tag and returns plain text. Entities are decoded
// so the value round-trips through html/template without double escaping.
func StripTags(s string) string {
	initPolicies()
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// Clean keeps basic formatting (paragraphs, headings, lists, links, images)
// and drops scripts, event handlers, inline styles and javascript: URLs.
func Clean(s string) string {
	initPolicies()
	return contentPolicy.Sanitize(s)
}

// CleanValues applies Clean to every value and returns a new map.
func CleanValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = Clean(v)
	}
	return out
}

// CleanCustom applies a caller supplied policy. A nil policy returns s as is.
func CleanCustom(s string, policy *bluemonday.Policy) string {
	if policy == nil {
		return s
	}
	return policy.Sanitize(s)
}
