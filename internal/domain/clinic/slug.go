package clinic

import (
	"regexp"
	"strings"
)

var (
	nonWord   = regexp.MustCompile(`[^\w\s-]`)
	separator = regexp.MustCompile(`[\s_-]+`)
)

// Slugify lowercases name, drops punctuation and joins words with dashes.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonWord.ReplaceAllString(s, "")
	s = separator.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
