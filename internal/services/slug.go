package services

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugStripPattern    = regexp.MustCompile(`[*+~.()'"!:@]`)
	slugHyphenPattern   = regexp.MustCompile(`\s+`)
	slugDeaccenter      = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	slugCollapsePattern = regexp.MustCompile(`-{2,}`)
)

// Slugify derives a URL-safe slug from a display name. The derivation is pure
// and idempotent: feeding a slug back in returns it unchanged.
func Slugify(name string) string {
	slug := strings.TrimSpace(strings.ToLower(name))
	if deaccented, _, err := transform.String(slugDeaccenter, slug); err == nil {
		slug = deaccented
	}
	slug = slugStripPattern.ReplaceAllString(slug, "")
	slug = slugHyphenPattern.ReplaceAllString(slug, "-")
	slug = slugCollapsePattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
