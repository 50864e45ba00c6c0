package archive

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	identifierPrefix = "audio"
	maxSlugLength    = 50
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// timeNow is swapped out in tests to pin the identifier suffix.
var timeNow = time.Now

// GenerateIdentifier derives a globally-unique, URL-safe item identifier
// from a human title. The slug keeps lowercase letters, digits, and single
// hyphens; the millisecond suffix makes repeated uploads of the same title
// distinct. An empty title still yields a valid identifier.
func GenerateIdentifier(title string) string {
	slug := strings.ToLower(title)
	slug = nonSlugRun.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}

	millis := timeNow().UnixMilli()
	if slug == "" {
		return fmt.Sprintf("%s-%d", identifierPrefix, millis)
	}
	return fmt.Sprintf("%s-%s-%d", identifierPrefix, slug, millis)
}
