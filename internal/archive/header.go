package archive

import (
	"net/url"
	"regexp"
	"strings"
)

// Upstream metadata sometimes arrives double- or triple-percent-encoded;
// decoding is bounded so adversarial input cannot loop forever.
const maxDecodePasses = 5

var (
	crlfRun       = regexp.MustCompile(`[\r\n]+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// SanitizeHeader normalizes text into a value safe to send as a single
// Latin-1 HTTP header: nested percent-encoding is resolved up to five
// layers deep, CR/LF sequences are collapsed to a space, code points
// outside the Latin-1 range become spaces, and whitespace runs are
// collapsed and trimmed. Within the decode bound the result of a sanitize
// pass sanitizes to itself; input encoded more deeply keeps its remaining
// escapes.
func SanitizeHeader(s string) string {
	for i := 0; i < maxDecodePasses; i++ {
		decoded, err := url.PathUnescape(s)
		if err != nil || decoded == s {
			break
		}
		s = decoded
	}

	s = crlfRun.ReplaceAllString(s, " ")

	s = strings.Map(func(r rune) rune {
		if r > 0xFF {
			return ' '
		}
		return r
	}, s)

	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// validHeaderValue reports whether every byte of the sanitized value is
// legal inside an HTTP header. Headers failing this check are dropped from
// the upload rather than aborting it.
func validHeaderValue(s string) bool {
	for _, r := range s {
		if r == '\t' {
			continue
		}
		if r < 0x20 || r == 0x7F || r > 0xFF {
			return false
		}
	}
	return true
}
