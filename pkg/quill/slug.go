package quill

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jmylchreest/quill/pkg/normalize"
)

const maxSlugLength = 80

// FallbackSlug is the slug of a title with no letters or digits.
const FallbackSlug = "document"

// isGenericSlug reports whether slug says nothing about the document. Such
// slugs are made unique before storing, since the store upserts on slug.
func isGenericSlug(slug string) bool {
	return slug == FallbackSlug || slug == Slugify(normalize.Untitled)
}

// Slugify turns a title into a lowercase, hyphen separated URL slug.
// Accents are folded ("Crème Brûlée" becomes "creme-brulee"), other letters
// and digits are kept. An empty result becomes FallbackSlug.
func Slugify(title string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(fold, title)
	if err != nil {
		s = title
	}

	var sb strings.Builder
	dash := false
	n := 0
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && sb.Len() > 0 {
				if n+1 >= maxSlugLength {
					break
				}
				sb.WriteByte('-')
				n++
			}
			if n >= maxSlugLength {
				break
			}
			sb.WriteRune(r)
			n++
			dash = false
			continue
		}
		if r == '\'' || r == '’' {
			continue
		}
		dash = true
	}

	if sb.Len() == 0 {
		return FallbackSlug
	}
	return sb.String()
}
