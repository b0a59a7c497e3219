package normalize

import (
	"regexp"
	"sort"
	"strings"
)

var (
	faqHeadingRe = regexp.MustCompile(`(?im)^[ \t]{0,3}#{1,6}[ \t]+(?:\*\*)?(?:faqs?|frequently[ \t]+asked[ \t]+questions)\b`)

	keyTakeawaysRe = regexp.MustCompile(`(?im)^[ \t]{0,3}(?:#{1,6}[ \t]+|(?:\\?\*){2})[ \t]*key[ \t]+takeaways?\b.*$`)

	anyHeadingRe = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+.*$`)

	blankRunRe = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
)

// BoilerplateReport counts what StripBoilerplate removed.
type BoilerplateReport struct {
	Truncations  int
	KeyTakeaways int
	Promos       int
}

// Stripper removes trailing metadata and promotional text from a body.
// Rules only act inside the window that starts at the tail threshold and
// ends at the first FAQ heading.
type Stripper struct {
	cfg     *Config
	stopRe  *regexp.Regexp
	promoRe *regexp.Regexp
}

// NewStripper compiles the keyword and phrase lists of cfg.
func NewStripper(cfg *Config) *Stripper {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Stripper{
		cfg:     cfg,
		stopRe:  compileStopKeywords(cfg.StopKeywords),
		promoRe: compilePromoPhrases(cfg.PromoPhrases),
	}
}

// StripBoilerplate runs a one-off Stripper over body.
func StripBoilerplate(body string, cfg *Config) (string, BoilerplateReport) {
	return NewStripper(cfg).Strip(body)
}

// Strip applies the stop-keyword, key-takeaways and promo rules in order.
func (s *Stripper) Strip(body string) (string, BoilerplateReport) {
	var rep BoilerplateReport
	if body == "" {
		return body, rep
	}

	threshold := int(float64(len(body)) * (1 - s.cfg.TailFraction))

	if out, ok := s.truncateAtStopKeyword(body, threshold); ok {
		body = out
		rep.Truncations++
	}
	if s.cfg.StripKeyTakeaways {
		if out, ok := s.removeKeyTakeaways(body, threshold); ok {
			body = out
			rep.KeyTakeaways++
		}
	}
	if out, n := s.removePromos(body, threshold); n > 0 {
		body = out
		rep.Promos = n
	}

	if rep != (BoilerplateReport{}) {
		body = strings.TrimSpace(blankRunRe.ReplaceAllString(body, "\n\n"))
	}
	return body, rep
}

// faqStart returns the offset of the first FAQ heading, or len(body).
func faqStart(body string) int {
	if loc := faqHeadingRe.FindStringIndex(body); loc != nil {
		return loc[0]
	}
	return len(body)
}

// truncateAtStopKeyword cuts the text between the first stop keyword in the
// tail and the FAQ heading (or the end). It does nothing when an FAQ
// heading precedes the keyword or the text after the keyword line is long
// enough to be real content.
func (s *Stripper) truncateAtStopKeyword(body string, threshold int) (string, bool) {
	if s.stopRe == nil {
		return body, false
	}
	faq := faqStart(body)
	start := -1
	for _, loc := range s.stopRe.FindAllStringIndex(body, -1) {
		if loc[0] >= threshold {
			start = loc[0]
			break
		}
	}
	if start < 0 || faq <= start {
		return body, false
	}
	lineEnd := lineEndAt(body, start)
	if lineEnd > faq {
		lineEnd = faq
	}
	if runeLen(strings.TrimSpace(body[lineEnd:faq])) > s.cfg.StopKeywordTailLimit {
		return body, false
	}
	return joinCut(body, start, faq), true
}

// removeKeyTakeaways removes a Key Takeaways section whose heading is inside
// the window. The section ends at the next heading or the FAQ heading.
func (s *Stripper) removeKeyTakeaways(body string, threshold int) (string, bool) {
	faq := faqStart(body)
	for _, loc := range keyTakeawaysRe.FindAllStringIndex(body, -1) {
		if loc[0] < threshold {
			continue
		}
		if loc[0] >= faq {
			return body, false
		}
		end := faq
		if next := anyHeadingRe.FindStringIndex(body[loc[1]:]); next != nil && loc[1]+next[0] < end {
			end = loc[1] + next[0]
		}
		return joinCut(body, loc[0], end), true
	}
	return body, false
}

type span struct{ start, end int }

// removePromos removes promotional sentences once at least PromoMinCount of
// them are removable: inside the final PromoWindow characters, in the tail
// and before the FAQ. Only sentences after the nearest heading preceding
// that cluster go, and a heading left with no text goes with them.
func (s *Stripper) removePromos(body string, threshold int) (string, int) {
	if s.promoRe == nil {
		return body, 0
	}
	sentences := s.promoSentences(body)
	if len(sentences) == 0 {
		return body, 0
	}

	windowStart := max(runeOffsetFromEnd(body, s.cfg.PromoWindow), threshold)
	faq := faqStart(body)
	first := -1
	count := 0
	for _, sp := range sentences {
		if sp.start >= windowStart && sp.end <= faq {
			if first < 0 {
				first = sp.start
			}
			count++
		}
	}
	if count < s.cfg.PromoMinCount {
		return body, 0
	}

	cutoff := threshold
	heading := -1
	for _, loc := range anyHeadingRe.FindAllStringIndex(body[:first], -1) {
		if loc[1] > cutoff {
			cutoff = loc[1]
			heading = loc[0]
		}
	}

	var doomed []span
	for _, sp := range sentences {
		if sp.start >= cutoff && sp.end <= faq {
			doomed = append(doomed, sp)
		}
	}
	sort.Slice(doomed, func(i, j int) bool { return doomed[i].start > doomed[j].start })
	for _, sp := range doomed {
		body = body[:sp.start] + body[sp.end:]
	}

	if heading >= 0 {
		rest := body[cutoff:]
		end := len(rest)
		if next := anyHeadingRe.FindStringIndex(rest); next != nil {
			end = next[0]
		}
		if strings.TrimSpace(rest[:end]) == "" {
			body = joinCut(body, heading, cutoff+end)
		}
	}
	return body, len(doomed)
}

// promoSentences returns the spans of sentences that open with a promo
// phrase, including the terminator and trailing spaces.
func (s *Stripper) promoSentences(body string) []span {
	var out []span
	for _, m := range s.promoRe.FindAllStringSubmatchIndex(body, -1) {
		start, end := m[2], m[3]
		for end < len(body) && strings.IndexByte(".!?", body[end]) >= 0 {
			end++
		}
		for end < len(body) && (body[end] == ' ' || body[end] == '\t') {
			end++
		}
		out = append(out, span{start, end})
	}
	return out
}

func compileStopKeywords(keywords []string) *regexp.Regexp {
	alts := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			alts = append(alts, flexPhrase(k))
		}
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?im)^[ \t]*(?:#{1,6}[ \t]+)?(?:\d+[.)][ \t]*)?(?:\\?\*){0,2}[ \t]*(?:` + strings.Join(alts, "|") + `)\b`)
}

func compilePromoPhrases(phrases []string) *regexp.Regexp {
	alts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			alts = append(alts, flexPhrase(p))
		}
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?im)(?:^|[.!?][ \t]+)[ \t]*((?:` + strings.Join(alts, "|") + `)\b[^.!?\n]*)`)
}

// flexPhrase quotes p and lets spaces and hyphens match any mix of either,
// and straight apostrophes match curly ones.
func flexPhrase(p string) string {
	q := regexp.QuoteMeta(p)
	r := strings.NewReplacer(" ", `[-\s]*`, "-", `[-\s]*`, "'", `['’]`)
	return r.Replace(q)
}

// joinCut removes body[start:end] and keeps the surrounding text separated
// by a blank line.
func joinCut(body string, start, end int) string {
	before := strings.TrimRight(body[:start], " \t\n")
	after := strings.TrimLeft(body[end:], " \t\n")
	switch {
	case after == "":
		return before
	case before == "":
		return after
	default:
		return before + "\n\n" + after
	}
}

func lineEndAt(s string, i int) int {
	if j := strings.IndexByte(s[i:], '\n'); j >= 0 {
		return i + j
	}
	return len(s)
}

// runeOffsetFromEnd returns the byte offset n runes before the end of s.
func runeOffsetFromEnd(s string, n int) int {
	if n <= 0 {
		return len(s)
	}
	count := 0
	for i := len(s); i > 0; {
		i--
		for i > 0 && !isRuneStart(s[i]) {
			i--
		}
		count++
		if count == n {
			return i
		}
	}
	return 0
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
