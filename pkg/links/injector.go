package links

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"golang.org/x/net/html"

	"github.com/jmylchreest/quill/internal/logger"
)

// Injector inserts links of one kind. It is safe for concurrent use; the
// circuit breaker is shared by every document it processes.
type Injector struct {
	kind    Kind
	source  Source
	config  *Config
	breaker circuitbreaker.CircuitBreaker[[]Candidate]
}

// NewInjector creates an injector for kind backed by src. A nil config uses
// DefaultConfig.
func NewInjector(kind Kind, src Source, cfg *Config) (*Injector, error) {
	switch kind {
	case Internal, External, Promotional:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if src == nil {
		return nil, fmt.Errorf("%s injector: nil source", kind)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid links config: %w", err)
	}

	breaker := circuitbreaker.NewBuilder[[]Candidate]().
		WithFailureThreshold(cfg.BreakerThreshold).
		WithDelay(cfg.BreakerDelay).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			logger.Warn("link source circuit breaker state change",
				"kind", string(kind),
				"from", stateName(e.OldState),
				"to", stateName(e.NewState))
		}).
		Build()

	return &Injector{
		kind:    kind,
		source:  src,
		config:  cfg,
		breaker: breaker,
	}, nil
}

func stateName(s circuitbreaker.State) string {
	switch s {
	case circuitbreaker.OpenState:
		return "open"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	default:
		return "closed"
	}
}

// Kind returns the kind of link the injector inserts.
func (i *Injector) Kind() Kind {
	return i.kind
}

// Inject inserts up to max links into doc and returns the updated HTML and
// the number inserted. On any failure doc is returned unchanged.
func (i *Injector) Inject(ctx context.Context, doc, title string, max int) (string, int) {
	out, rep := i.InjectReport(ctx, doc, title, max)
	return out, rep.Inserted
}

// InjectReport is Inject with a full report. Anchors of the injector's kind
// already in doc count against max.
func (i *Injector) InjectReport(ctx context.Context, doc, title string, max int) (string, Report) {
	rep := Report{Budget: Budget{Kind: i.kind, Max: max}}
	if max <= 0 {
		return doc, rep
	}

	d, err := parseFragment(doc)
	if err != nil {
		rep.Err = fmt.Errorf("%w: parse html: %w", ErrInjectorUnavailable, err)
		return doc, rep
	}

	rep.Existing = d.Find(`a[data-link="` + string(i.kind) + `"]`).Length()
	remaining := max - rep.Existing
	if remaining <= 0 {
		return doc, rep
	}

	cands, err := i.lookup(ctx, title, remaining)
	if err != nil {
		rep.Err = fmt.Errorf("%w: %s links: %w", ErrInjectorUnavailable, i.kind, err)
		logger.WarnContext(ctx, "link source unavailable", "kind", string(i.kind), "error", err)
		return doc, rep
	}
	cands, rep.Rejected = usable(d, cands)
	rep.Candidates = len(cands)
	if rep.Rejected > 0 {
		logger.WarnContext(ctx, "invalid link candidates dropped",
			"kind", string(i.kind), "rejected", rep.Rejected)
	}

	root := d.Nodes[0]
	used := linkedBlocks(d)
	for _, c := range cands {
		if rep.Inserted >= remaining {
			break
		}
		if linkFirstMention(root, c, i.kind, used) {
			rep.Inserted++
			continue
		}
		if i.kind == Promotional && rep.Existing+rep.Inserted == 0 && i.appendMention(d, c, used) {
			rep.Inserted++
		}
	}

	if rep.Inserted == 0 {
		return doc, rep
	}
	out, err := d.Html()
	if err != nil {
		rep.Err = fmt.Errorf("%w: render html: %w", ErrInjectorUnavailable, err)
		rep.Inserted = 0
		return doc, rep
	}

	logger.DebugContext(ctx, "links injected",
		"kind", string(i.kind),
		"inserted", rep.Inserted,
		"existing", rep.Existing,
		"candidates", rep.Candidates)
	return out, rep
}

// lookup asks the source for candidates through the circuit breaker with a
// bounded timeout.
func (i *Injector) lookup(ctx context.Context, title string, n int) ([]Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, i.config.LookupTimeout)
	defer cancel()

	return failsafe.With(i.breaker).WithContext(ctx).Get(func() ([]Candidate, error) {
		cands, err := i.source.Candidates(ctx, title, n)
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		return cands, err
	})
}

// usable drops invalid candidates, duplicates and candidates whose URL is
// already linked in d. The number of invalid candidates is returned too.
func usable(d *goquery.Document, cands []Candidate) ([]Candidate, int) {
	linked := make(map[string]bool)
	d.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		linked[normalizeURL(href)] = true
	})

	out := make([]Candidate, 0, len(cands))
	rejected := 0
	for _, c := range cands {
		c.AnchorText = strings.TrimSpace(c.AnchorText)
		if validate.Struct(c) != nil {
			rejected++
			continue
		}
		u := normalizeURL(c.URL)
		if linked[u] {
			continue
		}
		linked[u] = true
		out = append(out, c)
	}
	return out, rejected
}

// linkedBlocks returns the paragraphs and list items that already hold an
// injected anchor of any kind.
func linkedBlocks(d *goquery.Document) map[*html.Node]bool {
	used := make(map[*html.Node]bool)
	d.Find("a[data-link]").Each(func(_ int, a *goquery.Selection) {
		if b := a.Closest("p, li"); b.Length() > 0 {
			used[b.Nodes[0]] = true
		}
	})
	return used
}

// linkFirstMention links the first whole-word mention of c.AnchorText in a
// paragraph or list item that has no injected link yet.
func linkFirstMention(root *html.Node, c Candidate, kind Kind, used map[*html.Node]bool) bool {
	re := mentionRe(c.AnchorText)
	for _, n := range textNodes(root) {
		block := linkableBlock(n)
		if block == nil || used[block] {
			continue
		}
		m := re.FindStringSubmatchIndex(n.Data)
		if m == nil {
			continue
		}
		wrapText(n, m[4], m[5], newAnchor(kind, c.URL))
		used[block] = true
		return true
	}
	return false
}

// appendMention adds the mention sentence to the last body paragraph
// without an injected link.
func (i *Injector) appendMention(d *goquery.Document, c Candidate, used map[*html.Node]bool) bool {
	p := lastBodyParagraph(d, used)
	if p == nil {
		return false
	}
	used[p.Nodes[0]] = true
	link := anchorHTML(i.kind, c.URL, c.AnchorText)
	sentence := strings.ReplaceAll(html.EscapeString(i.config.MentionTemplate), "{name}", link)
	p.AppendHtml(" " + sentence)
	return true
}
