package normalize

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/jmylchreest/quill/internal/logger"
	"github.com/jmylchreest/quill/pkg/cleaner"
	"github.com/jmylchreest/quill/pkg/protect"
)

// RawDocument is the unprocessed output of the text generator.
type RawDocument struct {
	Text   string  `json:"text" yaml:"text"`
	Topic  string  `json:"topic" yaml:"topic"`
	Images []Image `json:"images,omitempty" yaml:"images,omitempty"`
}

// Normalizer runs the normalization passes over raw documents. It holds no
// per-document state and is safe for concurrent use.
type Normalizer struct {
	config    *Config
	tokenizer *protect.Tokenizer
	stripper  *Stripper
	html      cleaner.Cleaner
}

var _ cleaner.Cleaner = (*Normalizer)(nil)

// New creates a Normalizer. A nil config uses DefaultConfig.
func New(cfg *Config) (*Normalizer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid normalize config: %w", err)
	}

	rules := protect.EmbedRules()
	if cfg.ProtectCode {
		rules = append([]protect.Rule{protect.FencedCodeRule}, rules...)
	}
	if cfg.ProtectTables {
		rules = append(rules, protect.TableBlockRule, protect.HTMLBlockRule)
	}

	var html cleaner.Cleaner = cleaner.NewNoop()
	if cfg.ConvertHTMLInput {
		html = cleaner.NewChain(
			cleaner.NewHTML(cfg.HTML),
			cleaner.NewMarkdown(
				cleaner.WithDomain(cfg.HTMLBaseURL),
				cleaner.WithStripLinks(cfg.HTMLStripLinks),
				cleaner.WithStripImages(cfg.HTMLStripImages),
			),
		)
	}

	return &Normalizer{
		config:    cfg,
		tokenizer: protect.New(rules...),
		stripper:  NewStripper(cfg),
		html:      html,
	}, nil
}

// Config returns the normalizer configuration.
func (n *Normalizer) Config() *Config {
	return n.config
}

// Name returns the cleaner type.
func (n *Normalizer) Name() string {
	return "normalize"
}

// Clean normalizes content with no topic or images and returns the markdown.
func (n *Normalizer) Clean(content string) (string, error) {
	res := n.Process(RawDocument{Text: content})
	return res.Markdown, res.Error
}

// Process normalizes a raw document. It never fails: ambiguous input is
// resolved by fallbacks and reported as warnings on the result.
func (n *Normalizer) Process(doc RawDocument) *Result {
	start := time.Now()
	stats := NewStats()
	stats.InputBytes = len(doc.Text)
	result := &Result{Stats: stats}

	text := prepare(doc.Text)
	if n.config.ConvertHTMLInput && cleaner.LooksLikeHTML(text) {
		md, err := n.html.Clean(text)
		if err != nil {
			result.AddWarning(Internal, "convert", "HTML input could not be converted", err.Error())
		} else {
			text = md
		}
	}

	tokenized, spans := n.tokenizer.Tokenize(text)
	stats.ProtectedSpans = len(spans)

	class := Classify(tokenized, n.config)
	result.Classification = class
	stats.LegacyMarkers = class.LegacyMarkers
	stats.Headings = class.Headings

	var title, markdown string
	if class.IsLegacy {
		title, markdown = n.processLegacy(tokenized, doc.Topic, result)
	} else {
		title, markdown = n.processNormalized(tokenized, doc.Topic, result)
	}

	markdown, media := PlaceImages(markdown, doc.Images)
	stats.ImagesPlaced = media.Placed
	stats.ImagesDistributed = media.Distributed
	if media.Invalid > 0 {
		result.AddWarning(InjectorUnavailable, "media",
			fmt.Sprintf("%d image(s) had an invalid URL and were skipped", media.Invalid), "")
	}

	restored, err := protect.RestoreStrict(markdown, spans)
	if err != nil {
		result.AddWarning(Internal, "restore", "protected span not restored exactly once", err.Error())
		logger.Error("protected span mismatch", "error", err)
	}

	result.Title = title
	result.Markdown = restored
	result.Body = bodyWithoutTitle(restored, title)
	result.Excerpt = Excerpt(result.Body, n.config.ExcerptLength)

	stats.OutputBytes = len(restored)
	stats.TotalDuration = time.Since(start)

	if n.config.Debug {
		logger.Debug("normalize complete",
			"legacy", class.IsLegacy,
			"title_source", stats.TitleSource,
			"input_bytes", stats.InputBytes,
			"output_bytes", stats.OutputBytes,
			"warnings", len(result.Warnings),
			"duration", stats.TotalDuration)
	}
	return result
}

// processNormalized passes already-normalized text through untouched apart
// from trimming. The title is the first qualifying H1, else the topic, else
// the first heading or line.
func (n *Normalizer) processNormalized(text, topic string, result *Result) (string, string) {
	body := strings.TrimSpace(text)
	for _, c := range titleFromAnyH1(splitLines(body)) {
		if t := cleanTitle(c.text); qualifiesAsTitle(t, n.config.MinTitleLength) {
			result.Stats.TitleSource = TitleSourceH1
			return t, body
		}
	}
	if title := strings.TrimSpace(topic); title != "" {
		result.Stats.TitleSource = TitleSourceTopic
		return title, body
	}
	title := firstLineTitle(splitLines(body))
	result.Stats.TitleSource = TitleSourceFirstLine
	result.AddWarning(ExtractionAmbiguous, "title", "no heading qualifies as title and no topic given", title)
	return title, body
}

// processLegacy extracts the title and body, strips boilerplate and
// formats the result as "# title" followed by the body.
func (n *Normalizer) processLegacy(text, topic string, result *Result) (string, string) {
	stats := result.Stats
	lines := splitLines(strings.TrimSpace(canonicalize(text)))

	title, remaining, source := ExtractTitle(lines, topic, n.config)
	stats.TitleSource = source
	switch source {
	case TitleSourceTopic:
		result.AddWarning(ExtractionAmbiguous, "title", "no title candidate qualified, using topic", topic)
	case TitleSourceFirstLine:
		result.AddWarning(ExtractionAmbiguous, "title", "no title candidate and no topic, using first line", title)
	}

	iso := IsolateBody(remaining, title, n.config)
	stats.MetadataLinesRemoved = iso.MetadataRemoved
	stats.DuplicateLinesRemoved = iso.DuplicatesRemoved
	stats.BodyRetention = iso.Retention()
	if iso.Fallback {
		result.AddWarning(ExtractionAmbiguous, "body", "content marker had no body, using full text", "")
	}
	if !iso.UsedMarker && result.Classification.LegacyMarkers == 0 {
		result.AddWarning(ExtractionAmbiguous, "classify", "unstructured input treated as legacy", "")
	}

	refLen := runeLen(iso.Reference)
	if refLen >= n.config.MinFloorCheckLength && stats.BodyRetention < n.config.ContentFloor {
		msg := fmt.Sprintf("body keeps %.0f%% of input, below the %.0f%% floor",
			stats.BodyRetention*100, n.config.ContentFloor*100)
		result.AddWarning(ContentLossDetected, "body", msg, title)
		logger.Warn("content loss detected", "title", title, "retention", stats.BodyRetention, "reference_runes", refLen)
	}

	body := iso.Body
	if n.config.StripBoilerplate {
		var rep BoilerplateReport
		body, rep = n.stripper.Strip(body)
		stats.StopKeywordTruncations = rep.Truncations
		stats.KeyTakeawaysRemoved = rep.KeyTakeaways
		stats.PromoSentencesRemoved = rep.Promos
	}

	body, fr := Format(body, n.config)
	stats.BoldMarkersStripped = fr.BoldStripped
	stats.ParagraphsMerged = fr.ParagraphsMerged

	if n.config.Debug {
		logger.Debug("legacy extraction",
			"title", title,
			"title_source", source,
			"used_marker", iso.UsedMarker,
			"metadata_removed", iso.MetadataRemoved,
			"duplicates_removed", iso.DuplicatesRemoved,
			"retention", stats.BodyRetention)
	}

	if body == "" {
		return title, "# " + title
	}
	return title, "# " + title + "\n\n" + body
}

// prepare normalizes line endings and drops a leading byte order mark.
// Nothing else is touched, so already-normalized input passes through as is.
func prepare(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

var spaceReplacer = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "\ufeff", "")

// canonicalize applies Unicode composition and replaces non-breaking
// spaces. Only legacy text is rewritten this way.
func canonicalize(s string) string {
	return spaceReplacer.Replace(norm.NFC.String(s))
}
