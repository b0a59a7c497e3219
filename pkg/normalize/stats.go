package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// WarningKind classifies a non-fatal problem.
type WarningKind string

const (
	// ExtractionAmbiguous means a fallback decided the title or body.
	ExtractionAmbiguous WarningKind = "extraction_ambiguous"
	// ContentLossDetected means the isolated body fell below the content floor.
	ContentLossDetected WarningKind = "content_loss_detected"
	// InjectorUnavailable means a link or media collaborator could not be used.
	InjectorUnavailable WarningKind = "injector_unavailable"
	// RenderFailure means the markdown renderer failed. It is always fatal.
	RenderFailure WarningKind = "render_failure"
	// Internal marks an invariant violation inside the pipeline itself.
	Internal WarningKind = "internal"
)

// Sentinel errors for the warning kinds raised by this package.
var (
	ErrExtractionAmbiguous = errors.New("extraction ambiguous")
	ErrContentLossDetected = errors.New("content loss detected")
)

// Stats captures what the normalizer did.
type Stats struct {
	InputBytes  int `json:"input_bytes"`
	OutputBytes int `json:"output_bytes"`

	// Classification
	LegacyMarkers int `json:"legacy_markers"`
	Headings      int `json:"headings"`

	// Extraction
	TitleSource           string  `json:"title_source"`
	MetadataLinesRemoved  int     `json:"metadata_lines_removed"`
	DuplicateLinesRemoved int     `json:"duplicate_lines_removed"`
	BodyRetention         float64 `json:"body_retention"`

	// Boilerplate
	StopKeywordTruncations int `json:"stop_keyword_truncations"`
	KeyTakeawaysRemoved    int `json:"key_takeaways_removed"`
	PromoSentencesRemoved  int `json:"promo_sentences_removed"`

	// Formatting
	BoldMarkersStripped int `json:"bold_markers_stripped"`
	ParagraphsMerged    int `json:"paragraphs_merged"`

	// Media
	ProtectedSpans    int `json:"protected_spans"`
	ImagesPlaced      int `json:"images_placed"`
	ImagesDistributed int `json:"images_distributed"`

	TotalDuration time.Duration `json:"total_duration_ms"`
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{}
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %d -> %d bytes\n", s.InputBytes, s.OutputBytes))
	sb.WriteString(fmt.Sprintf("Classification: %d legacy markers, %d headings\n", s.LegacyMarkers, s.Headings))

	if s.TitleSource != "" {
		sb.WriteString(fmt.Sprintf("Title source: %s\n", s.TitleSource))
	}
	if s.MetadataLinesRemoved > 0 || s.DuplicateLinesRemoved > 0 {
		sb.WriteString(fmt.Sprintf("Extraction: %d metadata lines, %d duplicate title lines removed (%.0f%% retained)\n",
			s.MetadataLinesRemoved, s.DuplicateLinesRemoved, s.BodyRetention*100))
	}

	removed := s.StopKeywordTruncations + s.KeyTakeawaysRemoved + s.PromoSentencesRemoved
	if removed > 0 {
		sb.WriteString(fmt.Sprintf("Boilerplate: %d truncations, %d key takeaways, %d promo sentences\n",
			s.StopKeywordTruncations, s.KeyTakeawaysRemoved, s.PromoSentencesRemoved))
	}

	if s.BoldMarkersStripped > 0 || s.ParagraphsMerged > 0 {
		sb.WriteString(fmt.Sprintf("Formatting: %d bold markers stripped, %d paragraphs merged\n",
			s.BoldMarkersStripped, s.ParagraphsMerged))
	}

	if s.ImagesPlaced > 0 || s.ImagesDistributed > 0 || s.ProtectedSpans > 0 {
		sb.WriteString(fmt.Sprintf("Media: %d placed, %d distributed, %d protected spans\n",
			s.ImagesPlaced, s.ImagesDistributed, s.ProtectedSpans))
	}

	sb.WriteString(fmt.Sprintf("Timing: total=%v\n", s.TotalDuration.Round(time.Microsecond)))

	return sb.String()
}

// Warning represents a non-fatal issue encountered during processing.
type Warning struct {
	Kind    WarningKind `json:"kind" yaml:"kind"`
	Phase   string      `json:"phase" yaml:"phase"`     // "classify", "title", "body", "boilerplate", "format", "media", "render", "links"
	Message string      `json:"message" yaml:"message"` // Human-readable description
	Context string      `json:"context,omitempty" yaml:"context,omitempty"`
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s/%s] %s (context: %s)", w.Phase, w.Kind, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s/%s] %s", w.Phase, w.Kind, w.Message)
}

// Err returns the warning as an error wrapping the sentinel for its kind.
func (w Warning) Err() error {
	switch w.Kind {
	case ExtractionAmbiguous:
		return fmt.Errorf("%w: %s", ErrExtractionAmbiguous, w.Message)
	case ContentLossDetected:
		return fmt.Errorf("%w: %s", ErrContentLossDetected, w.Message)
	default:
		return errors.New(w.String())
	}
}

// Result contains the output of a normalization run.
type Result struct {
	// Title is the extracted title. Never empty when a topic was supplied.
	Title string `json:"title"`

	// Markdown is the normalized document, title heading included.
	Markdown string `json:"markdown"`

	// Body is Markdown without a leading heading equal to Title.
	Body string `json:"body"`

	// Excerpt is the plain-text summary of Body.
	Excerpt string `json:"excerpt"`

	Classification Classification `json:"classification"`

	Stats *Stats `json:"stats"`

	Warnings []Warning `json:"warnings,omitempty"`

	// Error is set only on catastrophic failures (content is still returned).
	Error error `json:"-"`
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(kind WarningKind, phase, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Kind:    kind,
		Phase:   phase,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasWarning reports whether a warning of the given kind was recorded.
func (r *Result) HasWarning(kind WarningKind) bool {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return true
		}
	}
	return false
}
