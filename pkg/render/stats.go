package render

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRenderFailure marks a failure to produce HTML. It is fatal for the
// document.
var ErrRenderFailure = errors.New("render failure")

// Stats captures what the renderer did.
type Stats struct {
	InputBytes  int `json:"input_bytes"`
	OutputBytes int `json:"output_bytes"`

	ProtectedSpans int `json:"protected_spans"`

	// Repairs
	ImagesRepaired      int  `json:"images_repaired"`
	ImagesDropped       int  `json:"images_dropped"`
	TablesRepaired      int  `json:"tables_repaired"`
	ElementsStyled      int  `json:"elements_styled"`
	TitleHeadingDropped bool `json:"title_heading_dropped"`

	// Timing
	ConvertDuration time.Duration `json:"convert_duration_ms"`
	RepairDuration  time.Duration `json:"repair_duration_ms"`
	TotalDuration   time.Duration `json:"total_duration_ms"`
}

// NewStats creates a new Stats instance.
func NewStats() *Stats {
	return &Stats{}
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %d -> %d bytes\n", s.InputBytes, s.OutputBytes))

	if s.ImagesRepaired > 0 || s.ImagesDropped > 0 || s.TablesRepaired > 0 {
		sb.WriteString(fmt.Sprintf("Repairs: %d images rebuilt, %d images dropped, %d tables rebuilt\n",
			s.ImagesRepaired, s.ImagesDropped, s.TablesRepaired))
	}
	if s.ElementsStyled > 0 {
		sb.WriteString(fmt.Sprintf("Styled: %d elements\n", s.ElementsStyled))
	}
	if s.TitleHeadingDropped {
		sb.WriteString("Title heading dropped\n")
	}

	sb.WriteString(fmt.Sprintf("Timing: convert=%v repair=%v total=%v\n",
		s.ConvertDuration.Round(time.Microsecond),
		s.RepairDuration.Round(time.Microsecond),
		s.TotalDuration.Round(time.Microsecond)))

	return sb.String()
}

// Result contains the output of a render.
type Result struct {
	HTML  string `json:"html"`
	Stats *Stats `json:"stats"`
}
