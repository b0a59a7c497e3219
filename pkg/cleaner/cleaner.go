// Package cleaner converts inbound content into the markdown the normalizer
// works on. Generated articles sometimes arrive as HTML; a Cleaner turns them
// into markdown before any heuristics run.
package cleaner

// Cleaner transforms content into markdown.
type Cleaner interface {
	// Clean transforms the input. Cleaners that cannot handle the input
	// return it unchanged rather than failing.
	Clean(content string) (string, error)

	// Name returns the cleaner type for logging.
	Name() string
}
