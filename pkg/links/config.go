package links

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Config defines the link budgets and collaborator limits.
type Config struct {
	// MaxInternal, MaxExternal and MaxPromotional are the per-document
	// budgets.
	MaxInternal    int `json:"max_internal" yaml:"max_internal" validate:"gte=0"`
	MaxExternal    int `json:"max_external" yaml:"max_external" validate:"gte=0"`
	MaxPromotional int `json:"max_promotional" yaml:"max_promotional" validate:"gte=0"`

	// LookupTimeout bounds each call to a Source.
	LookupTimeout time.Duration `json:"lookup_timeout" yaml:"lookup_timeout" validate:"gt=0"`

	// BreakerThreshold is the number of consecutive source failures that
	// open the circuit breaker.
	BreakerThreshold uint `json:"breaker_threshold" yaml:"breaker_threshold" validate:"gte=1"`

	// BreakerDelay is how long the breaker stays open before a trial call.
	BreakerDelay time.Duration `json:"breaker_delay" yaml:"breaker_delay" validate:"gte=0"`

	// MentionTemplate is the sentence appended when the business is not
	// mentioned. {name} is replaced by the link.
	MentionTemplate string `json:"mention_template" yaml:"mention_template" validate:"required,contains={name}"`

	// StripBold removes bold wrappers around and inside injected anchors.
	StripBold bool `json:"strip_bold" yaml:"strip_bold"`
}

// DefaultConfig returns the default budgets.
func DefaultConfig() *Config {
	return &Config{
		MaxInternal:      3,
		MaxExternal:      2,
		MaxPromotional:   1,
		LookupTimeout:    10 * time.Second,
		BreakerThreshold: 3,
		BreakerDelay:     30 * time.Second,
		MentionTemplate:  "Learn more from {name}.",
		StripBold:        true,
	}
}

// Max returns the budget for kind.
func (c *Config) Max(kind Kind) int {
	switch kind {
	case Internal:
		return c.MaxInternal
	case External:
		return c.MaxExternal
	case Promotional:
		return c.MaxPromotional
	default:
		return 0
	}
}

var validate = validator.New()

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Merge merges another config into this one. Non-zero values from other
// override this config.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	merged := *c

	if other.MaxInternal > 0 {
		merged.MaxInternal = other.MaxInternal
	}
	if other.MaxExternal > 0 {
		merged.MaxExternal = other.MaxExternal
	}
	if other.MaxPromotional > 0 {
		merged.MaxPromotional = other.MaxPromotional
	}
	if other.LookupTimeout > 0 {
		merged.LookupTimeout = other.LookupTimeout
	}
	if other.BreakerThreshold > 0 {
		merged.BreakerThreshold = other.BreakerThreshold
	}
	if other.BreakerDelay > 0 {
		merged.BreakerDelay = other.BreakerDelay
	}
	if other.MentionTemplate != "" {
		merged.MentionTemplate = other.MentionTemplate
	}
	if other.StripBold {
		merged.StripBold = true
	}

	return &merged
}
