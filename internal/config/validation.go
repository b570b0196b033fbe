package config

import (
	"fmt"
	"strings"

	"sysinput/internal/learner"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig performs validation of the full configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	if c.Buffer.Capacity < 256 {
		errs = append(errs, ValidationError{
			Field:   "buffer.capacity",
			Message: "must be at least 256",
		})
	}

	if c.Field.MaxReadBytes < c.Buffer.Capacity {
		errs = append(errs, ValidationError{
			Field:   "field.max_read_bytes",
			Message: "must be at least buffer.capacity",
		})
	}

	errs = append(errs, validateEngine(&c.Engine)...)
	errs = append(errs, validateVerify(&c.Verify)...)
	errs = append(errs, validateInsertion(&c.Insertion)...)
	errs = append(errs, validateDictionary(&c.Dictionary)...)
	errs = append(errs, validateSuggest(&c.Suggest)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateEngine(e *EngineConfig) ValidationErrors {
	var errs ValidationErrors

	if e.RetryDelayMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "engine.retry_delay_ms",
			Message: "cannot be negative",
		})
	}
	if e.RecheckDelayMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "engine.recheck_delay_ms",
			Message: "cannot be negative",
		})
	}
	if e.DetectEvery < 1 {
		errs = append(errs, ValidationError{
			Field:   "engine.detect_every",
			Message: "must be at least 1",
		})
	}
	for i, name := range e.StrategyOrder {
		if _, err := learner.Parse(name); err != nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("engine.strategy_order[%d]", i),
				Message: err.Error(),
			})
		}
	}

	return errs
}

func validateVerify(v *VerifyConfig) ValidationErrors {
	var errs ValidationErrors

	if v.ShortTextMax < 1 {
		errs = append(errs, ValidationError{
			Field:   "verify.short_text_max",
			Message: "must be at least 1",
		})
	}
	if v.PrefixLen < 1 {
		errs = append(errs, ValidationError{
			Field:   "verify.prefix_len",
			Message: "must be at least 1",
		})
	}
	if v.SimilarityThreshold < 0 || v.SimilarityThreshold > 1 {
		errs = append(errs, ValidationError{
			Field:   "verify.similarity_threshold",
			Message: "must be in [0, 1]",
		})
	}

	return errs
}

func validateInsertion(i *InsertionConfig) ValidationErrors {
	var errs ValidationErrors

	if i.InterKeyDelayMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "insertion.inter_key_delay_ms",
			Message: "cannot be negative",
		})
	}
	if i.PasteSettleMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "insertion.paste_settle_ms",
			Message: "cannot be negative",
		})
	}

	return errs
}

func validateDictionary(d *DictionaryConfig) ValidationErrors {
	var errs ValidationErrors

	if d.MinPrefixLen < 1 {
		errs = append(errs, ValidationError{
			Field:   "dictionary.min_prefix_len",
			Message: "must be at least 1",
		})
	}

	return errs
}

func validateSuggest(s *SuggestConfig) ValidationErrors {
	var errs ValidationErrors

	if s.MaxCandidates < 1 {
		errs = append(errs, ValidationError{
			Field:   "suggest.max_candidates",
			Message: "must be at least 1",
		})
	}
	if s.CacheSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "suggest.cache_size",
			Message: "must be at least 1",
		})
	}
	if s.FuzzyThreshold < 0 || s.FuzzyThreshold > 1 {
		errs = append(errs, ValidationError{
			Field:   "suggest.fuzzy_threshold",
			Message: "must be in [0, 1]",
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level %q", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format %q", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr", "file", "both":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid output %q", l.Output),
		})
	}

	if (l.Output == "file" || l.Output == "both") && l.FilePath == "" {
		errs = append(errs, ValidationError{
			Field:   "logging.file_path",
			Message: "required when output includes file",
		})
	}

	return errs
}
