package section

// DefaultMinBytes is the smallest encoded section length accepted without a
// retry. Shorter matches are usually a table of contents entry or a
// cross-reference to the real heading.
const DefaultMinBytes = 1000

// RetryPolicy controls the plausibility check and the single re-attempt.
type RetryPolicy struct {
	// MinBytes is the plausibility threshold in UTF-8 bytes.
	MinBytes int `yaml:"min_bytes" json:"min_bytes"`

	// DiscardShortOnRetryMiss drops an implausibly short first match when
	// the retry finds nothing, instead of keeping it.
	DiscardShortOnRetryMiss bool `yaml:"discard_short_on_retry_miss" json:"discard_short_on_retry_miss"`
}

// DefaultRetryPolicy returns the policy used for 10-K filings.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MinBytes: DefaultMinBytes}
}

// Extraction is the result of the attempt, check, re-attempt pipeline.
type Extraction struct {
	// Section is the chosen section, nil when none was found.
	Section *Section

	// Retried is true when the first match was implausible and a second
	// search was issued.
	Retried bool

	// First is the first attempt's match, kept for diagnostics.
	First Match
}

// Extractor applies a RetryPolicy on top of a Locator.
type Extractor struct {
	locator *Locator
	policy  RetryPolicy
}

// NewExtractor creates an Extractor.
func NewExtractor(locator *Locator, policy RetryPolicy) *Extractor {
	if policy.MinBytes <= 0 {
		policy.MinBytes = DefaultMinBytes
	}
	return &Extractor{locator: locator, policy: policy}
}

// Extract locates the section in normalized text, retrying once past an
// implausibly short first match.
func (extractor *Extractor) Extract(text string) Extraction {
	first := extractor.locator.Locate(text, 0)
	if !extractor.implausible(first) {
		return Extraction{Section: first.Section, First: first}
	}
	return extractor.reattempt(text, first)
}

// implausible reports whether a found match is too short to be the section.
func (extractor *Extractor) implausible(match Match) bool {
	return match.Found() && len(match.Section.Text) < extractor.policy.MinBytes
}

// reattempt searches again from the first match's end marker, where the
// locator also accepts a repeated "ITEM 7" heading as the end.
func (extractor *Extractor) reattempt(text string, first Match) Extraction {
	second := extractor.locator.Locate(text, first.RetryOffset)
	if second.Found() {
		return Extraction{Section: second.Section, Retried: true, First: first}
	}
	if extractor.policy.DiscardShortOnRetryMiss {
		return Extraction{Retried: true, First: first}
	}
	return Extraction{Section: first.Section, Retried: true, First: first}
}
