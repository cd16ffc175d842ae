// Package fallback implements the generic headless-browser agent used
// when no vendor agent matches a product. It searches the web for
// lifecycle statements and runs a keyword-anchored date extraction over
// the result text.
package fallback

import (
	"regexp"
	"strings"

	"github.com/codeready-toolchain/eolscout/pkg/dateparse"
)

// Extraction carries the dates recovered from free text plus the
// confidence of the best match and a short evidence snippet for the UI.
type Extraction struct {
	EOLDate        string
	SupportEndDate string
	ReleaseDate    string
	Confidence     float64
	Evidence       string
}

// HasLifecycleDate reports whether an EOL or support-end date was found.
// Release-only extractions do not count: a release date alone says
// nothing about end of life.
func (e *Extraction) HasLifecycleDate() bool {
	return e != nil && (e.EOLDate != "" || e.SupportEndDate != "")
}

// Confidence tiers for extracted dates. A date sitting inside the context
// window of an EOL keyword ranks very high; bare natural-language dates
// rank high; bare numeric dates rank medium.
const (
	tierLow = iota
	tierMedium
	tierHigh
	tierVeryHigh
)

var tierConfidence = map[int]float64{
	tierVeryHigh: 0.95,
	tierHigh:     0.85,
	tierMedium:   0.70,
	tierLow:      0.50,
}

// contextWindow is how far (in characters) a keyword may sit from a date
// and still classify it.
const contextWindow = 100

var (
	eolKeywords = regexp.MustCompile(`(?i)\b(end.of.life|eol|support\s+ends?|extended\s+support|retire(?:ment|d)?|deprecated|sunset)\b`)

	supportKeywords = regexp.MustCompile(`(?i)\b(end\s+of\s+support|mainstream\s+support|support\s+until|security\s+support)\b`)

	releaseKeywords = regexp.MustCompile(`(?i)\b(released?|general\s+availability|\bga\b|shipped|launched)\b`)
)

// datePatterns in priority order; the tier is the base confidence for a
// match with no keyword context.
var datePatterns = []struct {
	re   *regexp.Regexp
	tier int
}{
	{regexp.MustCompile(`(?i)\b(\d{1,2}(?:st|nd|rd|th)?\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*,?\s+\d{4})\b`), tierHigh},
	{regexp.MustCompile(`(?i)\b((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{1,2},?\s+\d{4})\b`), tierHigh},
	{regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), tierMedium},
	{regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`), tierMedium},
}

type dateCandidate struct {
	iso      string
	position int
	end      int
	tier     int
	kind     string // "eol", "support", "release"
	evidence string
}

// ExtractDates runs the keyword-anchored extraction over text. It returns
// nil when no parseable date is found at all. The Confidence of the
// result reflects the best EOL or support match; a release-only result
// keeps the release date's own tier.
func ExtractDates(text string) *Extraction {
	var candidates []dateCandidate
	for _, pattern := range datePatterns {
		for _, match := range pattern.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := match[2], match[3]
			raw := text[start:end]
			parsed, ok := dateparse.Parse(stripOrdinals(raw))
			if !ok {
				continue
			}
			candidates = append(candidates, classify(text, dateCandidate{
				iso:      parsed.Format(dateparse.ISO),
				position: start,
				end:      end,
				tier:     pattern.tier,
				evidence: snippet(text, start, end),
			}))
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	extraction := &Extraction{}
	var bestEOL, bestSupport *dateCandidate
	for i := range candidates {
		candidate := &candidates[i]
		switch candidate.kind {
		case "eol":
			bestEOL = pickBest(bestEOL, candidate)
		case "support":
			bestSupport = pickBest(bestSupport, candidate)
		case "release":
			if extraction.ReleaseDate == "" {
				extraction.ReleaseDate = candidate.iso
			}
		}
	}

	best := pickBest(bestEOL, bestSupport)
	if bestEOL != nil {
		extraction.EOLDate = bestEOL.iso
	}
	if bestSupport != nil {
		extraction.SupportEndDate = bestSupport.iso
	}
	if best != nil {
		extraction.Confidence = tierConfidence[best.tier]
		extraction.Evidence = best.evidence
	} else if extraction.ReleaseDate != "" {
		extraction.Confidence = tierConfidence[tierLow]
	}
	return extraction
}

// classify decides which lifecycle field a date belongs to from the
// keyword nearest to it within the ±100-character window. Keywords
// preceding the date outrank keywords following it: lifecycle prose
// leads with the keyword ("end of life: <date>", "shipped on <date>"),
// so wording after the date usually opens the next statement and must
// not reclassify this one. Release language elsewhere in the window
// still downgrades a lifecycle date one tier unless EOL is named
// explicitly.
func classify(text string, candidate dateCandidate) dateCandidate {
	eolBefore, eolAfter := nearestGaps(eolKeywords, text, candidate)
	supportBefore, supportAfter := nearestGaps(supportKeywords, text, candidate)
	releaseBefore, releaseAfter := nearestGaps(releaseKeywords, text, candidate)

	hasRelease := releaseBefore >= 0 || releaseAfter >= 0
	window := contextAround(text, candidate.position)

	kind := nearestClass(eolBefore, supportBefore, releaseBefore)
	if kind == "" {
		kind = nearestClass(eolAfter, supportAfter, releaseAfter)
	}

	switch kind {
	case "eol":
		candidate.kind = "eol"
		candidate.tier = tierVeryHigh
		if hasRelease && !explicitEOL(window) {
			candidate.tier = tierHigh
		}
	case "support":
		candidate.kind = "support"
		candidate.tier = tierVeryHigh
		if hasRelease {
			candidate.tier = tierHigh
		}
	case "release":
		candidate.kind = "release"
	default:
		// No keyword context: keep the pattern-shape tier and treat the
		// date as a weak EOL candidate.
		candidate.kind = "eol"
	}
	return candidate
}

// nearestGaps measures the distance from the date span to the closest
// match of re in each direction. -1 means no match within contextWindow
// on that side; a match overlapping the date counts as adjacent.
func nearestGaps(re *regexp.Regexp, text string, candidate dateCandidate) (before, after int) {
	before, after = -1, -1
	for _, loc := range re.FindAllStringIndex(text, -1) {
		switch {
		case loc[1] <= candidate.position:
			gap := candidate.position - loc[1]
			if gap <= contextWindow && (before < 0 || gap < before) {
				before = gap
			}
		case loc[0] >= candidate.end:
			gap := loc[0] - candidate.end
			if gap <= contextWindow && (after < 0 || gap < after) {
				after = gap
			}
		default:
			before = 0
		}
	}
	return before, after
}

// nearestClass picks the keyword class closest to the date. Lifecycle
// classes win distance ties over release.
func nearestClass(eol, support, release int) string {
	best, kind := -1, ""
	for _, c := range []struct {
		gap  int
		kind string
	}{
		{eol, "eol"},
		{support, "support"},
		{release, "release"},
	} {
		if c.gap < 0 {
			continue
		}
		if best < 0 || c.gap < best {
			best, kind = c.gap, c.kind
		}
	}
	return kind
}

// explicitEOL reports whether the window names end-of-life directly, not
// merely via the broader lifecycle vocabulary.
var explicitEOLRe = regexp.MustCompile(`(?i)\b(end.of.life|eol)\b`)

func explicitEOL(window string) bool {
	return explicitEOLRe.MatchString(window)
}

func contextAround(text string, position int) string {
	start := position - contextWindow
	if start < 0 {
		start = 0
	}
	end := position + contextWindow
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

// snippet produces the short evidence string stored in the envelope.
func snippet(text string, start, end int) string {
	lo := start - 60
	if lo < 0 {
		lo = 0
	}
	hi := end + 60
	if hi > len(text) {
		hi = len(text)
	}
	return strings.Join(strings.Fields(text[lo:hi]), " ")
}

var ordinalSuffix = regexp.MustCompile(`(?i)(\d{1,2})(st|nd|rd|th)`)

func stripOrdinals(s string) string {
	return ordinalSuffix.ReplaceAllString(s, "$1")
}

// pickBest prefers the higher tier; earlier matches win ties.
func pickBest(a, b *dateCandidate) *dateCandidate {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.tier > a.tier {
		return b
	}
	return a
}
