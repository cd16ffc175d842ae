package agent

import (
	"regexp"
	"sort"
	"strings"
)

// Cycle is one static-table entry: a well-known vendor version line with
// its lifecycle dates. Static entries exist for offline and rate-limited
// operation and for products whose lifecycle is effectively fixed.
type Cycle struct {
	Cycle          string // vendor's label, e.g. "20.04 LTS", "10.1"
	ReleaseDate    string // ISO-8601 or ""
	SupportEndDate string // end of mainstream support
	EOLDate        string // end of all support
	LTS            bool
	Codename       string
	Link           string // upstream evidence URL for this cycle
}

// StaticTable maps normalized product keys to cycles. Keys are normalized
// at construction with NormalizeKey, so "windows_server 2012.R2" and
// "Windows Server 2012 R2" land on the same entry.
type StaticTable struct {
	vendorToken string // e.g. "tomcat", "rhel"; required for tier-2/3 matches
	entries     map[string]Cycle
	order       []string // insertion order, for deterministic partial matching
}

var keySeparators = regexp.MustCompile(`[\s_.]+`)

// NormalizeKey lowercases and dash-normalizes whitespace, underscores,
// and dots so lookup keys are insensitive to vendor punctuation habits.
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = keySeparators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NewStaticTable builds a table for a vendor. vendorToken is the short
// product token used to synthesize version-specific keys ("tomcat-10.1")
// and to anchor partial matches.
func NewStaticTable(vendorToken string, entries map[string]Cycle) *StaticTable {
	t := &StaticTable{
		vendorToken: strings.ToLower(vendorToken),
		entries:     make(map[string]Cycle, len(entries)),
	}
	for key, cycle := range entries {
		normalized := NormalizeKey(key)
		t.entries[normalized] = cycle
		t.order = append(t.order, normalized)
	}
	// Map iteration order is random; keep a stable ordering for the
	// partial-match tiers.
	sort.Strings(t.order)
	return t
}

// Lookup resolves (software, version) against the table, applying the
// match tiers in order. Tie-breaks matter: an exact key always beats a
// synthetic version key, which beats partial matches.
func (t *StaticTable) Lookup(software, version string) (Cycle, bool) {
	if t == nil || len(t.entries) == 0 {
		return Cycle{}, false
	}

	// Tier 1: exact key, optionally with the version appended.
	if version != "" {
		if cycle, ok := t.entries[NormalizeKey(software+"-"+version)]; ok {
			return cycle, true
		}
	}
	if cycle, ok := t.entries[NormalizeKey(software)]; ok {
		if version == "" || VersionsCompatible(version, cycle.Cycle) {
			return cycle, true
		}
	}

	// Tier 2: synthetic "{vendor}-{major.minor}" key, then "-{major}" for
	// products that version at major granularity (Tomcat, RHEL).
	if version != "" {
		if cycle, ok := t.entries[NormalizeKey(t.vendorToken+"-"+MajorMinor(version))]; ok {
			return cycle, true
		}
		if cycle, ok := t.entries[NormalizeKey(t.vendorToken+"-"+Major(version))]; ok {
			return cycle, true
		}
	}

	query := NormalizeKey(software)

	// Tier 3: partial match requiring the vendor token on both sides.
	if strings.Contains(query, t.vendorToken) {
		for _, key := range t.order {
			if !strings.Contains(key, t.vendorToken) {
				continue
			}
			if matchesPartial(query, key, version, t.entries[key].Cycle) {
				return t.entries[key], true
			}
		}
	}

	// Tier 4: generic partial match, last resort; a supplied version must
	// still be compatible with the entry's cycle.
	for _, key := range t.order {
		if matchesPartial(query, key, version, t.entries[key].Cycle) {
			return t.entries[key], true
		}
	}

	return Cycle{}, false
}

// Cycles returns every entry. Used by tests and by bulk cache warming.
func (t *StaticTable) Cycles() []Cycle {
	if t == nil {
		return nil
	}
	out := make([]Cycle, 0, len(t.entries))
	for _, key := range t.order {
		out = append(out, t.entries[key])
	}
	return out
}

func matchesPartial(query, key, version, cycleLabel string) bool {
	if !strings.Contains(key, query) && !strings.Contains(query, keyProduct(key)) {
		return false
	}
	if version == "" {
		return true
	}
	return VersionsCompatible(version, cycleLabel)
}

// keyProduct strips a trailing version-ish suffix from a table key:
// "nodejs-18" → "nodejs". Keys without a digit suffix pass through.
var trailingVersion = regexp.MustCompile(`-[0-9][0-9a-z.-]*$`)

func keyProduct(key string) string {
	return trailingVersion.ReplaceAllString(key, "")
}
