package agent

import "strings"

// MajorMinor reduces a dotted version to its major.minor slice:
// "10.1.16" → "10.1", "18" → "18". Year-form versions ("2012 R2") pass
// through unchanged.
func MajorMinor(version string) string {
	version = strings.TrimSpace(version)
	parts := strings.Split(version, ".")
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return version
}

// Major returns the leading segment of a dotted version.
func Major(version string) string {
	version = strings.TrimSpace(version)
	if idx := strings.IndexByte(version, '.'); idx >= 0 {
		return version[:idx]
	}
	return version
}

// VersionsCompatible compares the major.minor slice of an input version
// against a static entry's cycle label. Either side substring-containing
// the other is a match; single-segment versions compare majors only.
// An empty input version matches anything.
func VersionsCompatible(input, cycle string) bool {
	input = strings.TrimSpace(input)
	cycle = strings.TrimSpace(cycle)
	if input == "" || cycle == "" {
		return input == "" // an empty cycle label cannot satisfy a concrete version
	}

	inputMM := MajorMinor(input)
	// Cycle labels carry decorations on either side of the version, like
	// "20.04 LTS" or "RHEL 8"; strip to the version token before comparing.
	cycleToken := versionField(cycle)

	if !strings.Contains(input, ".") || !strings.Contains(cycleToken, ".") {
		return Major(input) == Major(cycleToken)
	}

	cycleMM := MajorMinor(cycleToken)
	return strings.Contains(inputMM, cycleMM) || strings.Contains(cycleMM, inputMM)
}

// versionField picks the first whitespace-separated token containing a
// digit. Labels without one fall back to their first token.
func versionField(s string) string {
	fields := strings.Fields(s)
	for _, field := range fields {
		if strings.ContainsAny(field, "0123456789") {
			return field
		}
	}
	return fields[0]
}
