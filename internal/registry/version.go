package registry

import "strings"

// CompareVersions orders dot-separated versions by their numeric components.
// When one version's components are a prefix of the other's, the longer
// version is greater, so "1.2.0" > "1.2". Components without leading digits
// are ignored. Versions with equal components fall back to byte order so the
// result is a total order.
func CompareVersions(a, b string) int {
	ap, bp := numericParts(a), numericParts(b)
	for i := 0; i < len(ap) && i < len(bp); i++ {
		if c := compareDigits(ap[i], bp[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ap) > len(bp):
		return 1
	case len(ap) < len(bp):
		return -1
	}
	return strings.Compare(a, b)
}

// MatchesPrefix reports whether every dot-separated component of prefix equals
// the component of version at the same position.
func MatchesPrefix(version, prefix string) bool {
	if prefix == "" {
		return true
	}
	vParts := strings.Split(version, ".")
	pParts := strings.Split(prefix, ".")
	if len(pParts) > len(vParts) {
		return false
	}
	for i, part := range pParts {
		if vParts[i] != part {
			return false
		}
	}
	return true
}

// numericParts returns the leading digit run of each component with leading
// zeros trimmed, so components compare without integer overflow.
func numericParts(version string) []string {
	var parts []string
	for _, component := range strings.Split(version, ".") {
		end := 0
		for end < len(component) && component[end] >= '0' && component[end] <= '9' {
			end++
		}
		if end == 0 {
			continue
		}
		digits := strings.TrimLeft(component[:end], "0")
		if digits == "" {
			digits = "0"
		}
		parts = append(parts, digits)
	}
	return parts
}

func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) > len(b) {
			return 1
		}
		return -1
	}
	return strings.Compare(a, b)
}
