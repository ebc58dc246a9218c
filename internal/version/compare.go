// Package version provides dotted version string comparison for the
// app/backend compatibility checks.
//
// Versions are plain dotted integers ("1.1.0", "1.2"). This deliberately is
// NOT semver: there is no "v" prefix, missing trailing components count as
// zero, and unparsable components coerce to zero so the comparator is total.
package version

import (
	"strconv"
	"strings"
)

// Compare compares two dotted version strings positionally.
//
// Returns -1 if a < b, 0 if equal, 1 if a > b. Missing trailing components
// are treated as 0, so "1.2" == "1.2.0". Components that fail to parse as
// integers are treated as 0. Compare never panics and is antisymmetric:
// Compare(a, b) == -Compare(b, a).
func Compare(a, b string) int {
	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")

	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}

	for i := 0; i < n; i++ {
		va := component(pa, i)
		vb := component(pb, i)
		if va < vb {
			return -1
		}
		if va > vb {
			return 1
		}
	}
	return 0
}

// component returns the i-th version component, or 0 if missing/unparsable.
func component(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
	if err != nil {
		return 0
	}
	return v
}

// IsBackendOutdated reports whether the backend script version is older than
// the minimum the client requires. A missing version is treated as outdated,
// since pre-versioning backends predate every versioned release.
func IsBackendOutdated(got, required string) bool {
	if got == "" {
		return true
	}
	return Compare(got, required) < 0
}
