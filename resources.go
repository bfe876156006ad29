package runlocker

import (
	"sort"
	"strings"
)

// Canonicalize returns the canonical form of a resource set: the sorted,
// comma-joined concatenation of its members. Two acquisitions refer to the
// same resources iff their canonical forms are byte-equal.
func Canonicalize(resources []string) string {
	if len(resources) == 0 {
		return ""
	}
	sorted := make([]string, len(resources))
	copy(sorted, resources)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// storeKey returns the deterministic coordination-store key for a single
// resource under a lock name: "name:resource".
func storeKey(lockName, resource string) string {
	return lockName + ":" + resource
}

// storeKeys maps every resource in the (already sorted) canonical form's
// members to its store key.
func storeKeys(lockName string, resources []string) []string {
	keys := make([]string, len(resources))
	for i, r := range resources {
		keys[i] = storeKey(lockName, r)
	}
	return keys
}
