package config

import (
	"strconv"
	"sync"

	"github.com/ubinix-warun/suibase/pkg/types"
)

// PackagesConfig is one workdir's desired set: the externally maintained
// configuration the reconciliation loop compares against. Multiple
// instances of the same logical package (same uuid, different
// package_id/timestamp because it was redeployed) may be registered; only
// the most recent instance per uuid is ever returned to a caller.
type PackagesConfig struct {
	mu        sync.RWMutex
	instances map[string][]types.PackageIdentity // keyed by package_uuid
}

// NewPackagesConfig returns an empty desired set.
func NewPackagesConfig() *PackagesConfig {
	return &PackagesConfig{instances: make(map[string][]types.PackageIdentity)}
}

// AddInstance registers a package instance, appending to its uuid's
// history. Exact duplicates (same uuid+timestamp) are ignored.
func (pc *PackagesConfig) AddInstance(pkg types.PackageIdentity) (added bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	for _, existing := range pc.instances[pkg.PackageUUID] {
		if existing.PackageTimestamp == pkg.PackageTimestamp {
			return false
		}
	}
	pc.instances[pkg.PackageUUID] = append(pc.instances[pkg.PackageUUID], pkg)
	return true
}

// RemoveUUID deletes every instance of a logical package from the
// desired set. A subsequent AUDIT will mark any tracker for it
// remove_requested.
func (pc *PackagesConfig) RemoveUUID(uuid string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	delete(pc.instances, uuid)
}

// IterMostRecentPackageInstance enumerates one record per package
// identity: the instance with the greatest timestamp for each uuid.
func (pc *PackagesConfig) IterMostRecentPackageInstance() []types.PackageIdentity {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	out := make([]types.PackageIdentity, 0, len(pc.instances))
	for _, history := range pc.instances {
		if best, ok := mostRecent(history); ok {
			out = append(out, best)
		}
	}
	return out
}

// IsMostRecent reports whether (uuid, timestamp) names the current
// instance of a package still in the desired set.
func (pc *PackagesConfig) IsMostRecent(uuid, timestamp string) bool {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	best, ok := mostRecent(pc.instances[uuid])
	return ok && best.PackageTimestamp == timestamp
}

// mostRecent picks the instance with the greatest timestamp. Timestamps
// are compared numerically when both parse as integers (the convention
// upstream uses: milliseconds since epoch), falling back to a plain
// string comparison otherwise so arbitrary opaque timestamps still yield
// a deterministic, if not chronological, ordering.
func mostRecent(history []types.PackageIdentity) (types.PackageIdentity, bool) {
	if len(history) == 0 {
		return types.PackageIdentity{}, false
	}
	best := history[0]
	for _, candidate := range history[1:] {
		if timestampLess(best.PackageTimestamp, candidate.PackageTimestamp) {
			best = candidate
		}
	}
	return best, true
}

func timestampLess(a, b string) bool {
	an, aerr := strconv.ParseInt(a, 10, 64)
	bn, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return an < bn
	}
	return a < b
}
