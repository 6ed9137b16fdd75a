package config

import (
	"sync"

	"github.com/ubinix-warun/suibase/pkg/types"
)

// Store holds one PackagesConfig per managed workdir. It is the daemon's
// single point of contact for the desired set: pkg/wsworker reconciles
// against it, pkg/api mutates it from admin requests.
type Store struct {
	mu         sync.RWMutex
	perWorkdir map[types.WorkdirIdx]*PackagesConfig
}

// NewStore builds a Store with one empty desired set per catalog entry.
func NewStore(cat *Catalog) *Store {
	s := &Store{perWorkdir: make(map[types.WorkdirIdx]*PackagesConfig)}
	for _, wc := range cat.Workdirs {
		s.perWorkdir[wc.Idx] = NewPackagesConfig()
	}
	return s
}

// DesiredSet returns the desired set for idx, or nil if idx isn't
// managed by this daemon instance.
func (s *Store) DesiredSet(idx types.WorkdirIdx) *PackagesConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.perWorkdir[idx]
}
