// Package iocache persists rosters and classification runs on sqlite, mysql or postgresql.
package iocache

import (
	"sync"

	"github.com/huangsam/tierscope/internal/contract"
)

// StoreManagerImpl manages the roster and run store instances.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	roster       contract.RosterStore
	runs         contract.RunStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetRosterStore returns the RosterStore.
func (mgr *StoreManagerImpl) GetRosterStore() contract.RosterStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.roster
}

// GetRunStore returns the RunStore.
func (mgr *StoreManagerImpl) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
