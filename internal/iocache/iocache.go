// Package iocache is for caching I/O calls.
package iocache

import (
	"sync"

	"github.com/GarnettJZ/makan-apa/internal/contract"
)

// CacheStoreManager manages the CacheStore instances.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	timetable    contract.CacheStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetTimetableStore returns the timetable CacheStore.
func (mgr *CacheStoreManager) GetTimetableStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.timetable
}
