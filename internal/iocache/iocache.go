// Package iocache is for the review, model and verdict stores behind revscore.
package iocache

import (
	"sync"

	"github.com/huangsam/revscore/internal/contract"
)

// Stores holds the review store, model store and verdict cache of a process.
type Stores struct {
	sync.RWMutex // Protects the store pointers during initialization
	reviews      contract.ReviewStore
	models       contract.ModelStore
	verdicts     contract.CacheStore
}

var _ contract.StoreManager = &Stores{} // Compile-time check

// NewStores wires already opened stores together. Any of them may be nil.
func NewStores(reviews contract.ReviewStore, models contract.ModelStore, verdicts contract.CacheStore) *Stores {
	return &Stores{reviews: reviews, models: models, verdicts: verdicts}
}

// GetReviewStore returns the comment and feedback store.
func (mgr *Stores) GetReviewStore() contract.ReviewStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.reviews
}

// GetModelStore returns the calibration model store.
func (mgr *Stores) GetModelStore() contract.ModelStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.models
}

// GetVerdictCache returns the sentiment verdict cache.
func (mgr *Stores) GetVerdictCache() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.verdicts
}

// Close closes every store that was opened.
func (mgr *Stores) Close() {
	mgr.Lock()
	defer mgr.Unlock()
	if mgr.reviews != nil {
		_ = mgr.reviews.Close()
	}
	if mgr.models != nil {
		_ = mgr.models.Close()
	}
	if mgr.verdicts != nil {
		_ = mgr.verdicts.Close()
	}
}
