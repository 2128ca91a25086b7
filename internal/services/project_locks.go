package services

import "sync"

// hierarchyLockKey guards changes to the shape of the tree: new projects, re-parenting
// and deletion. It is always taken before a project key.
const hierarchyLockKey uint = 0

type projectLock struct {
	mu      sync.Mutex
	holders int
}

// projectLocks serializes writers per project id. Entries are dropped once no goroutine
// holds or waits for them.
type projectLocks struct {
	mu    sync.Mutex
	locks map[uint]*projectLock
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[uint]*projectLock)}
}

// Lock acquires the keys in the given order and returns the matching unlock.
func (registry *projectLocks) Lock(keys ...uint) func() {
	acquired := make([]uint, 0, len(keys))
	seen := make(map[uint]struct{}, len(keys))
	for _, key := range keys {
		if _, duplicate := seen[key]; duplicate {
			continue
		}
		seen[key] = struct{}{}
		registry.acquire(key)
		acquired = append(acquired, key)
	}

	return func() {
		for index := len(acquired) - 1; index >= 0; index-- {
			registry.release(acquired[index])
		}
	}
}

func (registry *projectLocks) acquire(key uint) {
	registry.mu.Lock()
	lock, ok := registry.locks[key]
	if !ok {
		lock = &projectLock{}
		registry.locks[key] = lock
	}
	lock.holders++
	registry.mu.Unlock()

	lock.mu.Lock()
}

func (registry *projectLocks) release(key uint) {
	registry.mu.Lock()
	lock := registry.locks[key]
	lock.holders--
	if lock.holders == 0 {
		delete(registry.locks, key)
	}
	registry.mu.Unlock()

	lock.mu.Unlock()
}
