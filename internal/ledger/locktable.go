package ledger

import "sync"

// LockTable hands out per-wallet mutexes so no two operations mutate the
// same wallet's balance concurrently. Entries are created on demand and
// never evicted; the table is bounded by wallet cardinality.
type LockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockTable builds an empty lock table. It is injected into the engine
// rather than living as package state.
func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]*sync.Mutex)}
}

func (t *LockTable) lockFor(walletID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[walletID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[walletID] = l
	}
	return l
}

// Acquire blocks until the wallet's mutex is held and returns the release
// function. Callers must defer the release so it runs on every exit path.
func (t *LockTable) Acquire(walletID string) (release func()) {
	l := t.lockFor(walletID)
	l.Lock()
	return l.Unlock
}

// AcquirePair locks two wallets in lexicographic id order so concurrent
// transfers over the same pair, in either direction, always request locks
// in the same global order and cannot deadlock. Release happens in reverse
// acquisition order.
func (t *LockTable) AcquirePair(a, b string) (release func()) {
	if a == b {
		return t.Acquire(a)
	}
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	firstLock := t.lockFor(first)
	secondLock := t.lockFor(second)
	firstLock.Lock()
	secondLock.Lock()
	return func() {
		secondLock.Unlock()
		firstLock.Unlock()
	}
}

// Len reports how many wallets have a lock entry.
func (t *LockTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}
