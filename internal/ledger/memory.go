package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryStore is a concurrency-safe in-memory Store used by unit tests and
// by dev mode when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	wallets  map[string]Wallet
	byUser   map[string]string
	txns     map[string]Transaction
	byWallet map[string][]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wallets:  make(map[string]Wallet),
		byUser:   make(map[string]string),
		txns:     make(map[string]Transaction),
		byWallet: make(map[string][]string),
	}
}

func (s *MemoryStore) CreateWallet(_ context.Context, wallet Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.wallets[wallet.ID]; exists {
		return ErrWalletExists
	}
	if _, exists := s.byUser[wallet.UserID]; exists {
		return ErrWalletExists
	}
	s.wallets[wallet.ID] = wallet
	s.byUser[wallet.UserID] = wallet.ID
	return nil
}

func (s *MemoryStore) GetWallet(_ context.Context, id string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[id]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return w, nil
}

func (s *MemoryStore) GetWalletByUser(_ context.Context, userID string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUser[userID]
	if !ok {
		return Wallet{}, ErrWalletNotFound
	}
	return s.wallets[id], nil
}

func (s *MemoryStore) UpdateBalance(_ context.Context, walletID string, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateBalanceLocked(walletID, balance)
}

func (s *MemoryStore) updateBalanceLocked(walletID string, balance decimal.Decimal) error {
	w, ok := s.wallets[walletID]
	if !ok {
		return ErrWalletNotFound
	}
	w.Balance = balance
	w.UpdatedAt = time.Now().UTC()
	s.wallets[walletID] = w
	return nil
}

func (s *MemoryStore) CreateTransaction(_ context.Context, txn Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createTransactionLocked(txn)
}

func (s *MemoryStore) createTransactionLocked(txn Transaction) error {
	if _, exists := s.txns[txn.ID]; exists {
		return ErrTransactionResolved
	}
	s.txns[txn.ID] = txn
	s.byWallet[txn.WalletID] = append(s.byWallet[txn.WalletID], txn.ID)
	return nil
}

func (s *MemoryStore) ResolveTransaction(_ context.Context, id string, status Status, errMsg string) (Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveTransactionLocked(id, status, errMsg)
}

func (s *MemoryStore) resolveTransactionLocked(id string, status Status, errMsg string) (Transaction, error) {
	txn, ok := s.txns[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	if txn.Status.Terminal() {
		return Transaction{}, ErrTransactionResolved
	}
	txn.Status = status
	txn.ErrorMessage = errMsg
	txn.UpdatedAt = time.Now().UTC()
	s.txns[id] = txn
	return txn, nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, id string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.txns[id]
	if !ok {
		return Transaction{}, ErrTransactionNotFound
	}
	return txn, nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, walletID string, limit, offset int) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byWallet[walletID]
	out := make([]Transaction, 0, limit)
	// newest first
	for i := len(ids) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.txns[ids[i]])
	}
	return out, nil
}

// Begin stages writes in a transactional view; nothing is visible to other
// readers until Commit applies everything under the store lock.
func (s *MemoryStore) Begin(_ context.Context) (Tx, error) {
	return &memoryTx{
		store:   s,
		wallets: make(map[string]Wallet),
		txns:    make(map[string]Transaction),
	}, nil
}

type memoryTx struct {
	store   *MemoryStore
	wallets map[string]Wallet
	txns    map[string]Transaction
	order   []string
	done    bool
}

func (t *memoryTx) CreateWallet(ctx context.Context, wallet Wallet) error {
	if _, err := t.store.GetWallet(ctx, wallet.ID); err == nil {
		return ErrWalletExists
	}
	if _, staged := t.wallets[wallet.ID]; staged {
		return ErrWalletExists
	}
	t.wallets[wallet.ID] = wallet
	return nil
}

func (t *memoryTx) GetWallet(ctx context.Context, id string) (Wallet, error) {
	if w, staged := t.wallets[id]; staged {
		return w, nil
	}
	return t.store.GetWallet(ctx, id)
}

func (t *memoryTx) GetWalletByUser(ctx context.Context, userID string) (Wallet, error) {
	for _, w := range t.wallets {
		if w.UserID == userID {
			return w, nil
		}
	}
	return t.store.GetWalletByUser(ctx, userID)
}

func (t *memoryTx) UpdateBalance(ctx context.Context, walletID string, balance decimal.Decimal) error {
	w, err := t.GetWallet(ctx, walletID)
	if err != nil {
		return err
	}
	w.Balance = balance
	w.UpdatedAt = time.Now().UTC()
	t.wallets[walletID] = w
	return nil
}

func (t *memoryTx) CreateTransaction(_ context.Context, txn Transaction) error {
	if _, staged := t.txns[txn.ID]; staged {
		return ErrTransactionResolved
	}
	t.store.mu.RLock()
	_, exists := t.store.txns[txn.ID]
	t.store.mu.RUnlock()
	if exists {
		return ErrTransactionResolved
	}
	t.txns[txn.ID] = txn
	t.order = append(t.order, txn.ID)
	return nil
}

func (t *memoryTx) ResolveTransaction(_ context.Context, id string, status Status, errMsg string) (Transaction, error) {
	txn, staged := t.txns[id]
	if !staged {
		t.store.mu.RLock()
		stored, exists := t.store.txns[id]
		t.store.mu.RUnlock()
		if !exists {
			return Transaction{}, ErrTransactionNotFound
		}
		txn = stored
	}
	if txn.Status.Terminal() {
		return Transaction{}, ErrTransactionResolved
	}
	txn.Status = status
	txn.ErrorMessage = errMsg
	txn.UpdatedAt = time.Now().UTC()
	if !staged {
		t.order = append(t.order, id)
	}
	t.txns[id] = txn
	return txn, nil
}

func (t *memoryTx) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	if txn, staged := t.txns[id]; staged {
		return txn, nil
	}
	return t.store.GetTransaction(ctx, id)
}

func (t *memoryTx) ListTransactions(ctx context.Context, walletID string, limit, offset int) ([]Transaction, error) {
	return t.store.ListTransactions(ctx, walletID, limit, offset)
}

func (t *memoryTx) Commit(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for id, w := range t.wallets {
		t.store.wallets[id] = w
		t.store.byUser[w.UserID] = id
	}
	for _, id := range t.order {
		txn := t.txns[id]
		if _, exists := t.store.txns[id]; !exists {
			t.store.byWallet[txn.WalletID] = append(t.store.byWallet[txn.WalletID], id)
		}
		t.store.txns[id] = txn
	}
	return nil
}

func (t *memoryTx) Rollback(_ context.Context) error {
	t.done = true
	return nil
}
