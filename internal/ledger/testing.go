package ledger

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that overwrites a wallet's balance when the
// store is the in-memory implementation.
func SeedBalance(s Store, walletID string, balance decimal.Decimal) {
	if mem, ok := s.(*MemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		w := mem.wallets[walletID]
		w.Balance = balance
		mem.wallets[walletID] = w
	}
}
