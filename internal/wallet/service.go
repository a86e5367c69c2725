package wallet

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
)

// Service provisions wallets and serves wallet reads, with a redis
// cache-aside on by-user lookups. It also implements ledger.Observer so
// committed balance writes invalidate the cache.
type Service struct {
	store  ledger.Store
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewService builds a wallet service. cache may be nil (dev/tests).
func NewService(store ledger.Store, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, ttl: ttl, logger: logger}
}

// Create provisions a wallet for the user with the tier's transaction
// limit and a zero balance. It runs synchronously at user provisioning,
// before any deposit or transfer can target the user.
func (s *Service) Create(ctx context.Context, userID string, tier ledger.Tier) (ledger.Wallet, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return ledger.Wallet{}, err
	}
	limit, err := ledger.LimitForTier(tier)
	if err != nil {
		return ledger.Wallet{}, err
	}

	now := time.Now().UTC()
	w := ledger.Wallet{
		ID:               uuid.NewString(),
		UserID:           userID,
		Balance:          decimal.Zero,
		Tier:             tier,
		TransactionLimit: limit,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreateWallet(ctx, w); err != nil {
		return ledger.Wallet{}, err
	}
	return w, nil
}

// Get retrieves a wallet by id.
func (s *Service) Get(ctx context.Context, id string) (ledger.Wallet, error) {
	return s.store.GetWallet(ctx, id)
}

// GetByUser retrieves the user's wallet, consulting the cache first.
func (s *Service) GetByUser(ctx context.Context, userID string) (ledger.Wallet, error) {
	if w, ok := s.cachedWallet(ctx, userID); ok {
		return w, nil
	}
	w, err := s.store.GetWalletByUser(ctx, userID)
	if err != nil {
		return ledger.Wallet{}, err
	}
	s.cacheWallet(ctx, w)
	return w, nil
}

// Balance is a point-in-time view of available funds.
type Balance struct {
	WalletID string
	Amount   decimal.Decimal
	AsOf     time.Time
}

// Balance returns the wallet's current balance.
func (s *Service) Balance(ctx context.Context, id string) (Balance, error) {
	w, err := s.store.GetWallet(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	return Balance{WalletID: w.ID, Amount: w.Balance, AsOf: time.Now().UTC()}, nil
}

// Transactions lists the wallet's history, newest first.
func (s *Service) Transactions(ctx context.Context, walletID string, limit, offset int) ([]ledger.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.ListTransactions(ctx, walletID, limit, offset)
}

// TransactionRecorded satisfies ledger.Observer; transaction events do not
// touch the wallet cache.
func (s *Service) TransactionRecorded(context.Context, ledger.Event) error { return nil }

// BalanceChanged invalidates the cached wallet after a committed balance
// write.
func (s *Service) BalanceChanged(ctx context.Context, ev ledger.BalanceEvent) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, cacheKey(ev.UserID)).Err()
}

func cacheKey(userID string) string {
	return "wallet:user:" + userID
}

func (s *Service) cachedWallet(ctx context.Context, userID string) (ledger.Wallet, bool) {
	if s.cache == nil {
		return ledger.Wallet{}, false
	}
	payload, err := s.cache.Get(ctx, cacheKey(userID)).Result()
	if err != nil {
		if err != redis.Nil && s.logger != nil {
			s.logger.Warn("wallet cache lookup failed", slog.String("user_id", userID), slog.Any("error", err))
		}
		return ledger.Wallet{}, false
	}
	var w ledger.Wallet
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return ledger.Wallet{}, false
	}
	return w, true
}

func (s *Service) cacheWallet(ctx context.Context, w ledger.Wallet) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(w)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(w.UserID), payload, s.ttl).Err(); err != nil && s.logger != nil {
		s.logger.Warn("wallet cache write failed", slog.String("user_id", w.UserID), slog.Any("error", err))
	}
}
