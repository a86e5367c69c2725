package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
)

var (
	// ErrUserExists indicates the phone number is already registered.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound indicates no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials covers both a missing account and a wrong PIN
	// so login responses do not leak which one it was.
	ErrInvalidCredentials = errors.New("invalid phone or PIN")
)

// WalletProvisioner creates the user's wallet at registration time.
type WalletProvisioner interface {
	Create(ctx context.Context, userID string, tier ledger.Tier) (ledger.Wallet, error)
}

// Service manages the identity lifecycle. Every registered user gets a
// wallet in the tier they signed up with.
type Service struct {
	repo    Repository
	wallets WalletProvisioner
}

// NewService creates a new identity service. wallets may be nil when
// registration should not provision a wallet.
func NewService(repo Repository, wallets WalletProvisioner) *Service {
	return &Service{repo: repo, wallets: wallets}
}

// Register creates a user with a hashed PIN and provisions their wallet.
func (s *Service) Register(ctx context.Context, reg Registration) (User, ledger.Wallet, error) {
	if len(reg.PIN) < 4 {
		return User{}, ledger.Wallet{}, errors.New("PIN must be at least 4 digits")
	}
	if reg.Phone == "" {
		return User{}, ledger.Wallet{}, errors.New("phone is required")
	}
	tier := reg.Tier
	if tier == "" {
		tier = ledger.TierBasic
	}
	if _, err := ledger.LimitForTier(tier); err != nil {
		return User{}, ledger.Wallet{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.PIN), bcrypt.DefaultCost)
	if err != nil {
		return User{}, ledger.Wallet{}, err
	}

	user := User{
		ID:        uuid.New().String(),
		Phone:     reg.Phone,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		ImageURL:  reg.ImageURL,
		Tier:      tier,
		PINHash:   hash,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, ledger.Wallet{}, err
	}

	var w ledger.Wallet
	if s.wallets != nil {
		w, err = s.wallets.Create(ctx, user.ID, user.Tier)
		if err != nil {
			return User{}, ledger.Wallet{}, fmt.Errorf("provision wallet: %w", err)
		}
	}

	return user, w, nil
}

// Authenticate verifies phone and PIN.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	user, err := s.repo.FindByPhone(ctx, creds.Phone)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PINHash, []byte(creds.PIN)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// BumpTokenVersion invalidates every refresh token issued before now.
func (s *Service) BumpTokenVersion(ctx context.Context, id string) (int, error) {
	return s.repo.IncrementTokenVersion(ctx, id)
}
