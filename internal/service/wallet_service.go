package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"custodial-wallet-backend/internal/core/domain"
	"custodial-wallet-backend/internal/core/ports"
	"custodial-wallet-backend/internal/currency"
	"custodial-wallet-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletServiceImpl implements ports.WalletService with lazy provisioning:
// a user's fiat and crypto wallets are created the first time any operation
// needs them, never through a dedicated endpoint.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(walletRepo ports.WalletRepository, log zerolog.Logger) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		log:        log,
	}
}

// EnsureWallets returns the user's fiat and crypto wallets, provisioning
// whichever is missing. The fiat currency is derived from the user's phone
// number country; the crypto wallet always holds the default token.
// Concurrent calls for the same user converge on the same two rows: the
// losers of the insert race re-read the winner's wallet.
func (s *WalletServiceImpl) EnsureWallets(ctx context.Context, userID uuid.UUID, phone string) (*domain.Wallet, *domain.Wallet, error) {
	fiatCurrency := currency.FromPhoneNumber(phone)

	fiat, err := s.ensureWallet(ctx, userID, fiatCurrency, func() (string, error) {
		return currency.DeriveAccountNumber(phone)
	})
	if err != nil {
		return nil, nil, err
	}

	crypto, err := s.ensureWallet(ctx, userID, domain.DefaultCrypto, func() (string, error) {
		return currency.GenerateCryptoAddress(), nil
	})
	if err != nil {
		return nil, nil, err
	}

	return fiat, crypto, nil
}

// ensureWallet is the provision-or-fetch primitive for one currency.
func (s *WalletServiceImpl) ensureWallet(ctx context.Context, userID uuid.UUID, cur domain.Currency, address func() (string, error)) (*domain.Wallet, error) {
	existing, err := s.walletRepo.GetByUserAndCurrency(ctx, userID, cur.Code)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("fetch %s wallet: %w", cur.Code, err))
	}
	if existing != nil {
		return existing, nil
	}

	addr, err := address()
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		UserID:    userID,
		Currency:  cur,
		Balance:   decimal.Zero,
		Address:   addr,
		Status:    domain.WalletStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		if errors.Is(err, domain.ErrDuplicateWallet) {
			// Lost the provisioning race; the winner's row is authoritative.
			existing, rerr := s.walletRepo.GetByUserAndCurrency(ctx, userID, cur.Code)
			if rerr != nil {
				return nil, apperror.InternalError(fmt.Errorf("re-read %s wallet after conflict: %w", cur.Code, rerr))
			}
			if existing == nil {
				return nil, apperror.ErrDuplicateWallet(fmt.Errorf("wallet conflict for user %s currency %s but no row found", userID, cur.Code))
			}
			return existing, nil
		}
		return nil, apperror.InternalError(fmt.Errorf("create %s wallet: %w", cur.Code, err))
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("currency", cur.Code).
		Str("wallet_id", wallet.ID.String()).
		Msg("wallet provisioned")

	return wallet, nil
}

// GetBalances returns all of the user's wallets.
func (s *WalletServiceImpl) GetBalances(ctx context.Context, userID uuid.UUID) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallets: %w", err))
	}
	return wallets, nil
}
