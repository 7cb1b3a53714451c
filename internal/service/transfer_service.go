package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"custodial-wallet-backend/internal/core/domain"
	"custodial-wallet-backend/internal/core/ports"
	"custodial-wallet-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	idempotencyTTL = 24 * time.Hour

	// maxSettleAttempts bounds retries of the whole settlement transaction
	// when Postgres reports a serialization failure or deadlock.
	maxSettleAttempts = 3

	defaultPageSize = 20
	maxPageSize     = 100
)

// TransferServiceImpl implements ports.TransferService: the engine that
// resolves both parties, picks the settlement currency and moves funds
// atomically under pessimistic locks.
type TransferServiceImpl struct {
	walletSvc       ports.WalletService
	walletRepo      ports.WalletRepository
	txRepo          ports.TransactionRepository
	idempCache      ports.IdempotencyCache
	transactor      ports.DBTransactor
	receiptsBaseURL string
	log             zerolog.Logger
}

// NewTransferService creates a new TransferServiceImpl.
func NewTransferService(
	walletSvc ports.WalletService,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	receiptsBaseURL string,
	log zerolog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		walletSvc:       walletSvc,
		walletRepo:      walletRepo,
		txRepo:          txRepo,
		idempCache:      idempCache,
		transactor:      transactor,
		receiptsBaseURL: receiptsBaseURL,
		log:             log,
	}
}

// Transfer moves funds from the authenticated sender to the wallet named by
// the receiver identifier. The settlement currency is the receiver wallet's
// currency; the sender must hold a wallet in that same currency.
func (s *TransferServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidRequest("Amount must be greater than zero")
	}
	if req.ReceiverIdentifier == "" {
		return nil, apperror.ErrInvalidRequest("Receiver identifier is required")
	}

	clientRef := req.Reference != ""
	reference := req.Reference
	if !clientRef {
		reference = domain.NewTransactionReference()
	}

	// Layer 1: Redis idempotency check for client-supplied references
	var idempKey string
	if clientRef {
		idempKey = domain.BuildIdempotencyKey(req.SenderID, reference)
		cached, err := s.idempCache.Get(ctx, idempKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			result, err := unmarshalCachedResult(cached)
			if err != nil {
				return nil, err
			}
			// A replay must carry the same receiver and amount; reusing a
			// reference with different parameters is a client error, not a
			// replay.
			if result.Transaction == nil ||
				result.Counterparty != req.ReceiverIdentifier ||
				!result.Transaction.Amount.Equal(req.Amount) {
				return nil, apperror.ErrInvalidRequest("Reference already used with a different receiver or amount")
			}
			return result, nil
		}
	}

	// Lazy provisioning: first touch creates the sender's wallets.
	senderFiat, senderCrypto, err := s.walletSvc.EnsureWallets(ctx, req.SenderID, req.SenderPhone)
	if err != nil {
		return nil, err
	}

	// Layer 2: DB idempotency check against the unique reference column
	if clientRef {
		existing, err := s.txRepo.GetByReference(ctx, reference)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
		}
		if existing != nil {
			if existing.SenderWalletID != senderFiat.ID && existing.SenderWalletID != senderCrypto.ID {
				return nil, apperror.ErrInvalidRequest("Reference already used")
			}
			replayReceiver, err := s.resolveReceiver(ctx, req.ReceiverIdentifier)
			if err != nil {
				return nil, err
			}
			if existing.ReceiverWalletID != replayReceiver.ID || !existing.Amount.Equal(req.Amount) {
				return nil, apperror.ErrInvalidRequest("Reference already used with a different receiver or amount")
			}
			return s.buildResult(existing, req.ReceiverIdentifier), nil
		}
	}

	receiver, err := s.resolveReceiver(ctx, req.ReceiverIdentifier)
	if err != nil {
		return nil, err
	}

	// Settlement currency follows the receiver wallet.
	sender, err := pickSenderWallet(senderFiat, senderCrypto, receiver.Currency)
	if err != nil {
		return nil, err
	}

	if !sender.CanTransact() || !receiver.CanTransact() {
		return nil, apperror.ErrWalletNotActive()
	}

	txn, err := s.settleWithRetry(ctx, sender, receiver, req.Amount, reference)
	if err != nil {
		return nil, err
	}

	result := s.buildResult(txn, req.ReceiverIdentifier)

	// Post-process: cache in Redis (best-effort)
	if clientRef {
		respJSON, err := json.Marshal(result)
		if err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to marshal transfer result for cache")
		} else if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("sender_wallet", sender.ID.String()).
		Str("receiver_wallet", receiver.ID.String()).
		Str("amount", req.Amount.String()).
		Str("currency", txn.Currency.Code).
		Msg("transfer settled")

	return result, nil
}

// resolveReceiver dispatches on identifier shape: exactly ten decimal digits
// is a fiat account number, anything else a crypto address.
func (s *TransferServiceImpl) resolveReceiver(ctx context.Context, identifier string) (*domain.Wallet, error) {
	var (
		receiver *domain.Wallet
		err      error
	)
	if domain.IsAccountNumber(identifier) {
		receiver, err = s.walletRepo.GetByAccountNumber(ctx, identifier)
	} else {
		receiver, err = s.walletRepo.GetByAddress(ctx, identifier)
	}
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("resolve receiver: %w", err))
	}
	if receiver == nil {
		return nil, apperror.ErrReceiverNotFound()
	}
	return receiver, nil
}

// pickSenderWallet selects the sender wallet matching the settlement currency.
func pickSenderWallet(fiat, crypto *domain.Wallet, settlement domain.Currency) (*domain.Wallet, error) {
	switch settlement.Kind {
	case domain.KindFiat:
		if fiat.Currency.Code != settlement.Code {
			return nil, apperror.ErrSenderWalletNotFound(settlement.Code)
		}
		return fiat, nil
	case domain.KindCrypto:
		if crypto.Currency.Code != settlement.Code {
			return nil, apperror.ErrSenderWalletNotFound(settlement.Code)
		}
		return crypto, nil
	default:
		return nil, apperror.InternalError(fmt.Errorf("unknown currency kind %q", settlement.Kind))
	}
}

// settleWithRetry runs the settlement transaction, retrying on serialization
// failures and deadlocks up to maxSettleAttempts.
func (s *TransferServiceImpl) settleWithRetry(ctx context.Context, sender, receiver *domain.Wallet, amount decimal.Decimal, reference string) (*domain.Transaction, error) {
	var lastErr error
	for attempt := 1; attempt <= maxSettleAttempts; attempt++ {
		txn, err := s.settle(ctx, sender, receiver, amount, reference)
		if err == nil {
			return txn, nil
		}
		if !isRetryableTxError(err) {
			return nil, err
		}
		lastErr = err
		s.log.Warn().Err(err).
			Int("attempt", attempt).
			Str("reference", reference).
			Msg("settlement conflict, retrying")
	}
	return nil, apperror.ErrStorageConflict(lastErr)
}

// settle executes one attempt of the atomic debit/credit. Both wallets are
// locked FOR UPDATE in ascending id order so concurrent transfers over the
// same pair cannot deadlock.
func (s *TransferServiceImpl) settle(ctx context.Context, sender, receiver *domain.Wallet, amount decimal.Decimal, reference string) (*domain.Transaction, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	lockOrder := []uuid.UUID{sender.ID, receiver.ID}
	if bytes.Compare(receiver.ID[:], sender.ID[:]) < 0 {
		lockOrder[0], lockOrder[1] = receiver.ID, sender.ID
	}
	if sender.ID == receiver.ID {
		lockOrder = lockOrder[:1]
	}

	locked := make(map[uuid.UUID]*domain.Wallet, len(lockOrder))
	for _, id := range lockOrder {
		w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, id)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
		}
		if w == nil {
			return nil, apperror.InternalError(fmt.Errorf("wallet %s vanished during settlement", id))
		}
		if !w.CanTransact() {
			return nil, apperror.ErrWalletNotActive()
		}
		locked[id] = w
	}

	if locked[sender.ID].Balance.LessThan(amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	if err := s.walletRepo.AdjustBalance(ctx, dbTx, sender.ID, amount.Neg()); err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			return nil, apperror.ErrInsufficientFunds()
		}
		return nil, apperror.InternalError(fmt.Errorf("debit sender: %w", err))
	}
	if err := s.walletRepo.AdjustBalance(ctx, dbTx, receiver.ID, amount); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit receiver: %w", err))
	}

	now := time.Now().UTC()
	receiptRef := domain.NewReceiptReference()
	txn := &domain.Transaction{
		ID:               uuid.New(),
		Reference:        reference,
		SenderWalletID:   sender.ID,
		ReceiverWalletID: receiver.ID,
		Amount:           amount,
		Currency:         receiver.Currency,
		Status:           domain.TransactionStatusCompleted,
		InitiatedAt:      now,
		CompletedAt:      &now,
		ReceiptRef:       &receiptRef,
	}

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	return txn, nil
}

// GetTransaction returns one transaction if the user owns either leg.
func (s *TransferServiceImpl) GetTransaction(ctx context.Context, userID, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrTransactionNotFound()
	}

	wallets, err := s.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list wallets: %w", err))
	}
	for _, w := range wallets {
		if txn.SenderWalletID == w.ID || txn.ReceiverWalletID == w.ID {
			return txn, nil
		}
	}
	// Hide other users' transactions rather than acknowledging them.
	return nil, apperror.ErrTransactionNotFound()
}

// ListTransactions pages through the user's transaction history, newest first.
func (s *TransferServiceImpl) ListTransactions(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Transaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	wallets, err := s.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list wallets: %w", err))
	}
	if len(wallets) == 0 {
		return []domain.Transaction{}, 0, nil
	}

	walletIDs := make([]uuid.UUID, len(wallets))
	for i, w := range wallets {
		walletIDs[i] = w.ID
	}

	txns, total, err := s.txRepo.ListByWallets(ctx, walletIDs, page, pageSize)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}

func (s *TransferServiceImpl) buildResult(txn *domain.Transaction, counterparty string) *ports.TransferResult {
	result := &ports.TransferResult{
		Transaction:  txn,
		Counterparty: counterparty,
	}
	if txn.ReceiptRef != nil {
		result.ReceiptURL = s.receiptsBaseURL + "/" + *txn.ReceiptRef
	}
	return result
}

// isRetryableTxError reports whether err is a Postgres serialization failure
// (40001) or deadlock (40P01), both safe to retry from the top.
func isRetryableTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// unmarshalCachedResult deserializes a cached transfer result.
func unmarshalCachedResult(data []byte) (*ports.TransferResult, error) {
	result := &ports.TransferResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached result: %w", err))
	}
	return result, nil
}
